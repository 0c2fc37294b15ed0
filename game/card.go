package game

import (
	crypto_rand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
)

// Color is one of the seven card face colors.
type Color string

const (
	ColorRed    Color = "red"
	ColorOrange Color = "orange"
	ColorYellow Color = "yellow"
	ColorGreen  Color = "green"
	ColorBlue   Color = "blue"
	ColorPurple Color = "purple"
	ColorPink   Color = "pink"
)

// Colors returns all face colors in canonical order.
func Colors() []Color {
	return []Color{ColorRed, ColorOrange, ColorYellow, ColorGreen, ColorBlue, ColorPurple, ColorPink}
}

const (
	// CardsPerColor is how many cards of each color the full deck holds.
	CardsPerColor = 15
	// DeckSize is the total card count of a full deck.
	DeckSize = CardsPerColor * 7
)

// Card is immutable once created. BackColors always contains the face
// color plus two others, all distinct.
type Card struct {
	ID         string   `json:"id"`
	Color      Color    `json:"color"`
	BackColors [3]Color `json:"backColors"`
}

// FullDeck builds the unshuffled 105-card deck. The back-color triple of
// the nth card of a color is the nth 3-combination of the seven colors
// that includes the card's own color. With six other colors there are
// C(6,2) = 15 such combinations, one per card.
func FullDeck() []Card {
	cards := make([]Card, 0, DeckSize)
	for _, c := range Colors() {
		others := otherColors(c)
		n := 0
		for i := 0; i < len(others); i++ {
			for j := i + 1; j < len(others); j++ {
				n++
				cards = append(cards, Card{
					ID:         fmt.Sprintf("%s-%d", c, n),
					Color:      c,
					BackColors: [3]Color{c, others[i], others[j]},
				})
			}
		}
	}
	return cards
}

func otherColors(c Color) []Color {
	others := make([]Color, 0, 6)
	for _, o := range Colors() {
		if o != c {
			others = append(others, o)
		}
	}
	return others
}

func newSeed() rand.Source {
	var b [8]byte
	_, err := crypto_rand.Read(b[:])
	if err != nil {
		panic("cannot seed math/rand package with cryptographically secure random number generator")
	}
	return rand.NewSource(int64(binary.LittleEndian.Uint64(b[:])))
}

// ShuffledDeck returns a full deck shuffled with the given source.
// A nil source gets a crypto-derived seed.
func ShuffledDeck(source rand.Source) []Card {
	if source == nil {
		source = newSeed()
	}
	randGen := rand.New(source)
	cards := FullDeck()
	randGen.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	return cards
}
