package client

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Delays is the animation timing profile, in milliseconds per phase.
type Delays struct {
	FlipHalf      uint32 `yaml:"flipHalf"`
	FlipHold      uint32 `yaml:"flipHold"`
	FlipFade      uint32 `yaml:"flipFade"`
	HintHighlight uint32 `yaml:"hintHighlight"`
	HintMove      uint32 `yaml:"hintMove"`
	HintSettle    uint32 `yaml:"hintSettle"`
	// FlipSignalTimeout forces the half1 -> half2 progression when the
	// local completion signal never arrives.
	FlipSignalTimeout uint32 `yaml:"flipSignalTimeout"`
	// BotThink is how long the presentation layer waits before
	// executing a staged bot action.
	BotThink uint32 `yaml:"botThink"`
}

// DefaultDelays returns the stock timing profile.
func DefaultDelays() Delays {
	return Delays{
		FlipHalf:          150,
		FlipHold:          400,
		FlipFade:          250,
		HintHighlight:     300,
		HintMove:          450,
		HintSettle:        200,
		FlipSignalTimeout: 1000,
		BotThink:          1200,
	}
}

// ParseDelayConfig reads a timing profile from a yaml file.
func ParseDelayConfig(delaysFile string) (Delays, error) {
	bytes, err := os.ReadFile(delaysFile)
	if err != nil {
		return Delays{}, errors.Wrap(err, fmt.Sprintf("Error reading delay config file [%s]", delaysFile))
	}

	data := DefaultDelays()
	err = yaml.Unmarshal(bytes, &data)
	if err != nil {
		return Delays{}, errors.Wrap(err, fmt.Sprintf("Error parsing delays YAML file [%s]", delaysFile))
	}

	return data, nil
}
