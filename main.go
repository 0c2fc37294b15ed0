package main

import (
	"flag"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/belassiter/mantid/bot"
	"github.com/belassiter/mantid/caching"
	"github.com/belassiter/mantid/game"
	"github.com/belassiter/mantid/logging"
	"github.com/belassiter/mantid/nats"
	"github.com/belassiter/mantid/rest"
	"github.com/belassiter/mantid/store"
	"github.com/belassiter/mantid/util"
)

var mainLogger = logging.GetZeroLogger("main::main", nil)

func main() {
	var logLevel = flag.String("log-level", "info", "zerolog level")
	var localMode = flag.Bool("local", false, "trust one controller session to drive all seats")
	flag.Parse()

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	cache, err := caches.NewSnapshotCache()
	if err != nil {
		mainLogger.Fatal().Msgf("Unable to initialize snapshot cache: %v", err)
	}

	broadcaster, err := nats.NewBroadcaster(util.GameServerEnvironment.GetNatsURL())
	if err != nil {
		mainLogger.Fatal().Msgf("Unable to connect to NATS: %v", err)
	}
	defer broadcaster.Close()
	publisher := store.MultiPublisher{cache, broadcaster}

	var gameStore game.GameStore
	switch method := util.GameServerEnvironment.GetPersistMethod(); method {
	case "redis":
		addr := fmt.Sprintf("%s:%d", util.GameServerEnvironment.GetRedisHost(), util.GameServerEnvironment.GetRedisPort())
		gameStore = store.NewRedisGameStore(addr, util.GameServerEnvironment.GetRedisPW(), util.GameServerEnvironment.GetRedisDB(), publisher)
	case "memory":
		gameStore = store.NewMemoryGameStore(publisher)
	default:
		mainLogger.Fatal().Msgf("Unsupported persist method [%s]", method)
	}

	var policy game.Policy = game.RemoteIdentityPolicy{}
	if *localMode {
		policy = game.LocalControllerPolicy{ControllerID: "local-controller"}
	}

	engine := game.NewEngine(gameStore, policy, bot.DeciderFunc())
	server := rest.NewServer(engine, gameStore, cache)

	addr := util.GameServerEnvironment.GetBindAddr()
	mainLogger.Info().Str("addr", addr).Msg("Game server listening")
	if err := server.RunRestServer(addr); err != nil {
		mainLogger.Fatal().Msgf("REST server exited: %v", err)
	}
}
