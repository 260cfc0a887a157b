package main

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/orca-swap-router/internal/aggregator"
	"github.com/hxuan190/orca-swap-router/internal/common"
	"github.com/hxuan190/orca-swap-router/internal/config"
	"github.com/hxuan190/orca-swap-router/internal/http"
	"github.com/hxuan190/orca-swap-router/internal/services/market"
)

func main() {
	// load env; a missing .env is fine when the environment is set directly
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("no .env file loaded")
	}

	general := &config.GeneralConfig{}
	if err := general.Load(); err != nil {
		log.Error().Err(err).Msg("invalid general config")
		return
	}
	common.SetupLogger(general.LogLevel, general.Env)

	// di container config
	conf := container.NewConf(
		general,
		&config.RPCConfig{},
		&config.CatalogConfig{},
		&config.RoutingConfig{},
	)

	// di container
	dic, err := container.New(
		// config
		conf,

		// services
		&market.Service{},
		&aggregator.Service{},

		&http.HTTPService{},
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to create di container")
		return
	}

	// Run blocks until SIGINT/SIGTERM
	if err := dic.Run(); err != nil {
		log.Error().Err(err).Msg("failed to run di container")
		return
	}

	log.Info().Msg("Shutting down services...")
	if err := dic.Stop(); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("Shutdown complete")
}
