package main

import (
	"nibog/config"
	"nibog/di"
	"nibog/helper"
	"nibog/shared/logger"

	"github.com/rs/zerolog/log"
)

// @title NIBOG API
// @version 1.0
// @description Pending bookings, PhonePe payments and booking confirmations for NIBOG events.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.
func main() {
	cfg := config.Get()

	logger.InitLogger()

	logger.SetLogLevel(cfg)

	if cfg.DB.Postgres.AutoMigrate {
		if err := helper.Up(cfg); err != nil {
			log.Fatal().Err(err).Msg("Failed to run database migrations")
		}
	}

	http, err := di.InitializeService()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize service")
	}

	http.Serve()
}
