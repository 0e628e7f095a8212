package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/m3rciful/searchbot/bot"
	corecmd "github.com/m3rciful/searchbot/core/cmd"
)

func main() {
	// Optional .env for local development; env vars win over the YAML file.
	_ = godotenv.Load()

	err := corecmd.Run(corecmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config.yaml",
		LoadConfig:        bot.LoadConfig,
		Bootstrap:         bot.Bootstrap,
	})
	if err != nil {
		log.Fatalf("searchbot: %v", err)
	}
}
