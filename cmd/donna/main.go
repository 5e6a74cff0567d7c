package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/tillberg/autorestart"

	"github.com/donnabot/donna/internal/cli"
)

func main() {
	// Credentials come from .env in development deployments.
	_ = godotenv.Load()
	go autorestart.RestartOnChange()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
