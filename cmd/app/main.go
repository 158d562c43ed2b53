package main

import (
	stdlog "log"

	"backoffice/internal/logger"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	if err := logger.Setup(logger.FromEnv()); err != nil {
		stdlog.Fatalf("Failed to initialize logger: %v", err)
	}

	Execute()
}
