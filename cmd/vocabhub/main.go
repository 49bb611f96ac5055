package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"vocabhub/cmd/vocabhub/commands"
)

func main() {
	envfile := ".env"
	if v := os.Getenv("VOCABHUB_ENV"); v != "" {
		envfile = ".env." + v
	}
	if err := godotenv.Load(envfile); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load env file", "file", envfile, "error", err)
	}

	commands.Execute()
}
