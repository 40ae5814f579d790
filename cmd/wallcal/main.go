package main

import (
	"os"

	"wallcal/internal/commands"
	appLog "wallcal/internal/log"
)

func main() {
	if err := commands.New().Execute(); err != nil {
		appLog.Error("command failed", err)
		os.Exit(1)
	}
}
