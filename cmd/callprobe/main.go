package main

import (
	"os"

	"github.com/akshayasree99/healthx-signal/internal/cli"
	"github.com/akshayasree99/healthx-signal/internal/logging"
)

func main() {
	// Probe logs stay quiet unless LOG_LEVEL asks for them.
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "error"
	}
	logging.Init("callprobe", level, "text")
	cli.Execute()
}
