package main

import (
	"os"

	"github.com/Lzww0608/geuui/internal/cli"
	"github.com/Lzww0608/geuui/internal/config"
	"github.com/Lzww0608/geuui/internal/log"
)

func main() {
	cfg, err := config.Load(os.Getenv("GEUUI_CONFIG_DIR"))
	if err != nil {
		l := log.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	cfg.Log.ServiceName = "geuui"
	log.Init(cfg.Log)
	logger := log.L()

	root := cli.NewRoot(cli.Options{Config: cfg})
	if err := root.Execute(); err != nil {
		logger.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
