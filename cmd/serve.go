package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"llm-workbench/internal/backend"
	"llm-workbench/internal/compare"
	"llm-workbench/internal/config"
	"llm-workbench/internal/credential"
	"llm-workbench/internal/market"
	"llm-workbench/internal/media"
	"llm-workbench/internal/server"
)

const serveUsage = `Usage:
  llm-workbench serve --config <path> [--port <port>]

Flags:
  --config string   Path to YAML configuration file (required)
  --port   int      Override server port from configuration`

func serve(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, serveUsage)
	}

	var cfgPath string
	var overridePort int
	fs.StringVar(&cfgPath, "config", "", "path to configuration file")
	fs.IntVar(&overridePort, "port", 0, "override server port")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("parse serve flags: %w", err)
	}

	if cfgPath == "" {
		return errors.New("serve command requires --config <path>")
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	if overridePort != 0 {
		if overridePort <= 0 || overridePort > 65535 {
			return fmt.Errorf("port override %d must be a valid TCP port", overridePort)
		}
		cfg.Server.Port = overridePort
	}

	creds := credential.NewStore()

	chat, err := backend.NewClient(cfg.Backend, cfg.Sampling, backend.NewHTTPClient())
	if err != nil {
		return fmt.Errorf("initialise chat backend: %w", err)
	}

	quotes, err := market.NewClient(cfg.Market, backend.NewHTTPClient())
	if err != nil {
		return fmt.Errorf("initialise market-data client: %w", err)
	}

	multimodal, err := media.NewClient(cfg.Media, backend.NewHTTPClient())
	if err != nil {
		return fmt.Errorf("initialise media backend: %w", err)
	}

	processor := media.NewProcessor(media.NewTranscoder(cfg.Transcode), multimodal)

	srv, err := server.New(cfg, server.Deps{
		Credentials: creds,
		Chat:        chat,
		Comparator:  compare.New(chat),
		Market:      quotes,
		Audio:       processor,
	})
	if err != nil {
		return err
	}

	return srv.Run(ctx)
}
