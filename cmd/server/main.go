package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/kfalicov/super-swash-bros/internal/config"
	"github.com/kfalicov/super-swash-bros/internal/logging"
	"github.com/kfalicov/super-swash-bros/internal/server"
	"github.com/kfalicov/super-swash-bros/internal/signaling"
)

func main() {
	logging.Init()

	cfg, err := config.Load(config.Options{})
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	hub := signaling.NewHub()
	go hub.Run()

	slog.Info("starting signaling server", "addr", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, server.New(hub)); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
