// Package main LIBRA API.
//
// @title           LIBRA API
// @version         1.0
// @description     Library borrow requests, loans and inventory.
// @BasePath        /api/v1
// @schemes         https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"LIBRA-backend/internal/platform/db"
	"LIBRA-backend/internal/platform/validation"
	"LIBRA-backend/internal/server"
)

func newLogger(mode string) *slog.Logger {
	if mode == db.ModeRelease {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// tlsFiles は config/tls/<mode>/ 以下の証明書パスを返す（無ければ空）
func tlsFiles(cfg *db.Config) (string, string) {
	if cfg.Certificate.Cert == "" || cfg.Certificate.Key == "" {
		return "", ""
	}
	certFile := fmt.Sprintf("config/tls/%s/%s", cfg.Mode, cfg.Certificate.Cert)
	keyFile := fmt.Sprintf("config/tls/%s/%s", cfg.Mode, cfg.Certificate.Key)
	if _, err := os.Stat(certFile); err != nil {
		return "", ""
	}
	if _, err := os.Stat(keyFile); err != nil {
		return "", ""
	}
	return certFile, keyFile
}

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config.yaml")
	flag.Parse()

	// 設定読み込み
	cfg, err := db.LoadConfig(*configPath)
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "err", err)
		os.Exit(1)
	}

	log := newLogger(cfg.Mode)
	slog.SetDefault(log)
	log.Info("starting", "version", cfg.Version, "mode", cfg.Mode, "driver", cfg.DB.Driver)

	if err := validation.Register(); err != nil {
		log.Error("register validators", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	app, err := server.New(ctx, cfg, log)
	cancel()
	if err != nil {
		log.Error("init", "err", err)
		os.Exit(1)
	}
	defer app.Close()

	r := server.NewRouter(app.Services, server.RouterOptions{Mode: cfg.Mode, Ping: app.Ping})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	certFile, keyFile := tlsFiles(cfg)
	go func() {
		var err error
		if certFile != "" {
			log.Info("listening", "addr", "https://"+cfg.Addr)
			err = srv.ListenAndServeTLS(certFile, keyFile)
		} else {
			log.Warn("certificate not found; serving plain HTTP", "addr", cfg.Addr)
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("serve", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info("shutting down...")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", "err", err)
	}
}
