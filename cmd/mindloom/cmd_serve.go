package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/mindloom/internal/analyzer"
	"github.com/user/mindloom/internal/delivery"
	"github.com/user/mindloom/internal/gateway"
	"github.com/user/mindloom/internal/prompt"
	"github.com/user/mindloom/internal/runtime"
	"github.com/user/mindloom/internal/scheduler"
	"github.com/user/mindloom/internal/server"
	"github.com/user/mindloom/internal/store"
	"github.com/user/mindloom/internal/telegram"
	"github.com/user/mindloom/pkg/llm"
	"github.com/user/mindloom/pkg/llm/openai"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the mindloom daemon",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	setupLogging(cfg)

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	st := store.New(cfg.DataDir, cfg.Thresholds)
	if err := st.Load(); err != nil {
		return fmt.Errorf("load sessions: %w", err)
	}

	provider := openai.New(&llm.Config{
		BaseURL:           cfg.LLM.BaseURL,
		APIKey:            cfg.LLM.APIKey,
		Model:             cfg.LLM.Model,
		MaxTokens:         cfg.LLM.MaxTokens,
		Temperature:       cfg.LLM.Temperature,
		TopP:              cfg.LLM.TopP,
		TopK:              cfg.LLM.TopK,
		MinP:              cfg.LLM.MinP,
		RepetitionPenalty: cfg.LLM.RepetitionPenalty,
	})

	engine, err := prompt.New(cfg.LLM.Model, cfg.LLM.PromptFamily, cfg.LLM.MaxContextTokens, cfg.LLM.OutputReserve)
	if err != nil {
		return fmt.Errorf("create prompt engine: %w", err)
	}

	rules := prompt.RulesFor(cfg.LLM.PromptFamily, cfg.Thresholds)
	registry := delivery.NewRegistry()
	rt := runtime.New(provider, engine, st, rules, registry)

	gw := gateway.New(st, int64(cfg.MaxConcurrent))
	gw.Queue.SetProcessor(rt.ProcessRun)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gw.Start(ctx)
	defer gw.Stop()

	var analyzers *analyzer.Service
	if cfg.Analyzers.EnableLocal {
		analyzers, err = analyzer.NewService(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("create analyzer service: %w", err)
		}
	}

	srv := server.NewServer(st, gw, cfg.Thresholds, analyzers)
	httpServer := &http.Server{Addr: cfg.ListenAddr, Handler: srv}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("http server failed", "error", err)
		}
	}()

	if cfg.Telegram.Token != "" {
		adapter, err := telegram.New(cfg.Telegram.Token, gw, st, cfg.Thresholds, registry)
		if err != nil {
			return fmt.Errorf("create telegram adapter: %w", err)
		}
		go adapter.Start(ctx)
		slog.Info("telegram adapter started")
	} else {
		slog.Warn("telegram adapter disabled (no token)")
	}

	sched := scheduler.New(st, analyzers, cfg.Maintenance.SnapshotSchedule,
		time.Duration(cfg.Maintenance.UploadTTLMinutes)*time.Minute)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop()

	slog.Info("mindloom started",
		"data_dir", cfg.DataDir,
		"listen_addr", cfg.ListenAddr,
		"log_level", cfg.LogLevel,
		"max_concurrent", cfg.MaxConcurrent,
		"llm_model", cfg.LLM.Model,
		"prompt_family", cfg.LLM.PromptFamily,
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	slog.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown failed", "error", err)
	}
	return nil
}
