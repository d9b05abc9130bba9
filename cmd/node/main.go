package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zkclob/engine/params"
	"github.com/zkclob/engine/pkg/api"
	"github.com/zkclob/engine/pkg/exchange"
	"github.com/zkclob/engine/pkg/obslog"
)

func main() {
	// Load config from .env file and environment variables
	cfg := params.LoadFromEnv("") // "" means load from .env in current directory

	// Setup logging (write to both console and file)
	logFile := os.Getenv("LOG_FILE")
	if logFile == "" {
		logFile = "data/node.log"
	}

	logger, err := obslog.NewWithFile(logFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()
	sugar.Infow("logger_initialized", "log_file", logFile)

	// ---- Exchange: state store, mempool, block builder, block store ----
	ex, err := exchange.New(cfg, sugar)
	if err != nil {
		sugar.Fatalw("exchange_init_failed", "err", err)
	}
	defer ex.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sugar.Infow("node_starting",
		"data_dir", cfg.Node.DataDir,
		"http_addr", cfg.Node.HTTPAddr,
		"builder_poll_ms", cfg.Builder.PollInterval.Milliseconds(),
		"builder_max_block_age_ms", cfg.Builder.MaxBlockAge.Milliseconds(),
		"builder_max_batch", cfg.Builder.MaxBatch)

	go ex.Run(ctx)

	// ---- API Server ----
	apiServer := api.NewServer(ex, sugar)
	httpSrv := &http.Server{
		Addr:    cfg.Node.HTTPAddr,
		Handler: apiServer.Handler(),
	}

	go func() {
		sugar.Infow("api_server_starting", "addr", cfg.Node.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalw("api_server_failed", "err", err)
		}
	}()

	<-ctx.Done()
	sugar.Infow("node_shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("api_server_shutdown_failed", "err", err)
	}
}
