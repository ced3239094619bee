package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"coatvision/internal/analysis"
	"coatvision/internal/api"
	"coatvision/internal/config"
	"coatvision/internal/logging"
	"coatvision/internal/records"
	"coatvision/internal/storage"

	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logging.New("production", "", os.Stderr)
		boot.Error().Err(err).Msg("load config")
		os.Exit(1)
	}
	log := logging.New(cfg.Log.Env, cfg.Log.Level, os.Stdout)

	deps, cleanup, err := buildDeps(cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("init dependencies")
		os.Exit(1)
	}
	defer cleanup()

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: deps.handler, ReadHeaderTimeout: 10 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Str("addr", cfg.Server.Addr).Bool("remote_analysis", cfg.Analysis.RemoteEnabled()).Msg("listening")
	if err := runServer(ctx, srv, cfg.ShutdownTimeoutDuration()); err != nil {
		log.Error().Err(err).Msg("server error")
	}
}

type appDeps struct {
	handler http.Handler
}

// buildDeps 按配置组装存储、记录、分析客户端与路由。
func buildDeps(cfg config.AppConfig, log zerolog.Logger) (appDeps, func(), error) {
	kv, err := storage.NewStore(cfg.Database.Path)
	if err != nil {
		return appDeps{}, func() {}, err
	}
	cleanup := func() {
		if err := kv.Close(); err != nil {
			log.Warn().Err(err).Msg("close store")
		}
	}

	keys, err := kv.Keys(context.Background())
	if err != nil {
		cleanup()
		return appDeps{}, func() {}, err
	}
	log.Info().Str("path", cfg.Database.Path).Strs("keys", keys).Msg("store opened")

	store := records.New(kv, records.Options{Logger: &log})
	analyzer := analysis.New(cfg.Analysis, nil, log)
	handler := api.NewHandler(store, analyzer, cfg.Pricing, log)

	return appDeps{handler: handler}, cleanup, nil
}

type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// runServer 启动服务，ctx 取消后在 timeout 内优雅关闭。
func runServer(ctx context.Context, srv httpServer, timeout time.Duration) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
