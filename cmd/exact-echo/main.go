package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/BaiMeow/tcpexact/echo"
	"github.com/BaiMeow/tcpexact/log"
	"github.com/BaiMeow/tcpexact/metrics"
	"github.com/BaiMeow/tcpexact/setup"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	var o options
	fs := newFlagSet(&o)
	_ = fs.Parse(os.Args[1:])
	if err := log.Init(o.level); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}

	cfg, err := loadConfig(fs, &o)
	if err != nil {
		zap.L().Fatal("load config", zap.Error(err))
	}
	if cfg.LogLevel != o.level {
		if err := log.Init(cfg.LogLevel); err != nil {
			zap.L().Fatal("init logger", zap.Error(err))
		}
	}

	ln, err := setup.StartListener(cfg.Port, cfg.Backlog)
	if err != nil {
		var se *setup.SetupError
		if errors.As(err, &se) {
			zap.L().Fatal("start listener", zap.Stringer("stage", se.Stage), zap.Error(err))
		}
		zap.L().Fatal("start listener", zap.Error(err))
	}

	if cfg.MetricsAddr != "" {
		metrics.RegisterMetrics()
		go serveMetrics(cfg.MetricsAddr)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	zap.L().Info("setup done",
		zap.String("addr", ln.Addr().String()),
		zap.Int("block_size", cfg.BlockSize))
	if err := echo.Serve(ctx, ln, cfg.BlockSize); err != nil {
		zap.L().Fatal("serve", zap.Error(err))
	}
	zap.L().Info("shutdown")
	_ = zap.L().Sync()
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	zap.L().Info("serving metrics", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		zap.L().Error("metrics server", zap.Error(err))
	}
}
