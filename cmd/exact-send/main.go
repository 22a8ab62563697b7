package main

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BaiMeow/tcpexact/echo"
	"github.com/BaiMeow/tcpexact/log"
	"github.com/BaiMeow/tcpexact/setup"
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

	conn, err := setup.ConnectTo(cfg.Address, cfg.Port)
	if err != nil {
		var se *setup.SetupError
		if errors.As(err, &se) {
			zap.L().Fatal("connect", zap.Stringer("stage", se.Stage), zap.Error(err))
		}
		zap.L().Fatal("connect", zap.Error(err))
	}
	// Fatal exits without running defers, so close the conn before every exit.
	fail := func(msg string, fields ...zap.Field) {
		conn.Close()
		zap.L().Fatal(msg, fields...)
	}

	payload := make([]byte, cfg.BlockSize)
	start := time.Now()
	for i := range cfg.Blocks {
		if _, err := rand.Read(payload); err != nil {
			fail("generate payload", zap.Error(err))
		}
		got, err := echo.Exchange(conn, payload)
		if err != nil {
			fail("exchange", zap.Int("block", i), zap.Error(err))
		}
		if !bytes.Equal(got, payload) {
			fail("echo mismatch", zap.Int("block", i))
		}
		zap.L().Debug("block echoed", zap.Int("block", i), zap.Int("len", len(got)))
	}

	elapsed := time.Since(start)
	if err := conn.Close(); err != nil {
		zap.L().Warn("close connection", zap.Error(err))
	}
	zap.L().Info("done",
		zap.Int("blocks", cfg.Blocks),
		zap.Int("bytes", cfg.Blocks*cfg.BlockSize),
		zap.Duration("elapsed", elapsed))
	_ = zap.L().Sync()
}
