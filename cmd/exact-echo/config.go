package main

import (
	"flag"

	"github.com/BaiMeow/tcpexact/config"
	"go.uber.org/zap/zapcore"
)

type options struct {
	confPath    string
	port        int
	backlog     int
	blockSize   int
	metricsAddr string
	level       zapcore.Level
}

func newFlagSet(o *options) *flag.FlagSet {
	fs := flag.NewFlagSet("exact-echo", flag.ExitOnError)
	fs.StringVar(&o.confPath, "c", "", "configuration file path")
	fs.IntVar(&o.port, "p", config.DefaultPort, "tcp listen port")
	fs.IntVar(&o.backlog, "b", config.DefaultBacklog, "listen backlog")
	fs.IntVar(&o.blockSize, "s", config.DefaultBlockSize, "echo block size in bytes")
	fs.StringVar(&o.metricsAddr, "m", "", "prometheus metrics listen addr, empty to disable")
	fs.Var(&o.level, "log", "log level")
	return fs
}

// loadConfig applies the config file over the defaults, then any flag set on the
// command line over that.
func loadConfig(fs *flag.FlagSet, o *options) (config.Server, error) {
	cfg := config.DefaultServer()
	if o.confPath != "" {
		var err error
		if cfg, err = config.LoadServer(o.confPath); err != nil {
			return config.Server{}, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "p":
			cfg.Port = o.port
		case "b":
			cfg.Backlog = o.backlog
		case "s":
			cfg.BlockSize = o.blockSize
		case "m":
			cfg.MetricsAddr = o.metricsAddr
		case "log":
			cfg.LogLevel = o.level
		}
	})
	return cfg, cfg.Validate()
}
