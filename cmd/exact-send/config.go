package main

import (
	"flag"

	"github.com/BaiMeow/tcpexact/config"
	"go.uber.org/zap/zapcore"
)

type options struct {
	confPath  string
	address   string
	port      int
	blockSize int
	blocks    int
	level     zapcore.Level
}

func newFlagSet(o *options) *flag.FlagSet {
	def := config.DefaultClient()
	fs := flag.NewFlagSet("exact-send", flag.ExitOnError)
	fs.StringVar(&o.confPath, "c", "", "configuration file path")
	fs.StringVar(&o.address, "a", def.Address, "server ipv4 address")
	fs.IntVar(&o.port, "p", def.Port, "server port")
	fs.IntVar(&o.blockSize, "s", def.BlockSize, "block size in bytes, must match the server")
	fs.IntVar(&o.blocks, "n", def.Blocks, "number of blocks to send")
	fs.Var(&o.level, "log", "log level")
	return fs
}

func loadConfig(fs *flag.FlagSet, o *options) (config.Client, error) {
	cfg := config.DefaultClient()
	if o.confPath != "" {
		var err error
		if cfg, err = config.LoadClient(o.confPath); err != nil {
			return config.Client{}, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "a":
			cfg.Address = o.address
		case "p":
			cfg.Port = o.port
		case "s":
			cfg.BlockSize = o.blockSize
		case "n":
			cfg.Blocks = o.blocks
		case "log":
			cfg.LogLevel = o.level
		}
	})
	return cfg, cfg.Validate()
}
