// Package config loads the TOML configuration of the exact-echo and exact-send
// commands. A file holds a [server] and a [client] table; keys that are absent keep
// their defaults.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap/zapcore"
)

const (
	DefaultPort      = 9000
	DefaultBacklog   = 10
	DefaultBlockSize = 4096
	MaxBlockSize     = 64 << 20
)

type Server struct {
	Port        int
	Backlog     int
	BlockSize   int
	MetricsAddr string
	LogLevel    zapcore.Level
}

type Client struct {
	Address   string
	Port      int
	BlockSize int
	Blocks    int
	LogLevel  zapcore.Level
}

type fileConfig struct {
	Server serverFile `toml:"server"`
	Client clientFile `toml:"client"`
}

type serverFile struct {
	Port        int    `toml:"port"`
	Backlog     int    `toml:"backlog"`
	BlockSize   int    `toml:"block_size"`
	MetricsAddr string `toml:"metrics_addr"`
	LogLevel    string `toml:"log_level"`
}

type clientFile struct {
	Address   string `toml:"address"`
	Port      int    `toml:"port"`
	BlockSize int    `toml:"block_size"`
	Blocks    int    `toml:"blocks"`
	LogLevel  string `toml:"log_level"`
}

func DefaultServer() Server {
	return Server{
		Port:      DefaultPort,
		Backlog:   DefaultBacklog,
		BlockSize: DefaultBlockSize,
		LogLevel:  zapcore.InfoLevel,
	}
}

func DefaultClient() Client {
	return Client{
		Address:   "127.0.0.1",
		Port:      DefaultPort,
		BlockSize: DefaultBlockSize,
		Blocks:    16,
		LogLevel:  zapcore.InfoLevel,
	}
}

func LoadServer(path string) (Server, error) {
	cfg := DefaultServer()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Server{}, fmt.Errorf("load server config: %w", err)
	}

	if meta.IsDefined("server", "port") {
		cfg.Port = raw.Server.Port
	}
	if meta.IsDefined("server", "backlog") {
		cfg.Backlog = raw.Server.Backlog
	}
	if meta.IsDefined("server", "block_size") {
		cfg.BlockSize = raw.Server.BlockSize
	}
	if meta.IsDefined("server", "metrics_addr") {
		cfg.MetricsAddr = strings.TrimSpace(raw.Server.MetricsAddr)
	}
	if meta.IsDefined("server", "log_level") {
		if err := cfg.LogLevel.UnmarshalText([]byte(strings.TrimSpace(raw.Server.LogLevel))); err != nil {
			return Server{}, fmt.Errorf("parse server log_level: %w", err)
		}
	}

	return cfg, cfg.Validate()
}

func LoadClient(path string) (Client, error) {
	cfg := DefaultClient()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Client{}, fmt.Errorf("load client config: %w", err)
	}

	if meta.IsDefined("client", "address") {
		cfg.Address = strings.TrimSpace(raw.Client.Address)
	}
	if meta.IsDefined("client", "port") {
		cfg.Port = raw.Client.Port
	}
	if meta.IsDefined("client", "block_size") {
		cfg.BlockSize = raw.Client.BlockSize
	}
	if meta.IsDefined("client", "blocks") {
		cfg.Blocks = raw.Client.Blocks
	}
	if meta.IsDefined("client", "log_level") {
		if err := cfg.LogLevel.UnmarshalText([]byte(strings.TrimSpace(raw.Client.LogLevel))); err != nil {
			return Client{}, fmt.Errorf("parse client log_level: %w", err)
		}
	}

	return cfg, cfg.Validate()
}

func (s Server) Validate() error {
	var errs []error
	if s.Port < 0 || s.Port > 65535 {
		errs = append(errs, fmt.Errorf("server port %d out of range", s.Port))
	}
	if err := validateBlockSize(s.BlockSize); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c Client) Validate() error {
	var errs []error
	if c.Address == "" {
		errs = append(errs, errors.New("client address is empty"))
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("client port %d out of range", c.Port))
	}
	if err := validateBlockSize(c.BlockSize); err != nil {
		errs = append(errs, err)
	}
	if c.Blocks < 0 {
		errs = append(errs, fmt.Errorf("negative block count %d", c.Blocks))
	}
	return errors.Join(errs...)
}

func validateBlockSize(size int) error {
	if size <= 0 || size > MaxBlockSize {
		return fmt.Errorf("block size %d outside (0, %d]", size, MaxBlockSize)
	}
	return nil
}
