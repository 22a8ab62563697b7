package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "send.toml")
	body := "[client]\naddress = \"10.1.1.1\"\nport = 9300\nblocks = 4\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	var o options
	fs := newFlagSet(&o)
	if err := fs.Parse([]string{"-c", path, "-a", "127.0.0.1", "-n", "2"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	cfg, err := loadConfig(fs, &o)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Address != "127.0.0.1" || cfg.Port != 9300 || cfg.Blocks != 2 {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoadConfig_InvalidPort(t *testing.T) {
	var o options
	fs := newFlagSet(&o)
	if err := fs.Parse([]string{"-p", "0"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := loadConfig(fs, &o); err == nil {
		t.Fatal("expected validation error")
	}
}
