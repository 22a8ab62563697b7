package log

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInit_SetsGlobalLevel(t *testing.T) {
	prev := zap.L()
	defer zap.ReplaceGlobals(prev)

	if err := Init(zapcore.WarnLevel); err != nil {
		t.Fatalf("Init: %v", err)
	}
	core := zap.L().Core()
	if core.Enabled(zapcore.InfoLevel) {
		t.Error("info enabled at warn level")
	}
	if !core.Enabled(zapcore.ErrorLevel) {
		t.Error("error disabled at warn level")
	}
}
