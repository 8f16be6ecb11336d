package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/party-game/internal/config"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"fatal":   zapcore.FatalLevel,
		"verbose": zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
	}
	for input, want := range tests {
		assert.Equal(t, want, parseLevel(input), "level %q", input)
	}
}

func TestBuild_FileOutput(t *testing.T) {
	dir := t.TempDir()
	built, modules, err := build(&config.LogConfig{
		Level:   "debug",
		Format:  "json",
		Output:  "file",
		File:    config.LogFileConfig{Path: dir, Filename: "game.log", MaxSize: 1},
		Modules: map[string]string{"game": "warn"},
	})
	require.NoError(t, err)
	require.NotNil(t, built)
	assert.Contains(t, modules, "game")

	built.Info("状态已提交")
	require.NoError(t, built.Sync())

	_, err = os.Stat(filepath.Join(dir, "game.log"))
	assert.NoError(t, err)
}

func TestSetLevel(t *testing.T) {
	SetLevel("error")
	assert.Equal(t, zapcore.ErrorLevel, Level())
	SetLevel("info")
	assert.Equal(t, zapcore.InfoLevel, Level())
}
