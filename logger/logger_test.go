package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, l)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestSetLevel(t *testing.T) {
	defer SetLevel(zapcore.InfoLevel)

	SetLevel(zapcore.DebugLevel)
	assert.Equal(t, zapcore.DebugLevel, Level())
}

func TestInitFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Init(false, dir, RotateConfig{}))
	defer func() {
		require.NoError(t, Init(true, "", RotateConfig{}))
	}()

	Infof("hello %s", "file")
	Sync()

	content, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Contains(t, string(content), "hello file")
}
