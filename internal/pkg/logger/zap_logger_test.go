package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFilterAndSessionField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l := New(Options{FilePath: path, Level: "warn"})

	l.Info("CHAT", "dropped", map[string]interface{}{"session_id": "s1"})
	l.Warn("CHAT", "kept", map[string]interface{}{"session_id": "s1"})
	l.Error("CHAT", "failed", map[string]interface{}{"error": "boom"})
	require.NoError(t, l.Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)

	var first map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "kept", first["message"])
	assert.Equal(t, "WARN", first["level"])
	assert.Equal(t, "CHAT", first["module"])
	assert.Equal(t, "s1", first["session_id"])
	assert.Contains(t, first["caller"], "zap_logger_test.go")

	var second map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "boom", second["error_ref"])
}

func TestUnknownLevelFallsBackToInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l := New(Options{FilePath: path, Level: "loud"})
	l.Debug("X", "hidden", nil)
	l.Info("X", "shown", nil)
	require.NoError(t, l.Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "hidden")
	assert.Contains(t, string(raw), "shown")
}
