package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfigPath(t *testing.T) {
	path, err := ParseConfigPath("gateway.tls.enabled")
	require.NoError(t, err)
	assert.Equal(t, []string{"gateway", "tls", "enabled"}, path)

	_, err = ParseConfigPath("")
	assert.Error(t, err)
	_, err = ParseConfigPath("gateway..port")
	assert.Error(t, err)
	_, err = ParseConfigPath("gateway.__proto__.port")
	assert.Error(t, err)
}

func TestGetValueAtPath(t *testing.T) {
	root := map[string]any{
		"gateway": map[string]any{"port": 9099},
	}

	val, ok := GetValueAtPath(root, []string{"gateway", "port"})
	require.True(t, ok)
	assert.Equal(t, 9099, val)

	_, ok = GetValueAtPath(root, []string{"gateway", "missing"})
	assert.False(t, ok)
	_, ok = GetValueAtPath(root, []string{"gateway", "port", "deeper"})
	assert.False(t, ok)
}

func TestSetValueAtPathCreatesIntermediates(t *testing.T) {
	root := map[string]any{}
	SetValueAtPath(root, []string{"session", "idleSeconds"}, 120)

	val, ok := GetValueAtPath(root, []string{"session", "idleSeconds"})
	require.True(t, ok)
	assert.Equal(t, 120, val)
}

func TestUnsetValueAtPathPreservesSiblings(t *testing.T) {
	root := map[string]any{
		"telephony": map[string]any{"accountSid": "AC1", "authToken": "tok"},
	}

	assert.True(t, UnsetValueAtPath(root, []string{"telephony", "authToken"}))
	assert.False(t, UnsetValueAtPath(root, []string{"telephony", "authToken"}))

	_, ok := GetValueAtPath(root, []string{"telephony", "accountSid"})
	assert.True(t, ok)
}

func TestLoadRawMissingFile(t *testing.T) {
	raw, err := LoadRaw(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestSaveRawRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, SaveRaw(path, map[string]any{
		"gateway": map[string]any{"publicHost": "donna.example.com"},
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "publicHost: donna.example.com")

	raw, err := LoadRaw(path)
	require.NoError(t, err)
	val, ok := GetValueAtPath(raw, []string{"gateway", "publicHost"})
	require.True(t, ok)
	assert.Equal(t, "donna.example.com", val)
}
