package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twitterhook.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
credentials: "ck:cs:123-at:as:BEARER"
listen: ":9090"
timeout: 5s
positional_family: true
cache:
  users: 50
  ttl: 1h
`), 0o600))
	t.Setenv(credentialsEnv, "")

	fc, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", fc.Listen)
	assert.Equal(t, "/webhook", fc.WebhookPath)
	assert.Equal(t, 5*time.Second, fc.Timeout)
	assert.True(t, fc.PositionalFamily)

	cc, err := fc.clientConfig()
	require.NoError(t, err)
	assert.Equal(t, int64(123), cc.Credentials.SelfID())
	assert.Equal(t, 50, cc.UserCache.Capacity)
	assert.Equal(t, time.Hour, cc.TweetCache.TTL)
	assert.True(t, cc.PositionalFamily)
}

func TestLoadConfigMissingFileUsesEnv(t *testing.T) {
	t.Setenv(credentialsEnv, "::::BEARER")

	fc, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", fc.Listen)

	cc, err := fc.clientConfig()
	require.NoError(t, err)
	assert.Equal(t, "BEARER", cc.Credentials.BearerToken)
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: [unterminated"), 0o600))
	_, err := loadConfig(path)
	assert.Error(t, err)
}

func TestSetupLogging(t *testing.T) {
	assert.NoError(t, setupLogging("debug"))
	assert.NoError(t, setupLogging("WARN"))
	assert.Error(t, setupLogging("chatty"))
}
