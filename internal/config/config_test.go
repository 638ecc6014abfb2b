package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
app:
  env: dev
mongodb:
  uri: mongodb://localhost:27017
jwt:
  public_key_path: /keys/public.pem
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "mongo", cfg.App.Storage)
	assert.Equal(t, "campus", cfg.Mongo.DB)
	assert.Equal(t, 15*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "campus.activity", cfg.Kafka.TopicActivity)
	assert.Equal(t, 3, cfg.Poller.ConversationSecs)
	assert.Equal(t, 5, cfg.Poller.ThreadListSecs)
	assert.Equal(t, 30, cfg.Poller.NotificationsSecs)
	assert.Equal(t, 60, cfg.Poller.UnreadCountSecs)
	assert.True(t, cfg.Dev())
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
app:
  port: "9000"
  storage: memory
jwt:
  public_key_path: /keys/public.pem
`)
	t.Setenv("APP_PORT", "7000")
	t.Setenv("CHAT_RATE_LIMIT_PER_MIN", "12")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "7000", cfg.App.Port)
	assert.Equal(t, 12, cfg.Chat.RateLimitPerMin)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing mongo uri", "jwt:\n  public_key_path: /k.pem\n"},
		{"bad storage", "app:\n  storage: sqlite\njwt:\n  public_key_path: /k.pem\n"},
		{"missing jwt key", "app:\n  storage: memory\n"},
		{"kafka without brokers", "app:\n  storage: memory\nkafka:\n  enabled: true\njwt:\n  public_key_path: /k.pem\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadSeedUsersAndDLQ(t *testing.T) {
	path := writeConfig(t, `
app:
  storage: memory
  seed_users:
    - id: alice
      name: Alice
    - id: bob
      username: bob.k
kafka:
  topic_activity: activity
jwt:
  public_key_path: /keys/public.pem
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.App.SeedUsers, 2)
	assert.Equal(t, "Alice", cfg.App.SeedUsers[0].Name)
	assert.Equal(t, "bob.k", cfg.App.SeedUsers[1].Username)
	assert.Equal(t, "activity.dlq", cfg.Kafka.TopicDLQ)

	_, err = Load(writeConfig(t, "app:\n  storage: memory\n  seed_users:\n    - name: nobody\njwt:\n  public_key_path: /k.pem\n"))
	assert.Error(t, err)
}

func TestLoadPoller(t *testing.T) {
	p, err := LoadPoller("")
	require.NoError(t, err)
	assert.Equal(t, PollerConfig{ConversationSecs: 3, ThreadListSecs: 5, NotificationsSecs: 30, UnreadCountSecs: 60}, p)

	p, err = LoadPoller(writeConfig(t, "poller:\n  conversation_seconds: 1\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, p.ConversationSecs)
	assert.Equal(t, 60, p.UnreadCountSecs)
}
