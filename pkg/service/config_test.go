package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	config, err := ValidateConfig(DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, time.Minute, config.Sweeper.Interval)
	assert.Equal(t, DefaultCollection, config.Storage.Collection)
	assert.Equal(t, DefaultIcon, config.Notifications.Icon)
}

func TestParseConfig_TOML(t *testing.T) {
	doc := `
[sweeper]
interval = "30s"
concurrency = 2

[storage]
driver = "firestore"

[storage.firestore]
project_id = "lapse-prod"

[messaging.identity]
api_key = "key"
sender_id = "sender"
app_id = "app"
project_id = "lapse-prod"
`
	config, err := ParseConfig(strings.NewReader(doc), "toml")
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, config.Sweeper.Interval)
	assert.Equal(t, 2, config.Sweeper.Concurrency)
	assert.Equal(t, StorageDriverFirestore, config.Storage.Driver)
	assert.Equal(t, "lapse-prod", config.Storage.Firestore.ProjectID)
	assert.NoError(t, config.Messaging.Identity.Validate())
	// untouched sections keep defaults
	assert.Equal(t, DefaultCollection, config.Storage.Collection)
	assert.Equal(t, HubDriverLocal, config.Hub.Driver)
}

func TestParseConfig_YAML(t *testing.T) {
	doc := `
log:
  level: debug
  formatter: json
hub:
  driver: nats
  nats:
    url: nats://queue:4222
receiver:
  upstream: http://localhost:3000
notifications:
  display: desktop
  icon: /icon.png
`
	config, err := ParseConfig(strings.NewReader(doc), "yaml")
	require.NoError(t, err)

	assert.Equal(t, "debug", config.Log.Level)
	assert.Equal(t, HubDriverNATS, config.Hub.Driver)
	assert.Equal(t, "nats://queue:4222", config.Hub.NATS.URL)
	assert.Equal(t, "test-cluster", config.Hub.NATS.ClusterID)
	assert.Equal(t, DisplayDesktop, config.Notifications.Display)
	assert.Equal(t, "/icon.png", config.Notifications.Icon)
	assert.Equal(t, "http://localhost:3000", config.Receiver.Upstream)
	assert.Equal(t, DefaultInboxSize, config.Receiver.InboxSize)
}

func TestParseConfig_EnvOverrides(t *testing.T) {
	t.Setenv("LAPSE_HTTP_ADDR", ":9999")

	config, err := ParseConfig(strings.NewReader(""), "toml")
	require.NoError(t, err)
	assert.Equal(t, ":9999", config.HTTP.Addr)
}

func TestParseConfig_UnknownFormat(t *testing.T) {
	_, err := ParseConfig(strings.NewReader(""), "ini")
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"storage driver", func(c *Config) { c.Storage.Driver = "postgres" }},
		{"hub driver", func(c *Config) { c.Hub.Driver = "kafka" }},
		{"display", func(c *Config) { c.Notifications.Display = "sms" }},
		{"interval", func(c *Config) { c.Sweeper.Interval = 0 }},
		{"concurrency", func(c *Config) { c.Sweeper.Concurrency = -1 }},
		{"collection", func(c *Config) { c.Storage.Collection = "" }},
		{"inbox size", func(c *Config) { c.Receiver.InboxSize = 0 }},
		{"relative upstream", func(c *Config) { c.Receiver.Upstream = "/app" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			_, err := ValidateConfig(config)
			assert.Error(t, err)
		})
	}
}
