package service

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env"
	"gopkg.in/yaml.v2"
)

const (
	StorageDriverMemory    = "memory"
	StorageDriverFirestore = "firestore"

	HubDriverLocal = "local"
	HubDriverNATS  = "nats"

	DisplayLog     = "log"
	DisplayDesktop = "desktop"
)

type Config struct {
	Log struct {
		Level     string                 `yaml:"level" toml:"level" env:"LAPSE_LOG_LEVEL"`
		Formatter string                 `yaml:"formatter" toml:"formatter" env:"LAPSE_LOG_FORMAT"`
		Fields    map[string]interface{} `yaml:"fields" toml:"fields"`
	} `yaml:"log" toml:"log"`

	HTTP struct {
		Enabled bool   `yaml:"enabled" toml:"enabled" env:"LAPSE_HTTP_ENABLED"`
		Addr    string `yaml:"addr" toml:"addr" env:"LAPSE_HTTP_ADDR"`
	} `yaml:"http" toml:"http"`

	Sweeper struct {
		Interval    time.Duration `yaml:"interval" toml:"interval" env:"LAPSE_SWEEP_INTERVAL"`
		Warmup      time.Duration `yaml:"warmup" toml:"warmup" env:"LAPSE_SWEEP_WARMUP"`
		Concurrency int           `yaml:"concurrency" toml:"concurrency" env:"LAPSE_SWEEP_CONCURRENCY"`
	} `yaml:"sweeper" toml:"sweeper"`

	Storage struct {
		Driver     string `yaml:"driver" toml:"driver" env:"LAPSE_STORAGE"`
		Collection string `yaml:"collection" toml:"collection" env:"LAPSE_STORAGE_COLLECTION"`

		Firestore struct {
			ProjectID       string `yaml:"project_id" toml:"project_id" env:"LAPSE_FIRESTORE_PROJECT"`
			CredentialsFile string `yaml:"credentials_file" toml:"credentials_file" env:"LAPSE_FIRESTORE_CREDENTIALS"`
		} `yaml:"firestore" toml:"firestore"`
	} `yaml:"storage" toml:"storage"`

	Hub struct {
		Driver string `yaml:"driver" toml:"driver" env:"LAPSE_HUB"`

		NATS struct {
			URL       string `yaml:"url" toml:"url" env:"LAPSE_NATS_URL"`
			ClusterID string `yaml:"cluster_id" toml:"cluster_id" env:"LAPSE_NATS_CLUSTER"`
			ClientID  string `yaml:"client_id" toml:"client_id" env:"LAPSE_NATS_CLIENT"`
			Durable   string `yaml:"durable" toml:"durable" env:"LAPSE_NATS_DURABLE"`
		} `yaml:"nats" toml:"nats"`
	} `yaml:"hub" toml:"hub"`

	Messaging struct {
		Topic    string      `yaml:"topic" toml:"topic" env:"LAPSE_MESSAGING_TOPIC"`
		Identity AppIdentity `yaml:"identity" toml:"identity"`
	} `yaml:"messaging" toml:"messaging"`

	Receiver struct {
		Addr      string `yaml:"addr" toml:"addr" env:"LAPSE_RECEIVER_ADDR"`
		Upstream  string `yaml:"upstream" toml:"upstream" env:"LAPSE_RECEIVER_UPSTREAM"`
		InboxSize int    `yaml:"inbox_size" toml:"inbox_size" env:"LAPSE_RECEIVER_INBOX"`
	} `yaml:"receiver" toml:"receiver"`

	Notifications struct {
		Display      string `yaml:"display" toml:"display" env:"LAPSE_NOTIFY_DISPLAY"`
		Icon         string `yaml:"icon" toml:"icon" env:"LAPSE_NOTIFY_ICON"`
		DefaultTitle string `yaml:"default_title" toml:"default_title"`
		DefaultBody  string `yaml:"default_body" toml:"default_body"`
	} `yaml:"notifications" toml:"notifications"`
}

func DefaultConfig() *Config {
	config := &Config{}
	config.Log.Level = "info"
	config.Log.Formatter = "text"
	config.HTTP.Enabled = true
	config.HTTP.Addr = ":8889"
	config.Sweeper.Interval = time.Minute
	config.Sweeper.Warmup = 0
	config.Sweeper.Concurrency = 8
	config.Storage.Driver = StorageDriverMemory
	config.Storage.Collection = DefaultCollection
	config.Hub.Driver = HubDriverLocal
	config.Hub.NATS.URL = "nats://127.0.0.1:4222"
	config.Hub.NATS.ClusterID = "test-cluster"
	config.Hub.NATS.ClientID = "lapse"
	config.Messaging.Topic = DefaultMessagingTopic
	config.Receiver.Addr = ":8890"
	config.Receiver.InboxSize = DefaultInboxSize
	config.Notifications.Display = DisplayLog
	config.Notifications.Icon = DefaultIcon
	config.Notifications.DefaultTitle = DefaultTitle
	config.Notifications.DefaultBody = DefaultBody
	return config
}

// ResolveConfig determines the application's config location and loads it.
func ResolveConfig(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = os.Getenv("LAPSE_CONFIG_PATH")
	}

	if configPath == "" {
		config := DefaultConfig()
		if err := applyEnv(config); err != nil {
			return nil, fmt.Errorf("configuration: %w", err)
		}

		return ValidateConfig(config)
	}

	fp, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("configuration: %w", err)
	}

	defer fp.Close()
	config, err := ParseConfig(fp, strings.TrimPrefix(path.Ext(configPath), "."))
	if err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", configPath, err)
	}

	return ValidateConfig(config)
}

// ValidateConfig determines if the configuration is prepared correctly and valid to use.
func ValidateConfig(config *Config) (*Config, error) {
	switch config.Storage.Driver {
	case StorageDriverMemory, StorageDriverFirestore:
	default:
		return nil, fmt.Errorf("unknown storage driver %q", config.Storage.Driver)
	}

	switch config.Hub.Driver {
	case HubDriverLocal, HubDriverNATS:
	default:
		return nil, fmt.Errorf("unknown hub driver %q", config.Hub.Driver)
	}

	switch config.Notifications.Display {
	case DisplayLog, DisplayDesktop:
	default:
		return nil, fmt.Errorf("unknown notification display %q", config.Notifications.Display)
	}

	if config.Sweeper.Interval <= 0 {
		return nil, errors.New("sweeper interval must be positive")
	}

	if config.Sweeper.Concurrency <= 0 {
		return nil, errors.New("sweeper concurrency must be positive")
	}

	if config.Storage.Collection == "" {
		return nil, errors.New("storage collection is required")
	}

	if config.Receiver.InboxSize <= 0 {
		return nil, errors.New("receiver inbox size must be positive")
	}

	if config.Receiver.Upstream != "" {
		u, err := url.Parse(config.Receiver.Upstream)
		if err != nil {
			return nil, fmt.Errorf("receiver upstream: %w", err)
		} else if u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("receiver upstream %q must be an absolute url", config.Receiver.Upstream)
		}
	}

	return config, nil
}

// ParseConfig loads and parses the configuration from a reader. Values
// missing from the document keep their defaults.
func ParseConfig(rd io.Reader, parser string) (*Config, error) {
	in, err := io.ReadAll(rd)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	switch parser {
	case "yml", "yaml":
		if err := yaml.Unmarshal(in, config); err != nil {
			return nil, err
		}

	case "toml", "":
		if _, err := toml.Decode(string(in), config); err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("unsupported config format %q", parser)
	}

	if err := applyEnv(config); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnv overlays environment variables. env only descends into pointer
// fields, so each nested section is parsed on its own.
func applyEnv(config *Config) error {
	sections := []interface{}{
		&config.Log,
		&config.HTTP,
		&config.Sweeper,
		&config.Storage,
		&config.Storage.Firestore,
		&config.Hub,
		&config.Hub.NATS,
		&config.Messaging,
		&config.Messaging.Identity,
		&config.Receiver,
		&config.Notifications,
	}

	for _, section := range sections {
		if err := env.Parse(section); err != nil {
			return err
		}
	}

	return nil
}
