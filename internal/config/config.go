// Package config holds the runtime configuration shared by all chute
// process roles. Values resolve in three layers: built-in defaults,
// then an optional JSON file, then CHUTE_* environment variables.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/chute-dev/chute/internal/queue"
	"github.com/chute-dev/chute/pkg/log"
)

// Config is the top-level configuration for a pipeline run.
type Config struct {
	// Endpoint is the base URL workers use to reach the broker. Empty
	// means derive it from Broker.ListenAddr.
	Endpoint string `json:"endpoint"`

	Broker     BrokerConfig     `json:"broker"`
	Producer   ProducerConfig   `json:"producer"`
	Consumer   ConsumerConfig   `json:"consumer"`
	Supervisor SupervisorConfig `json:"supervisor"`
	Log        log.Config       `json:"log"`
}

// BrokerConfig controls the queue-owning process.
type BrokerConfig struct {
	// ListenAddr is the host:port the broker's HTTP API binds.
	ListenAddr string `json:"listen_addr" split_words:"true"`
	// Capacity bounds the queue; 0 keeps it unbounded.
	Capacity int `json:"capacity"`
	// FullPolicy is "block" or "reject"; only meaningful with a bound.
	FullPolicy string `json:"full_policy" split_words:"true"`
}

// ProducerConfig controls the producing worker.
type ProducerConfig struct {
	// Count is the number of items to produce; 0 produces until the
	// run is interrupted.
	Count int `json:"count"`
	// IntervalMs pauses between puts. 0 runs flat out.
	IntervalMs int64 `json:"interval_ms" split_words:"true"`
}

// ConsumerConfig controls the consuming worker.
type ConsumerConfig struct {
	// WaitMs is the long-poll window for one blocking get.
	WaitMs int64 `json:"wait_ms" split_words:"true"`
}

// SupervisorConfig controls process orchestration.
type SupervisorConfig struct {
	// PollMs is the tick of the supervisor's wait loop.
	PollMs int64 `json:"poll_ms" split_words:"true"`
	// StartTimeoutMs bounds the wait for the broker to become ready.
	StartTimeoutMs int64 `json:"start_timeout_ms" split_words:"true"`
	// Drain controls whether shutdown closes intake and lets the
	// consumer finish the backlog before the broker exits.
	Drain bool `json:"drain"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		Broker: BrokerConfig{
			ListenAddr: "127.0.0.1:7381",
			Capacity:   0,
			FullPolicy: "block",
		},
		Producer: ProducerConfig{
			Count:      0,
			IntervalMs: 0,
		},
		Consumer: ConsumerConfig{
			WaitMs: 5000,
		},
		Supervisor: SupervisorConfig{
			PollMs:         2000,
			StartTimeoutMs: 5000,
			Drain:          true,
		},
		Log: log.Config{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from a JSON file layered over defaults. An
// empty path returns defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := json.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// BrokerEndpoint returns the base URL workers should dial.
func (c Config) BrokerEndpoint() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return "http://" + c.Broker.ListenAddr
}

// Validate checks cross-field constraints after all layers applied.
func (c Config) Validate() error {
	if c.Broker.ListenAddr == "" {
		return fmt.Errorf("broker.listen_addr must not be empty")
	}
	if c.Broker.Capacity < 0 {
		return fmt.Errorf("broker.capacity must be >= 0, got %d", c.Broker.Capacity)
	}
	if _, err := queue.ParsePolicy(c.Broker.FullPolicy); err != nil {
		return fmt.Errorf("broker.full_policy: %w", err)
	}
	if c.Producer.Count < 0 {
		return fmt.Errorf("producer.count must be >= 0, got %d", c.Producer.Count)
	}
	if c.Producer.IntervalMs < 0 {
		return fmt.Errorf("producer.interval_ms must be >= 0, got %d", c.Producer.IntervalMs)
	}
	if c.Consumer.WaitMs <= 0 {
		return fmt.Errorf("consumer.wait_ms must be > 0, got %d", c.Consumer.WaitMs)
	}
	if c.Supervisor.PollMs <= 0 {
		return fmt.Errorf("supervisor.poll_ms must be > 0, got %d", c.Supervisor.PollMs)
	}
	if c.Supervisor.StartTimeoutMs <= 0 {
		return fmt.Errorf("supervisor.start_timeout_ms must be > 0, got %d", c.Supervisor.StartTimeoutMs)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}
