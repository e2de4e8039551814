package config

import (
	"time"

	"github.com/dmitrijs2005/daylog/internal/client/engine"
	"github.com/dmitrijs2005/daylog/internal/flagx"
	"github.com/dmitrijs2005/daylog/internal/summarizer"
)

// Mode selects the record store behind the engine.
type Mode string

const (
	// ModeLocal keeps records in the SQLite file and summarises in-process.
	ModeLocal Mode = "local"
	// ModeRemote forwards records to the daylog server, which summarises them.
	ModeRemote Mode = "remote"
)

// Config holds runtime settings for the daylog CLI.
//
// Fields:
//   - Mode: local or remote.
//   - ServerEndpointAddr: host:port of the backend gRPC endpoint (remote mode).
//   - OnlineCheckInterval: how often the client probes server reachability.
//   - DatabasePath: SQLite file holding local records, the session token and
//     month snapshots.
//   - LLMAPIKey / LLMBaseURL / LLMModel: chat-completion endpoint used in
//     local mode; without a key summaries come from the offline summarizer.
//   - PollAttempts / PollInterval: how long to wait for a server-side summary.
//   - SnapshotTTL: how long a persisted month listing counts as fresh.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	Mode                Mode
	ServerEndpointAddr  string
	OnlineCheckInterval time.Duration
	DatabasePath        string
	LLMAPIKey           string
	LLMBaseURL          string
	LLMModel            string
	PollAttempts        int
	PollInterval        time.Duration
	SnapshotTTL         time.Duration
	LogLevel            string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.Mode = ModeLocal
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.OnlineCheckInterval = 3 * time.Second
	c.DatabasePath = "daylog.db"
	c.LLMBaseURL = summarizer.DefaultBaseURL
	c.LLMModel = summarizer.DefaultModel
	c.PollAttempts = engine.DefaultPollAttempts
	c.PollInterval = engine.DefaultPollInterval
	c.SnapshotTTL = engine.DefaultSnapshotTTL
	c.LogLevel = "warn"
}

func (c *Config) Remote() bool {
	return c.Mode == ModeRemote
}

// Summarizer returns the generator settings derived from c.
func (c *Config) Summarizer() summarizer.Config {
	return summarizer.Config{
		APIKey:  c.LLMAPIKey,
		BaseURL: c.LLMBaseURL,
		Model:   c.LLMModel,
	}
}

// Engine returns the engine tuning derived from c.
func (c *Config) Engine() engine.Config {
	return engine.Config{
		PollAttempts: c.PollAttempts,
		PollInterval: c.PollInterval,
		SnapshotTTL:  c.SnapshotTTL,
	}
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), the environment and command-line flags. Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}

func parseEnv(cfg *Config) {
	flagx.EnvString(&cfg.LLMAPIKey, "DAYLOG_LLM_API_KEY", "ZHIPU_API_KEY")
}
