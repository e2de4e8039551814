package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/daylog/internal/flagx"
	"github.com/dmitrijs2005/daylog/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "3s" or as integer nanoseconds.
type JsonConfig struct {
	Mode                string         `json:"mode"`
	ServerEndpointAddr  string         `json:"server_endpoint_addr"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	DatabasePath        string         `json:"database_path"`
	LLMAPIKey           string         `json:"llm_api_key"`
	LLMBaseURL          string         `json:"llm_base_url"`
	LLMModel            string         `json:"llm_model"`
	PollAttempts        int            `json:"poll_attempts"`
	PollInterval        timex.Duration `json:"poll_interval"`
	SnapshotTTL         timex.Duration `json:"snapshot_ttl"`
	LogLevel            string         `json:"log_level"`
}

// parseJson overlays Config with values loaded from the file named by
// -c/-config. Keys absent from the file keep their current values; read or
// unmarshal errors panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.Mode != "" {
		cfg.Mode = Mode(jc.Mode)
	}
	setString(&cfg.ServerEndpointAddr, jc.ServerEndpointAddr)
	setDuration(&cfg.OnlineCheckInterval, jc.OnlineCheckInterval)
	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.LLMAPIKey, jc.LLMAPIKey)
	setString(&cfg.LLMBaseURL, jc.LLMBaseURL)
	setString(&cfg.LLMModel, jc.LLMModel)
	if jc.PollAttempts > 0 {
		cfg.PollAttempts = jc.PollAttempts
	}
	setDuration(&cfg.PollInterval, jc.PollInterval)
	setDuration(&cfg.SnapshotTTL, jc.SnapshotTTL)
	setString(&cfg.LogLevel, jc.LogLevel)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration > 0 {
		*dst = v.Duration
	}
}
