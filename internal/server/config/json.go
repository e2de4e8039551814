package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/daylog/internal/flagx"
	"github.com/dmitrijs2005/daylog/internal/timex"
)

// JsonConfig is the on-disk shape of the server configuration file. Interval
// fields use timex.Duration so both "1m" and integer nanoseconds parse.
type JsonConfig struct {
	EndpointAddrGRPC            string         `json:"endpoint_addr_grpc"`
	MetricsAddr                 string         `json:"metrics_addr"`
	DatabaseDSN                 string         `json:"database_dsn"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	S3RootUser                  string         `json:"s3_root_user"`
	S3RootPassword              string         `json:"s3_root_password"`
	S3Bucket                    string         `json:"s3_bucket"`
	S3Region                    string         `json:"s3_region"`
	S3BaseEndpoint              string         `json:"s3_base_endpoint"`
	LLMAPIKey                   string         `json:"llm_api_key"`
	LLMBaseURL                  string         `json:"llm_base_url"`
	LLMModel                    string         `json:"llm_model"`
	EnrichWorkers               int            `json:"enrich_workers"`
	LogLevel                    string         `json:"log_level"`
}

// parseJson loads the file named by -c/-config into config. Keys that are
// absent from the file keep their current values. An unreadable file or
// invalid JSON panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.MetricsAddr, c.MetricsAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	if c.AccessTokenValidityDuration.Duration > 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.LLMAPIKey, c.LLMAPIKey)
	setString(&config.LLMBaseURL, c.LLMBaseURL)
	setString(&config.LLMModel, c.LLMModel)
	if c.EnrichWorkers > 0 {
		config.EnrichWorkers = c.EnrichWorkers
	}
	setString(&config.LogLevel, c.LogLevel)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
