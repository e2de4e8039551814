// Package config loads runtime configuration for the daylog CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Environment: DAYLOG_LLM_API_KEY or ZHIPU_API_KEY for the LLM key.
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// # JSON schema
//
// Intervals use timex.Duration, so values can be either strings like "3s"
// or integer nanoseconds:
//
//	{
//	  "mode": "remote",
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "online_check_interval": "3s",
//	  "database_path": "daylog.db",
//	  "poll_attempts": 20,
//	  "poll_interval": "3s",
//	  "snapshot_ttl": "5m"
//	}
package config
