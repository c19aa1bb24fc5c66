// Package config loads runtime configuration for the sgtrakt CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. SGT_* environment variables.
//  4. Command-line flags, which override everything else.
//
// Supported flags
//
//	-a string   trakt API base URL
//	-k string   trakt client id
//	-l string   callback listener address
//	-d string   database path
//	-i int      online status check interval (seconds)
//	-t int      request timeout (seconds)
//	-v string   log level
//
// # JSON schema
//
// Durations are timex.Duration values, so "3s" and integer nanoseconds both
// work:
//
//	{
//	  "client_id": "...",
//	  "client_secret": "...",
//	  "redirect_uri": "http://127.0.0.1:8765/callback",
//	  "online_check_interval": "30s",
//	  "token_refresh_spec": "@every 1h"
//	}
package config
