package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/sgtrakt/internal/flagx"
	"github.com/dmitrijs2005/sgtrakt/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Every field is
// optional; absent fields keep the value already in Config.
type JsonConfig struct {
	ClientID            *string         `json:"client_id"`
	ClientSecret        *string         `json:"client_secret"`
	APIBaseURL          *string         `json:"api_base_url"`
	AuthBaseURL         *string         `json:"auth_base_url"`
	RedirectURI         *string         `json:"redirect_uri"`
	CallbackAddr        *string         `json:"callback_addr"`
	DatabasePath        *string         `json:"database_path"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`
	RequestTimeout      *timex.Duration `json:"request_timeout"`
	RateLimit           *float64        `json:"rate_limit"`
	RateBurst           *int            `json:"rate_burst"`
	TokenRefreshSpec    *string         `json:"token_refresh_spec"`
	TokenRefreshWindow  *timex.Duration `json:"token_refresh_window"`
	PendingTTL          *timex.Duration `json:"pending_ttl"`
	LogLevel            *string         `json:"log_level"`
	LogFormat           *string         `json:"log_format"`
}

// parseJson overlays Config with values loaded from the JSON file named by
// -c or -config. Without either flag it does nothing. Read or unmarshal
// errors panic.
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

	jc.apply(cfg)
}

func (jc *JsonConfig) apply(cfg *Config) {
	setString(&cfg.ClientID, jc.ClientID)
	setString(&cfg.ClientSecret, jc.ClientSecret)
	setString(&cfg.APIBaseURL, jc.APIBaseURL)
	setString(&cfg.AuthBaseURL, jc.AuthBaseURL)
	setString(&cfg.RedirectURI, jc.RedirectURI)
	setString(&cfg.CallbackAddr, jc.CallbackAddr)
	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.TokenRefreshSpec, jc.TokenRefreshSpec)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFormat, jc.LogFormat)

	if jc.OnlineCheckInterval != nil {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.TokenRefreshWindow != nil {
		cfg.TokenRefreshWindow = jc.TokenRefreshWindow.Duration
	}
	if jc.PendingTTL != nil {
		cfg.PendingTTL = jc.PendingTTL.Duration
	}
	if jc.RateLimit != nil {
		cfg.RateLimit = *jc.RateLimit
	}
	if jc.RateBurst != nil {
		cfg.RateBurst = *jc.RateBurst
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
