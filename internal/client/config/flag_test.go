package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withArgs(t *testing.T, args ...string) {
	t.Helper()
	orig := os.Args
	t.Cleanup(func() { os.Args = orig })
	os.Args = append([]string{"sgtrakt"}, args...)
}

func TestParseFlags_Overrides(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want Config
	}{
		{
			name: "api and client",
			args: []string{"-a", "http://127.0.0.1:9090", "-k", "abc", "-i", "10", "-t", "5"},
			want: Config{
				APIBaseURL:          "http://127.0.0.1:9090",
				ClientID:            "abc",
				OnlineCheckInterval: 10 * time.Second,
				RequestTimeout:      5 * time.Second,
			},
		},
		{
			name: "listener, database and verbosity",
			args: []string{"-l", "127.0.0.1:9999", "-d", "/tmp/sgtrakt.db", "-v", "debug"},
			want: Config{CallbackAddr: "127.0.0.1:9999", DatabasePath: "/tmp/sgtrakt.db", LogLevel: "debug"},
		},
		{
			name: "config file flag is left for the json loader",
			args: []string{"-c", "/etc/sgtrakt.json", "-k", "from-flag"},
			want: Config{ClientID: "from-flag"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withArgs(t, tt.args...)

			var got Config
			require.NotPanics(t, func() { parseFlags(&got) })
			assert.Empty(t, cmp.Diff(tt.want, got))
		})
	}
}

func TestParseFlags_KeepsPriorValues(t *testing.T) {
	withArgs(t, "-v", "warn")

	cfg := Config{
		ClientID:            "from-env",
		OnlineCheckInterval: 30 * time.Second,
		RequestTimeout:      15 * time.Second,
	}
	parseFlags(&cfg)

	assert.Equal(t, "from-env", cfg.ClientID)
	assert.Equal(t, 30*time.Second, cfg.OnlineCheckInterval)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestParseFlags_BadIntervalPanics(t *testing.T) {
	withArgs(t, "-i", "often")

	assert.Panics(t, func() { parseFlags(&Config{}) })
}
