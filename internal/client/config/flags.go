package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/sgtrakt/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
//	-a string   trakt API base URL
//	-k string   trakt client id
//	-l string   callback listener address
//	-d string   database path
//	-i int      online check interval in seconds
//	-t int      request timeout in seconds
//	-v string   log level
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-k", "-l", "-d", "-i", "-t", "-v"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.APIBaseURL, "a", cfg.APIBaseURL, "trakt API base URL")
	fs.StringVar(&cfg.ClientID, "k", cfg.ClientID, "trakt client id")
	fs.StringVar(&cfg.CallbackAddr, "l", cfg.CallbackAddr, "address for the OAuth callback listener")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path to the local database")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	requestTimeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.StringVar(&cfg.LogLevel, "v", cfg.LogLevel, "log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// Only flags given on the command line replace durations, so sub-second
	// values from JSON or env survive.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "i":
			cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
		case "t":
			cfg.RequestTimeout = time.Duration(*requestTimeout) * time.Second
		}
	})
}
