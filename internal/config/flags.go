package config

import (
	"flag"
	"os"

	"github.com/snapvault/widgetsync/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the backend API (default from Config)
//	-t string   bearer token for the backend API
//	-r int      refresh interval in hours (default from Config)
//	-d string   data directory for the state database
//	-i string   image cache directory
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-t", "-r", "-d", "-i"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.APIBaseURL, "a", cfg.APIBaseURL, "base URL of the backend API")
	fs.StringVar(&cfg.APIToken, "t", cfg.APIToken, "bearer token for the backend API")
	fs.IntVar(&cfg.RefreshIntervalHours, "r", cfg.RefreshIntervalHours, "refresh interval (in hours)")
	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "data directory for the state database")
	fs.StringVar(&cfg.CacheDir, "i", cfg.CacheDir, "image cache directory")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
