package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/gophtodo/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
//	-a string   server base URL
//	-w int      request timeout (in seconds)
func parseFlags(cfg *Config, argv []string) {
	args := flagx.FilterArgs(argv, []string{"-a", "-w"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "gophtodo server URL")
	timeout := fs.Int("w", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
}
