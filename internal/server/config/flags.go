package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/gophtodo/internal/flagx"
)

var knownFlags = []string{
	"-a", "-d", "-s", "-t", "-k", "-m", "-o", "-i", "-l", "-n",
	"-u", "-p", "-b", "-g", "-e", "-v",
}

// parseFlags overlays Config with short command-line flags.
//
//	-a string   HTTP bind address (":8080")
//	-d string   PostgreSQL DSN, or "memory"
//	-s string   token HMAC secret
//	-t int      token validity, minutes
//	-k string   OpenAI API key
//	-m string   model name
//	-o string   OpenAI-compatible base URL
//	-i int      agent iteration cap
//	-l int      agent context size (transcript entries)
//	-n int      history endpoint size
//	-u -p -b -g -e  S3 user, password, bucket, region, endpoint
//	-v string   log level
//
// Unknown flags are ignored so other components can share os.Args.
// A malformed value panics.
func parseFlags(config *Config, argv []string) {
	args := flagx.FilterArgs(argv, knownFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	tokenTTL := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")

	fs.StringVar(&config.OpenAIAPIKey, "k", config.OpenAIAPIKey, "OpenAI API key")
	fs.StringVar(&config.OpenAIModel, "m", config.OpenAIModel, "chat model")
	fs.StringVar(&config.OpenAIBaseURL, "o", config.OpenAIBaseURL, "OpenAI-compatible base URL")
	fs.IntVar(&config.AgentMaxIterations, "i", config.AgentMaxIterations, "agent max iterations")
	fs.IntVar(&config.AgentHistoryLimit, "l", config.AgentHistoryLimit, "agent history limit")
	fs.IntVar(&config.HistoryLimit, "n", config.HistoryLimit, "chat history limit")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.LogLevel, "v", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*tokenTTL) * time.Minute
}
