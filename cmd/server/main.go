// Command server runs the gophtodo REST and MCP endpoints.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gophtodo/internal/server"
	"github.com/dmitrijs2005/gophtodo/internal/server/config"
)

// Overridden with -ldflags "-X main.buildVersion=...".
var buildVersion = "dev"

func main() {
	server.Version = buildVersion

	app, err := server.NewApp(context.Background(), config.LoadConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "gophtodo: %v\n", err)
		os.Exit(1)
	}

	app.Run(context.Background())
}
