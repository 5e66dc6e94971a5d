// Command cli is an interactive terminal client for a gophtodo server.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gophtodo/internal/client/cli"
	"github.com/dmitrijs2005/gophtodo/internal/client/config"
)

func main() {
	app, err := cli.NewApp(config.LoadConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "gophtodo-cli: %v\n", err)
		os.Exit(1)
	}

	app.Run(context.Background())
}
