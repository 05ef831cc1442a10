// Command diskwatch is the CLI entry point for the local disk intelligence
// and cleanup engine.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/diskwatch/diskwatch/cli"
	"github.com/diskwatch/diskwatch/internal/applog"
)

func main() {
	logger, err := zap.NewProduction()
	if err == nil {
		applog.Configure(logger)
		defer logger.Sync() //nolint:errcheck
	}

	if err := cli.Run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "diskwatch:", err)
		os.Exit(1)
	}
}
