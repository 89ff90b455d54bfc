package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vk/tunerun/internal/app"
	"github.com/vk/tunerun/internal/cli"
)

// main is the entrypoint for the tunerun application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Stdout, os.Args[1:], os.LookupEnv)
	stop()

	// The real main function handles errors and exit codes.
	if err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error
// handling. The installation root is read here and nowhere else.
func run(ctx context.Context, outW io.Writer, args []string, lookupEnv func(string) (string, bool)) error {
	joshuaRoot, ok := lookupEnv("JOSHUA")
	if !ok || joshuaRoot == "" {
		return &cli.ExitError{Code: 2, Message: "ERROR: The JOSHUA environment variable must be defined."}
	}

	appConfig, shouldExit, err := cli.Parse(args, outW, joshuaRoot)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	_, err = app.NewApp(outW, appConfig).Run(ctx)
	return err
}
