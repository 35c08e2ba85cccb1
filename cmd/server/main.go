// Command server runs the songsmith HTTP API: rhyme suggestions, categorized
// rhymes, theme research and songwriting completions.
//
// Configuration comes from CONFIG_PATH (default ./config.yaml) and the
// environment; a .env file in the working directory is loaded first when
// present. DEEPINFRA_API_KEY and PERPLEXITY_API_KEY are required.
//
// Exit codes: 0 = clean shutdown, 1 = error.
package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/heartmarshall/songsmith-backend/internal/app"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("load .env", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		slog.Error("server failed", slog.String("error", err.Error()))
		stop()
		os.Exit(1)
	}
}
