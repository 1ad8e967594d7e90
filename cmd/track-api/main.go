package main

import (
	"context"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	app := mustBootstrapTrackAPI()
	defer app.Close()

	if err := app.Run(); err != nil && !errors.Is(err, context.Canceled) {
		app.log.Error("track-api stopped", "error", err.Error())
		panic(err)
	}
}
