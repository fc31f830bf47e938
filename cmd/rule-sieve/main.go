package main

import (
	"os"

	"github.com/bethropolis/rule-sieve/internal/app"
	"github.com/bethropolis/rule-sieve/internal/config"
)

func main() {
	// Load configuration from command-line flags
	cfg := config.New()

	// Create and run the application
	application := app.New(cfg)

	// Run the application
	code := application.Run()

	// Close output file if one was opened
	if cfg.OutputFile != "" {
		if f, ok := application.Output.(*os.File); ok {
			f.Close()
		}
	}

	os.Exit(code)
}
