//go:generate swag init --dir ../../ --generalInfo internal/auth/http/router.go --output ../../api/auth --outputTypes go --parseDependency

// Command auth runs the CVision account service.
package main

import (
	"log/slog"
	"os"

	"github.com/aussiebroadwan/cvision/internal/auth/app"
)

func main() {
	application, err := app.New(app.LoadConfig())
	if err != nil {
		slog.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}
