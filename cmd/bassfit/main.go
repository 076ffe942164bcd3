// Command bassfit fits the Bass diffusion model to a yearly adoption series,
// forecasts cumulative and new adopters, and splits the predicted adopters
// into Rogers' five adopter categories.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/agbru/bassfit/internal/app"
	apperrors "github.com/agbru/bassfit/internal/errors"
)

func main() {
	if app.HasVersionFlag(os.Args[1:]) {
		app.PrintVersion(os.Stdout)
		os.Exit(apperrors.ExitSuccess)
	}

	application, err := app.New(os.Args, os.Stderr)
	if err != nil {
		if app.IsHelpError(err) {
			os.Exit(apperrors.ExitSuccess)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(apperrors.ExitCodeFor(err))
	}

	os.Exit(application.Run(context.Background(), os.Stdout))
}
