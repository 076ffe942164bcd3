package cli

import (
	"testing"

	"github.com/agbru/bassfit/internal/ui"
)

func TestCLIColorProvider(t *testing.T) {
	provider := CLIColorProvider{}

	ui.SetCurrentTheme(ui.DarkTheme)
	if provider.Yellow() == "" || provider.Reset() == "" {
		t.Error("colored theme should provide escape codes")
	}

	ui.InitTheme(true)
	if provider.Yellow() != "" || provider.Reset() != "" {
		t.Error("no-color theme should provide empty codes")
	}
}
