package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestGenerateCompletion(t *testing.T) {
	t.Parallel()
	methods := []string{"bfgs", "lm", "nelder-mead"}

	for _, shell := range []string{"bash", "zsh", "fish"} {
		t.Run(shell, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			if err := GenerateCompletion(&buf, shell, methods); err != nil {
				t.Fatalf("GenerateCompletion(%s) error = %v", shell, err)
			}
			got := buf.String()
			if !strings.Contains(got, "bfgs lm nelder-mead all") {
				t.Errorf("%s script lacks the method list", shell)
			}
			if !strings.Contains(got, "threshold-base") || strings.Contains(got, "%!") {
				t.Errorf("%s script is malformed", shell)
			}
		})
	}

	if err := GenerateCompletion(&bytes.Buffer{}, "powershell", methods); err == nil {
		t.Error("unsupported shell should fail")
	}
}
