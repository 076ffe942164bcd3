// Package testutil holds helpers shared by the package tests.
package testutil

import "regexp"

// ansiRegex matches CSI escape sequences such as colors and underlines.
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// StripAnsiCodes removes terminal escape sequences so tests can compare the
// visible text of colored CLI output.
func StripAnsiCodes(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}
