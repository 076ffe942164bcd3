// This file contains environment variable utilities for configuration override.
package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Environment Variable Utilities
// ─────────────────────────────────────────────────────────────────────────────

// getEnvString returns the value of EnvPrefix+key, or defaultVal if unset.
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvInt returns EnvPrefix+key parsed as int, or defaultVal if unset or
// invalid.
func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// getEnvFloat returns EnvPrefix+key parsed as float64, or defaultVal if
// unset or invalid.
func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// getEnvBool returns EnvPrefix+key parsed as bool, or defaultVal if unset.
// Accepts "true", "1", "yes" as true; "false", "0", "no" as false (case-insensitive).
func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		switch strings.ToLower(val) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
	}
	return defaultVal
}

// getEnvDuration returns EnvPrefix+key parsed as time.Duration, or
// defaultVal if unset or invalid. Accepts formats like "5m", "30s".
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// isFlagSet reports whether any of names was set on the command line.
func isFlagSet(fs *flag.FlagSet, names ...string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		for _, name := range names {
			if f.Name == name {
				found = true
			}
		}
	})
	return found
}

// applyEnvOverrides applies environment variable values to the configuration
// for any flags that were not explicitly set on the command line.
// This implements the priority: CLI flags > Environment variables > Defaults.
//
// Supported environment variables:
//   - BASSFIT_DATA: Observation series file (string)
//   - BASSFIT_START_YEAR: First year of the built-in series (int)
//   - BASSFIT_P0, BASSFIT_Q0, BASSFIT_M0: Initial guess (float)
//   - BASSFIT_MAX_ITER: Iteration budget (int)
//   - BASSFIT_METHOD: Fit method (string: lm, nelder-mead, bfgs, all)
//   - BASSFIT_THRESHOLD_BASE: Category threshold base (string: market, realized)
//   - BASSFIT_HORIZON: Forecast horizon in years (int)
//   - BASSFIT_AUTO_GUESS: Grid-search the initial guess (bool)
//   - BASSFIT_TIMEOUT: Analysis timeout (duration: "30s", "2m")
//   - BASSFIT_PORT: Port for server mode (string)
//   - BASSFIT_SERVER, BASSFIT_JSON, BASSFIT_DETAILS, BASSFIT_QUIET,
//     BASSFIT_NO_COLOR: Boolean switches (true/false, 1/0, yes/no)
//   - BASSFIT_OUTPUT: Output file path (string)
//   - BASSFIT_LOG_LEVEL: Diagnostic log level (string)
func applyEnvOverrides(config *AppConfig, fs *flag.FlagSet) {
	applyNumericOverrides(config, fs)
	applyDurationOverrides(config, fs)
	applyStringOverrides(config, fs)
	applyBooleanOverrides(config, fs)
}

func applyNumericOverrides(config *AppConfig, fs *flag.FlagSet) {
	if !isFlagSet(fs, "start-year") {
		config.StartYear = getEnvInt("START_YEAR", config.StartYear)
	}
	if !isFlagSet(fs, "p0") {
		config.P0 = getEnvFloat("P0", config.P0)
	}
	if !isFlagSet(fs, "q0") {
		config.Q0 = getEnvFloat("Q0", config.Q0)
	}
	if !isFlagSet(fs, "m0") {
		config.M0 = getEnvFloat("M0", config.M0)
	}
	if !isFlagSet(fs, "max-iter") {
		config.MaxIterations = getEnvInt("MAX_ITER", config.MaxIterations)
	}
	if !isFlagSet(fs, "horizon") {
		config.Horizon = getEnvInt("HORIZON", config.Horizon)
	}
}

func applyDurationOverrides(config *AppConfig, fs *flag.FlagSet) {
	if !isFlagSet(fs, "timeout") {
		config.Timeout = getEnvDuration("TIMEOUT", config.Timeout)
	}
}

func applyStringOverrides(config *AppConfig, fs *flag.FlagSet) {
	if !isFlagSet(fs, "data") {
		config.DataFile = getEnvString("DATA", config.DataFile)
	}
	if !isFlagSet(fs, "method") {
		config.Method = getEnvString("METHOD", config.Method)
	}
	if !isFlagSet(fs, "threshold-base") {
		config.ThresholdBase = getEnvString("THRESHOLD_BASE", config.ThresholdBase)
	}
	if !isFlagSet(fs, "port") {
		config.Port = getEnvString("PORT", config.Port)
	}
	if !isFlagSet(fs, "output", "o") {
		config.OutputFile = getEnvString("OUTPUT", config.OutputFile)
	}
	if !isFlagSet(fs, "log-level") {
		config.LogLevel = getEnvString("LOG_LEVEL", config.LogLevel)
	}
}

func applyBooleanOverrides(config *AppConfig, fs *flag.FlagSet) {
	if !isFlagSet(fs, "server") {
		config.ServerMode = getEnvBool("SERVER", config.ServerMode)
	}
	if !isFlagSet(fs, "json") {
		config.JSONOutput = getEnvBool("JSON", config.JSONOutput)
	}
	if !isFlagSet(fs, "d", "details") {
		config.Details = getEnvBool("DETAILS", config.Details)
	}
	if !isFlagSet(fs, "quiet", "q") {
		config.Quiet = getEnvBool("QUIET", config.Quiet)
	}
	if !isFlagSet(fs, "no-color") {
		config.NoColor = getEnvBool("NO_COLOR", config.NoColor)
	}
	if !isFlagSet(fs, "auto-guess") {
		config.AutoGuess = getEnvBool("AUTO_GUESS", config.AutoGuess)
	}
}
