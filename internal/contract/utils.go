package contract

import (
	"fmt"
	"os"

	"github.com/anicka-net/ossuary/schema"
	"github.com/fatih/color"
)

// Color variables for console output.
var (
	CriticalColor = color.New(color.FgRed, color.Bold)     // standard danger
	HighColor     = color.New(color.FgMagenta, color.Bold) // strong, distinct warning
	ModerateColor = color.New(color.FgYellow)              // standard caution, not bold
	LowColor      = color.New(color.FgCyan)                // informational signal
)

// LogFatal logs an error and exits the program with the given code.
func LogFatal(msg string, err error, code int) {
	fmt.Fprintf(os.Stderr, "❌ %s: %v\n", msg, err)
	os.Exit(code)
}

// LogWarning logs a warning to stderr.
func LogWarning(msg string) {
	fmt.Fprintf(os.Stderr, "⚠️  %s\n", msg)
}

// GetPlainLabel returns the plain risk-level label for a score. This is the
// core logic used for JSON and table printing.
func GetPlainLabel(score int) string {
	return string(schema.LevelFromScore(score))
}

// GetColorLabel returns a colored risk-level label for console output.
func GetColorLabel(score int) string {
	text := GetPlainLabel(score)
	switch schema.LevelFromScore(score) {
	case schema.Critical:
		return CriticalColor.Sprint(text)
	case schema.High:
		return HighColor.Sprint(text)
	case schema.Moderate:
		return ModerateColor.Sprint(text)
	default:
		return LowColor.Sprint(text)
	}
}
