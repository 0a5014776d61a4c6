package main

import (
	"os"

	"github.com/fatih/color"
)

func ok(format string, a ...any)   { color.New(color.FgGreen).Fprintf(os.Stdout, format+"\n", a...) }
func warn(format string, a ...any) { color.New(color.FgYellow).Fprintf(os.Stderr, format+"\n", a...) }
func die(format string, a ...any) {
	color.New(color.FgRed).Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// statusColor picks a color for a status kind string ("OK", "CYCLE_ERROR", ...).
func statusColor(kind string) *color.Color {
	if kind == "OK" {
		return color.New(color.FgGreen)
	}
	return color.New(color.FgRed)
}
