// Package cmd implements the capg CLI commands.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/subcommands"

	"github.com/etnz/capgains"
	"github.com/etnz/capgains/fx"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&reportCmd{}, "reports")
	c.Register(&fxCmd{}, "rates")
	c.Register(&topicCmd{}, "documentation")
}

// DecodeEventsFile reads a full JSONL event stream from a file.
func DecodeEventsFile(filename string) ([]capgains.Event, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("could not open events file: %w", err)
	}
	defer f.Close()

	events, err := capgains.DecodeEvents(f)
	if err != nil {
		return nil, fmt.Errorf("could not decode events file %q: %w", filename, err)
	}
	return events, nil
}

// DecodeRatesFile reads an FX table, picking the decoder from the file
// extension: .json for the EUR time-series document, anything else for CSV.
func DecodeRatesFile(filename string) (*fx.Table, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("could not open FX table: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(filename), ".json") {
		return fx.DecodeJSON(f)
	}
	return fx.DecodeCSV(f)
}
