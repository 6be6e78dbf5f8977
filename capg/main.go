package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"

	"github.com/etnz/capgains/cmd"
)

func main() {
	// Shell completion runs (and exits) before any real work.
	(&complete.Command{
		Sub: map[string]*complete.Command{
			"report": {Flags: map[string]complete.Predictor{
				"year":      predict.Nothing,
				"events":    predict.Files("*.jsonl"),
				"fx":        predict.Files("*"),
				"fix-gaps":  predict.Nothing,
				"tolerance": predict.Nothing,
			}},
			"fx": {
				Flags: map[string]complete.Predictor{
					"fx": predict.Files("*"),
					"on": predict.Nothing,
				},
				Args: predict.Set{"USD", "GBP", "CHF", "JPY"},
			},
			"topic": {Args: predict.Set{"report", "fx-table", "gaps", "readme", "*"}},
			"help":  {},
		},
	}).Complete("capg")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	cmd.Register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
