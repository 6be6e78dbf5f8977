package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/etnz/capgains"
	"github.com/etnz/capgains/renderer"
)

// reportCmd holds the flags for the 'report' subcommand.
type reportCmd struct {
	year       int
	eventsFile string
	fxFile     string
	fixGaps    bool
	tolerance  string
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "realized capital gains for one year, in EUR" }
func (*reportCmd) Usage() string {
	return `capg report -events <events.jsonl> [-fx <rates.csv|rates.json>] [-year <year>] [-fix-gaps] [-tolerance <amount>]

  Matches every disposal of the year against open lots (first in, first out)
  and prints the realized gains report. With an FX table, every figure is
  also converted to EUR.

  Unfixed matching gaps abort the run; see 'capg topic gaps'.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.year, "year", capgains.Today().Year(), "Reporting year. Disposals outside it are matched but not reported.")
	f.StringVar(&c.eventsFile, "events", "events.jsonl", "Event stream file (JSONL format)")
	f.StringVar(&c.fxFile, "fx", "", "EUR rate table (CSV or JSON). Without it the report has no EUR figures.")
	f.BoolVar(&c.fixGaps, "fix-gaps", false, "Synthesize missing cost basis from the broker-reported basis")
	f.StringVar(&c.tolerance, "tolerance", "", "Largest negative basis residue clamped to zero by -fix-gaps")
}

func (c *reportCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	events, err := DecodeEventsFile(c.eventsFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	capgains.SortEvents(events)

	opts := capgains.MatcherOptions{FixSellGaps: c.fixGaps}
	if c.tolerance != "" {
		tolerance, err := decimal.NewFromString(c.tolerance)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid -tolerance %q: %v\n", c.tolerance, err)
			return subcommands.ExitUsageError
		}
		opts.GapTolerance = tolerance
	}

	matcher := capgains.NewFifoMatcher(opts)
	rb := capgains.NewReportBuilder(c.year)
	for _, event := range events {
		line, err := matcher.Ingest(event)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		if line != nil && line.SellDate.Year() == c.year {
			rb.AddRealized(line)
		}
	}

	// An unfixed gap means at least one gain is overstated; refuse to print
	// a report that looks authoritative but is not.
	if matcher.Recorder().Unfixed() {
		fmt.Fprint(os.Stderr, renderer.GapsMarkdown(matcher.GapEvents()))
		fmt.Fprintln(os.Stderr, "Error: unfixed matching gaps remain; re-run with -fix-gaps or complete the event stream")
		return subcommands.ExitFailure
	}

	if c.fxFile != "" {
		table, err := DecodeRatesFile(c.fxFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		rb.ConvertEUR(table)
	}

	printMarkdown(renderer.RealizedMarkdown(rb) + "\n" + renderer.GapsMarkdown(matcher.GapEvents()))
	return subcommands.ExitSuccess
}
