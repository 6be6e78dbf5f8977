package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"github.com/etnz/capgains"
)

// fxCmd holds the flags for the 'fx' subcommand.
type fxCmd struct {
	fxFile string
	on     string
}

func (*fxCmd) Name() string     { return "fx" }
func (*fxCmd) Synopsis() string { return "look up an EUR rate for a date and currency" }
func (*fxCmd) Usage() string {
	return `capg fx -fx <rates.csv|rates.json> [-on <date>] <currency>

  Prints the EUR value of one unit of the currency on the given date,
  falling back to the nearest earlier fixing when the exact date has none.
`
}

func (c *fxCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.fxFile, "fx", "", "EUR rate table (CSV or JSON)")
	f.StringVar(&c.on, "on", capgains.Today().String(), "Lookup date")
}

func (c *fxCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one currency code is expected")
		return subcommands.ExitUsageError
	}
	currency := strings.ToUpper(f.Arg(0))

	on, err := capgains.ParseDate(c.on)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	table, err := DecodeRatesFile(c.fxFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	rate, ok := table.Rate(on, currency)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: no rate for %s on or before %s\n", currency, on)
		return subcommands.ExitFailure
	}
	if table.HasRateExact(on, currency) {
		fmt.Printf("1 %s = %s EUR on %s\n", currency, rate, on)
	} else {
		fmt.Printf("1 %s = %s EUR on %s (nearest earlier fixing)\n", currency, rate, on)
	}
	return subcommands.ExitSuccess
}
