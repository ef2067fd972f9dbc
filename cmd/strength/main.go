package main

// Prints the strength training moving duration and the push-up / pull-up reps
// since the given date, or since the start of the current month.

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/2beens/garminstats/internal/activities"
	"github.com/2beens/garminstats/internal/cli"
	"github.com/2beens/garminstats/internal/report"
)

const toolName = "strength"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout)
	cancel()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout io.Writer) int {
	fs := flag.NewFlagSet(toolName, flag.ContinueOnError)
	opts := cli.RegisterFlags(fs)
	durationOnly := fs.Bool("duration-only", false, "print only the strength training time")
	if err := fs.Parse(args); err != nil {
		return cli.ExitFailure
	}
	opts.SetupLogging()

	since, sinceArg, err := cli.ParseDateArg(fs.Args(), false, time.Now())
	if err != nil {
		cli.PrintDateError(stdout, err, toolName)
		return cli.ExitFailure
	}

	acts, code := cli.Bootstrap(ctx, stdout, opts)
	if code != cli.ExitOK {
		return code
	}

	summary := activities.NewStrengthSummary(acts, since)
	if *durationOnly {
		report.StrengthTime(stdout, sinceArg, summary)
	} else {
		report.StrengthTotals(stdout, sinceArg, summary)
	}

	return cli.ExitOK
}
