package main

// Lists the activity type of each of the latest activities.

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/2beens/garminstats/internal/activities"
	"github.com/2beens/garminstats/internal/cli"
	"github.com/2beens/garminstats/internal/report"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout)
	cancel()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout io.Writer) int {
	fs := flag.NewFlagSet("activity_types", flag.ContinueOnError)
	opts := cli.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return cli.ExitFailure
	}
	opts.SetupLogging()

	acts, code := cli.Bootstrap(ctx, stdout, opts)
	if code != cli.ExitOK {
		return code
	}

	report.ActivityTypes(stdout, activities.Types(acts))
	return cli.ExitOK
}
