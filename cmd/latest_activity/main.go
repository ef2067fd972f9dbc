package main

// Prints the full record of the latest activity of the given type.

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

	log "github.com/sirupsen/logrus"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout)
	cancel()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout io.Writer) int {
	fs := flag.NewFlagSet("latest_activity", flag.ContinueOnError)
	opts := cli.RegisterFlags(fs)
	typeKey := fs.String("type", activities.TypeStrengthTraining, "activity type key, e.g. strength_training or walking")
	if err := fs.Parse(args); err != nil {
		return cli.ExitFailure
	}
	opts.SetupLogging()

	acts, code := cli.Bootstrap(ctx, stdout, opts)
	if code != cli.ExitOK {
		return code
	}

	// nil when there is none, printed as not found
	latest, _ := activities.Latest(acts, *typeKey)
	if err := report.LatestActivity(stdout, *typeKey, latest); err != nil {
		log.Errorf("print latest activity: %s", err)
		return cli.ExitFailure
	}

	return cli.ExitOK
}
