package main

// Prints the push-up / pull-up reps and the criteria totals since the given date
// for every user of the users file.

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/2beens/garminstats/internal/activities"
	"github.com/2beens/garminstats/internal/cli"
	"github.com/2beens/garminstats/internal/credentials"
	"github.com/2beens/garminstats/internal/report"
	"github.com/2beens/garminstats/pkg"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const toolName = "multi_counter"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout)
	cancel()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout io.Writer) int {
	fs := flag.NewFlagSet(toolName, flag.ContinueOnError)
	opts := cli.RegisterFlags(fs)
	usersPath := fs.String("users", "users.json", "path to the users file")
	criteriaPath := fs.String("criteria", "list-tags.json", "path to the aggregation criteria file")
	outPath := fs.String("out", "", "also write the results to this file")
	concurrency := fs.Int("concurrency", 2, "how many users are fetched at the same time")
	if err := fs.Parse(args); err != nil {
		return cli.ExitFailure
	}
	opts.SetupLogging()

	if *outPath != "" {
		outFile, err := os.Create(*outPath)
		if err != nil {
			fmt.Fprintf(stdout, "Error creating output file: %v\n", err)
			return cli.ExitFailure
		}
		defer func() {
			if err := outFile.Close(); err != nil {
				log.Errorf("close output file: %s", err)
			}
		}()
		stdout = pkg.NewCombinedWriter(stdout, outFile)
	}

	users, err := credentials.LoadUsers(*usersPath)
	if err != nil {
		fmt.Fprintf(stdout, "Error reading input file: %v\n", err)
	}
	if err := credentials.ValidateUsers(users); err != nil {
		log.Warnf("users file [%s] has invalid entries: %s", *usersPath, err)
	}

	since, _, err := cli.ParseDateArg(fs.Args(), true, time.Now())
	if err != nil {
		cli.PrintDateError(stdout, err, toolName)
		return cli.ExitFailure
	}

	criteria, err := activities.LoadCriteria(*criteriaPath)
	if err != nil {
		fmt.Fprintf(stdout, "Error reading input file: %v\n", err)
	}

	// each user writes into its own buffer, blocks are printed in the users file order
	outputs := make([]bytes.Buffer, len(users))
	var g errgroup.Group
	g.SetLimit(max(*concurrency, 1))
	for i, user := range users {
		i, user := i, user // per-iteration copies (Go 1.22 loop semantics)
		g.Go(func() error {
			countForUser(ctx, &outputs[i], opts, user, since, criteria)
			return nil
		})
	}
	// never fails, user errors are part of the output
	_ = g.Wait()

	for i := range outputs {
		if _, err := outputs[i].WriteTo(stdout); err != nil {
			log.Errorf("write results: %s", err)
			return cli.ExitFailure
		}
	}

	return cli.ExitOK
}

func countForUser(
	ctx context.Context,
	w io.Writer,
	opts *cli.Options,
	user credentials.User,
	since time.Time,
	criteria []activities.Criterion,
) {
	if err := user.Validate(); err != nil {
		fmt.Fprintf(w, "Login failed for %s: %v\n", user.PrettyName, err)
		return
	}

	client, cleanup, err := opts.NewClient()
	if err != nil {
		fmt.Fprintf(w, "Login failed for %s: %v\n", user.PrettyName, err)
		return
	}
	defer cleanup()

	if err := client.Login(ctx, user.LoginEmail, user.LoginPassword); err != nil {
		fmt.Fprintf(w, "Login failed for %s: %v\n", user.PrettyName, err)
		return
	}
	log.Debugf("logged in as [%s]", user.PrettyName)

	acts, err := client.Activities(ctx, 0, opts.ActivitiesLimit)
	if err != nil {
		fmt.Fprintf(w, "Failed to fetch activities for %s: %v\n", user.PrettyName, err)
		return
	}

	report.UserBlock(w, report.UserResults{
		SecretName: user.SecretName,
		Strength:   activities.NewStrengthSummary(acts, since),
		Totals:     activities.Aggregate(acts, since, criteria),
	})
}
