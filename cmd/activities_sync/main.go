package main

//// Small CLI tool used to backfill the database with the activities fetched from garmin connect.

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/2beens/garminstats/internal/activities"
	"github.com/2beens/garminstats/internal/cli"
	"github.com/2beens/garminstats/internal/db"

	log "github.com/sirupsen/logrus"
)

type syncParams struct {
	host   string
	port   string
	dbName string
	user   string
	pages  int
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout)
	cancel()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout io.Writer) int {
	fs := flag.NewFlagSet("activities_sync", flag.ContinueOnError)
	opts := cli.RegisterFlags(fs)
	params := syncParams{}
	fs.StringVar(&params.host, "host", "", "PostgreSQL host (e.g., localhost or IP address)")
	fs.StringVar(&params.port, "port", "5432", "PostgreSQL port (e.g., 5432)")
	fs.StringVar(&params.dbName, "dbname", "", "PostgreSQL database name")
	fs.StringVar(&params.user, "user", "postgres", "PostgreSQL user, the password is read from GARMIN_POSTGRES_PASS")
	fs.IntVar(&params.pages, "pages", 1, "how many pages of -limit activities to fetch")
	if err := fs.Parse(args); err != nil {
		return cli.ExitFailure
	}
	opts.SetupLogging()

	if err := params.validate(); err != nil {
		fmt.Fprintf(stdout, "Error: %v\n", err)
		return cli.ExitFailure
	}

	log.Printf("PostgreSQL Host: %s", params.host)
	log.Printf("PostgreSQL Port: %s", params.port)
	log.Printf("PostgreSQL DB Name: %s", params.dbName)

	creds, err := cli.LoadCredentials(ctx, stdout, opts.EnvFile)
	if err != nil {
		return cli.ExitFailure
	}

	repo, err := getRepo(ctx, params, creds.Username)
	if err != nil {
		fmt.Fprintf(stdout, "Failed to get repo: %v\n", err)
		return cli.ExitFailure
	}
	if err := repo.InitSchema(ctx); err != nil {
		fmt.Fprintf(stdout, "Failed to init schema: %v\n", err)
		return cli.ExitFailure
	}

	client, cleanup, err := opts.NewClient()
	if err != nil {
		fmt.Fprintf(stdout, "Login failed: %v\n", err)
		return cli.ExitFailure
	}
	defer cleanup()

	if err := client.Login(ctx, creds.Username, creds.Password); err != nil {
		fmt.Fprintf(stdout, "Login failed: %v\n", err)
		return cli.ExitFailure
	}
	fmt.Fprintln(stdout, "Logged in successfully!")

	inserted, failed := 0, 0
	for page := 0; page < params.pages; page++ {
		acts, err := client.Activities(ctx, page*opts.ActivitiesLimit, opts.ActivitiesLimit)
		if err != nil {
			fmt.Fprintf(stdout, "Failed to fetch activities: %v\n", err)
			return cli.ExitFailure
		}

		for _, act := range acts {
			if err := repo.Add(ctx, act); err != nil {
				log.Errorf("--- failed to insert activity [%d]: %s", act.ActivityID, err)
				failed++
				continue
			}
			inserted++
		}

		if len(acts) < opts.ActivitiesLimit {
			break
		}
	}

	total, err := repo.Count(ctx)
	if err != nil {
		fmt.Fprintf(stdout, "Failed to count activities: %v\n", err)
		return cli.ExitFailure
	}

	fmt.Fprintf(stdout, "Synced %d activities, %d failed, %d stored in total.\n", inserted, failed, total)
	if failed > 0 {
		return cli.ExitFailure
	}
	return cli.ExitOK
}

func (p syncParams) validate() error {
	if p.host == "" {
		return errors.New("host is required")
	}
	if p.dbName == "" {
		return errors.New("dbname is required")
	}
	if p.pages < 1 {
		return errors.New("pages must be at least 1")
	}
	return nil
}

func getRepo(ctx context.Context, params syncParams, owner string) (*activities.Repo, error) {
	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         params.host,
		DBPort:         params.port,
		DBName:         params.dbName,
		DBUser:         params.user,
		DBPassword:     os.Getenv("GARMIN_POSTGRES_PASS"),
		MaxConns:       2,
		TracingEnabled: false,
	})
	if err != nil {
		return nil, fmt.Errorf("new db pool: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return activities.NewRepo(dbPool, owner), nil
}
