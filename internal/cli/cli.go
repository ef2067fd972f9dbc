// Package cli holds what the garmin stats command line tools share: common flags,
// the date argument, credentials and the login + fetch sequence with its console output.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/2beens/garminstats/internal/activities"
	"github.com/2beens/garminstats/internal/credentials"
	"github.com/2beens/garminstats/internal/garmin"
	"github.com/2beens/garminstats/internal/logging"
	"github.com/2beens/garminstats/pkg"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	ExitOK      = 0
	ExitFailure = 1

	InvalidDateMessage        = "Invalid date format. Please use YYYY-MM-DD."
	MissingCredentialsMessage = "Error: Missing GARMIN_USERNAME or GARMIN_PASSWORD in .env file."
)

var ErrUsage = errors.New("usage")

// Options are the flags every tool accepts.
type Options struct {
	EnvFile         string
	LogLevel        string
	LogFile         string
	RedisAddr       string
	SSOURL          string
	ConnectAPIURL   string
	ActivitiesLimit int
	TimeoutSec      int
}

func RegisterFlags(fs *flag.FlagSet) *Options {
	opts := &Options{}
	fs.StringVar(&opts.EnvFile, "env-file", credentials.DefaultEnvFile, "env file with GARMIN_USERNAME and GARMIN_PASSWORD")
	fs.StringVar(&opts.LogLevel, "log-level", "warn", "log level [trace | debug | info | warn | error]")
	fs.StringVar(&opts.LogFile, "log-file", "", "log file path (empty for stderr)")
	fs.StringVar(&opts.RedisAddr, "redis", "", "redis host:port used to keep garmin tokens between runs (empty keeps them in memory)")
	fs.StringVar(&opts.SSOURL, "sso-url", garmin.DefaultSSOURL, "garmin sso base url")
	fs.StringVar(&opts.ConnectAPIURL, "api-url", garmin.DefaultConnectAPIURL, "garmin connect api base url")
	fs.IntVar(&opts.ActivitiesLimit, "limit", garmin.DefaultActivitiesLimit, "how many of the latest activities to fetch")
	fs.IntVar(&opts.TimeoutSec, "timeout", 30, "garmin api timeout in seconds")
	return opts
}

func (o *Options) SetupLogging() {
	logging.Setup(logging.LoggerSetupParams{
		LogFileName: o.LogFile,
		LogLevel:    o.LogLevel,
		Output:      os.Stderr,
	})
}

// NewClient builds a garmin client, with a redis token store when -redis is set.
// The returned func releases what the client holds.
func (o *Options) NewClient() (*garmin.Client, func(), error) {
	cleanup := func() {}

	var tokenStore garmin.TokenStore
	if o.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     o.RedisAddr,
			Password: os.Getenv("GARMIN_REDIS_PASS"),
		})
		tokenStore = garmin.NewRedisTokenStore(rdb)
		cleanup = func() {
			if err := rdb.Close(); err != nil {
				log.Errorf("close redis client: %s", err)
			}
		}
	}

	client, err := garmin.NewClient(garmin.NewClientParams{
		SSOURL:        o.SSOURL,
		ConnectAPIURL: o.ConnectAPIURL,
		HTTPClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   time.Duration(o.TimeoutSec) * time.Second,
		},
		TokenStore: tokenStore,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	return client, cleanup, nil
}

// ParseDateArg reads the optional YYYY-MM-DD positional argument. Without it the start
// of the current month is used, unless the tool requires the date.
// The returned string is the date as it is printed in the results.
func ParseDateArg(args []string, required bool, now time.Time) (time.Time, string, error) {
	if len(args) > 1 || (required && len(args) == 0) {
		return time.Time{}, "", ErrUsage
	}

	arg := ""
	if len(args) == 1 {
		arg = args[0]
	}

	since, err := activities.ParseStartDate(arg, now)
	if err != nil {
		return time.Time{}, "", err
	}
	if arg == "" {
		arg = since.Format(pkg.DateLayout)
	}
	return since, arg, nil
}

// PrintDateError prints the message matching a ParseDateArg error.
func PrintDateError(w io.Writer, err error, toolName string) {
	if errors.Is(err, ErrUsage) {
		fmt.Fprintf(w, "Usage: %s YYYY-MM-DD\n", toolName)
		return
	}
	fmt.Fprintln(w, InvalidDateMessage)
}

// LoadCredentials preloads the env file and reads the single user credentials.
func LoadCredentials(ctx context.Context, w io.Writer, envFile string) (*credentials.Credentials, error) {
	if err := credentials.LoadEnvFile(envFile); err != nil {
		log.Warnf("load env file: %s", err)
	}

	creds, err := credentials.FromEnv(ctx)
	if err != nil {
		fmt.Fprintln(w, MissingCredentialsMessage)
		return nil, err
	}
	return creds, nil
}

type garminClient interface {
	Login(ctx context.Context, email, password string) error
	Activities(ctx context.Context, start, limit int) ([]activities.Activity, error)
}

// LoginAndFetch logs in and fetches the latest activities, reporting both steps on w.
func LoginAndFetch(
	ctx context.Context,
	w io.Writer,
	client garminClient,
	creds *credentials.Credentials,
	limit int,
) ([]activities.Activity, error) {
	if err := client.Login(ctx, creds.Username, creds.Password); err != nil {
		fmt.Fprintf(w, "Login failed: %v\n", err)
		return nil, err
	}
	fmt.Fprintln(w, "Logged in successfully!")

	acts, err := client.Activities(ctx, 0, limit)
	if err != nil {
		fmt.Fprintf(w, "Failed to fetch activities: %v\n", err)
		return nil, err
	}
	fmt.Fprintln(w, "Fetched activities successfully!")

	return acts, nil
}

// Bootstrap runs the steps every single user tool starts with: credentials, client,
// login and fetch. On failure the message is already printed and the exit code is 1.
func Bootstrap(ctx context.Context, w io.Writer, opts *Options) ([]activities.Activity, int) {
	creds, err := LoadCredentials(ctx, w, opts.EnvFile)
	if err != nil {
		return nil, ExitFailure
	}

	client, cleanup, err := opts.NewClient()
	if err != nil {
		fmt.Fprintf(w, "Login failed: %v\n", err)
		return nil, ExitFailure
	}
	defer cleanup()

	acts, err := LoginAndFetch(ctx, w, client, creds, opts.ActivitiesLimit)
	if err != nil {
		return nil, ExitFailure
	}
	return acts, ExitOK
}
