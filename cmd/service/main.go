package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/2beens/garminstats/internal"
	"github.com/2beens/garminstats/internal/activities"
	"github.com/2beens/garminstats/internal/config"
	"github.com/2beens/garminstats/internal/credentials"
	"github.com/2beens/garminstats/internal/logging"
	"github.com/2beens/garminstats/pkg"

	log "github.com/sirupsen/logrus"
)

// secrets are read from the environment (or the env file), never from the config file
type secrets struct {
	sentryDSN        string
	redisPassword    string
	postgresPassword string
	honeycombEnabled bool
}

func main() {
	fmt.Println("starting ...")

	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	flag.Parse()

	if err := run(*env, *configPath); err != nil {
		log.Fatalf("garminstats service: %s", err)
	}
}

func run(env, configPath string) error {
	log.Warnf("---->> running in [%s] environment", env)

	cfg, err := config.Load(env, configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := credentials.LoadEnvFile(cfg.EnvFile); err != nil {
		log.Errorf("load env file: %s", err)
	}
	envSecrets := readSecrets(cfg)

	logging.Setup(logging.LoggerSetupParams{
		LogFileName:      cfg.LogsPath,
		LogToStdout:      cfg.LogToStdout,
		LogLevel:         cfg.LogLevel,
		Environment:      cfg.Environment,
		SentryEnabled:    cfg.SentryEnabled,
		SentryDSN:        envSecrets.sentryDSN,
		SentryServerName: "garminstats-service",
	})

	log.Debugf("using port: %d, activities source: [%s]", cfg.Port, cfg.ActivitiesSource)
	if versionInfo, err := tryGetLastCommitHash(); err != nil {
		log.Tracef("failed to get last commit hash / version info: %s", err)
	} else {
		log.Tracef("running version: %s", versionInfo)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	creds, err := credentials.FromEnv(ctx)
	if err != nil {
		return fmt.Errorf("garmin credentials, use GARMIN_USERNAME and GARMIN_PASSWORD: %w", err)
	}

	// the service still serves strength stats without the criteria file
	criteria, err := activities.LoadCriteria(cfg.CriteriaPath)
	if err != nil {
		log.Errorf("load criteria from [%s]: %s", cfg.CriteriaPath, err)
	}
	log.Debugf("loaded %d aggregation criteria", len(criteria))

	server, err := internal.NewServer(ctx, internal.NewServerParams{
		Config:                  cfg,
		GarminEmail:             creds.Username,
		GarminPassword:          creds.Password,
		RedisPassword:           envSecrets.redisPassword,
		PostgresPassword:        envSecrets.postgresPassword,
		HoneycombTracingEnabled: envSecrets.honeycombEnabled,
		Criteria:                criteria,
	})
	if err != nil {
		return fmt.Errorf("new server: %w", err)
	}

	server.Serve(cfg.Host, cfg.Port)

	<-ctx.Done()
	log.Warnln("shutdown signal received, killing everything ...")
	server.GracefulShutdown()

	return nil
}

func readSecrets(cfg *config.Config) secrets {
	s := secrets{
		sentryDSN:        os.Getenv("SENTRY_DSN"),
		redisPassword:    os.Getenv("GARMIN_REDIS_PASS"),
		postgresPassword: os.Getenv("GARMIN_POSTGRES_PASS"),
		honeycombEnabled: os.Getenv("HONEYCOMB_ENABLED") == "true",
	}

	if cfg.SentryEnabled && s.sentryDSN == "" {
		log.Warnln("sentry enabled but SENTRY_DSN env var not set")
	}
	if cfg.RedisEnabled() && s.redisPassword == "" {
		log.Warnln("redis password not set. use GARMIN_REDIS_PASS")
	}
	if cfg.PostgresEnabled() && s.postgresPassword == "" {
		log.Debugln("postgres password not set, connecting without one. use GARMIN_POSTGRES_PASS")
	}

	if os.Getenv("OTEL_SERVICE_NAME") == "" {
		log.Warnln("OTEL_SERVICE_NAME env var not set")
	}
	if !s.honeycombEnabled {
		log.Debugln("honeycomb tracing disabled")
	} else if os.Getenv("HONEYCOMB_API_KEY") == "" {
		log.Warnln("HONEYCOMB_API_KEY env var not set")
	}

	return s
}

// tryGetLastCommitHash will try to get the last commit hash
// assumes that the built main executable is in project root
func tryGetLastCommitHash() (string, error) {
	cmd := exec.Command("/usr/bin/git", "rev-parse", "HEAD")
	stdout, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return pkg.BytesToString(stdout), nil
}
