package integration_testing

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/2beens/garminstats/internal/db"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
)

const testDBName = "garminstats"

// Containers holds the postgres and redis instances the integration tests run against.
type Containers struct {
	DB           *sql.DB
	Pool         *pgxpool.Pool
	Redis        *redis.Client
	PostgresPort string
	RedisPort    string

	dockerPool *dockertest.Pool
	teardown   []func()
}

func newContainers(ctx context.Context) (_ *Containers, err error) {
	c := &Containers{
		teardown: make([]func(), 0),
	}
	defer func() {
		if err != nil {
			c.Cleanup()
		}
	}()

	// uses a sensible default on windows (tcp/http) and linux/osx (socket)
	c.dockerPool, err = dockertest.NewPool("")
	if err != nil {
		return nil, fmt.Errorf("could not create new dockertest pool: %w", err)
	}
	c.dockerPool.MaxWait = time.Minute

	// uses pool to try to connect to Docker
	if err = c.dockerPool.Client.Ping(); err != nil {
		return nil, fmt.Errorf("could not ping dockertest pool: %w", err)
	}

	if err := c.redisSetup(ctx); err != nil {
		return nil, fmt.Errorf("failed to setup redis: %w", err)
	}

	if err := c.postgresSetup(ctx); err != nil {
		return nil, fmt.Errorf("failed to setup postgres: %w", err)
	}

	return c, nil
}

func (c *Containers) Cleanup() {
	if c.DB != nil {
		c.DB.Close()
	}
	if c.Pool != nil {
		c.Pool.Close()
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			log.Printf("close redis client: %s", err)
		}
	}
	for _, teardown := range c.teardown {
		teardown()
	}
}

func (c *Containers) redisSetup(ctx context.Context) error {
	redisResource, err := c.dockerPool.RunWithOptions(&dockertest.RunOptions{
		Repository: "redis",
		Tag:        "6.2",
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
	})
	if err != nil {
		return fmt.Errorf("run redis: %w", err)
	}

	c.teardown = append(c.teardown, func() {
		if err := redisResource.Close(); err != nil {
			log.Printf("close redis resource: %s", err)
		}
	})

	c.RedisPort = redisResource.GetPort("6379/tcp")
	c.Redis = redis.NewClient(&redis.Options{
		Addr: "localhost:" + c.RedisPort,
	})

	return c.dockerPool.Retry(func() error {
		return c.Redis.Ping(ctx).Err()
	})
}

func (c *Containers) postgresSetup(ctx context.Context) error {
	pgResource, err := c.dockerPool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16",
		Env: []string{
			"POSTGRES_USER=postgres",
			"POSTGRES_HOST_AUTH_METHOD=trust",
			"POSTGRES_DB=" + testDBName,
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{
			Name: "no",
		}
	})
	if err != nil {
		return fmt.Errorf("dockerpool run postgres: %w", err)
	}

	c.teardown = append(c.teardown, func() {
		if err := pgResource.Close(); err != nil {
			log.Printf("close postgres resource: %s", err)
		}
	})

	c.PostgresPort = pgResource.GetPort("5432/tcp")
	dsn := fmt.Sprintf("postgres://postgres@localhost:%s/%s?sslmode=disable", c.PostgresPort, testDBName)
	c.DB, err = sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("open db conn: %w", err)
	}

	if err := c.dockerPool.Retry(c.DB.Ping); err != nil {
		return fmt.Errorf("ping db: %w", err)
	}

	c.Pool, err = db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost: "localhost",
		DBPort: c.PostgresPort,
		DBName: testDBName,
	})
	if err != nil {
		return fmt.Errorf("new db pool: %w", err)
	}

	return nil
}
