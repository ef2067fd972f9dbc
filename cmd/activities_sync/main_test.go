package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/2beens/garminstats/internal/cli"

	"github.com/stretchr/testify/assert"
)

func TestRun_InvalidParams(t *testing.T) {
	for _, tc := range []struct {
		name    string
		args    []string
		message string
	}{
		{name: "missing host", args: []string{"-dbname", "garmin"}, message: "Error: host is required\n"},
		{name: "missing db name", args: []string{"-host", "localhost"}, message: "Error: dbname is required\n"},
		{name: "no pages", args: []string{"-host", "localhost", "-dbname", "garmin", "-pages", "0"}, message: "Error: pages must be at least 1\n"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			code := run(context.Background(), tc.args, out)
			assert.Equal(t, cli.ExitFailure, code)
			assert.Equal(t, tc.message, out.String())
		})
	}
}

func TestRun_MissingCredentials(t *testing.T) {
	t.Setenv("GARMIN_USERNAME", "")
	t.Setenv("GARMIN_PASSWORD", "")

	out := &bytes.Buffer{}
	code := run(context.Background(), []string{"-host", "localhost", "-dbname", "garmin", "-env-file", t.TempDir() + "/.env"}, out)
	assert.Equal(t, cli.ExitFailure, code)
	assert.Equal(t, cli.MissingCredentialsMessage+"\n", out.String())
}
