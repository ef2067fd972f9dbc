package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/2beens/garminstats/pkg"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
	"go.uber.org/multierr"
)

const DefaultEnvFile = ".env"

var ErrMissingCredentials = errors.New("missing GARMIN_USERNAME or GARMIN_PASSWORD")

// Credentials are the garmin connect login of the single user tools.
type Credentials struct {
	Username string `env:"GARMIN_USERNAME"`
	Password string `env:"GARMIN_PASSWORD"`
}

// LoadEnvFile preloads KEY=VALUE pairs from the env file into the environment.
// Variables already set in the environment are left untouched.
// A missing file is not an error.
func LoadEnvFile(path string) error {
	exists, err := pkg.PathExists(path, false)
	if err != nil {
		return fmt.Errorf("check env file %s: %w", path, err)
	}
	if !exists {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// FromEnv reads the credentials from GARMIN_USERNAME and GARMIN_PASSWORD.
func FromEnv(ctx context.Context) (*Credentials, error) {
	return fromLookuper(ctx, envconfig.OsLookuper())
}

func fromLookuper(ctx context.Context, lookuper envconfig.Lookuper) (*Credentials, error) {
	creds := &Credentials{}
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   creds,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if creds.Username == "" || creds.Password == "" {
		return nil, ErrMissingCredentials
	}
	return creds, nil
}

// User is one entry of the users file of the multi user tools.
type User struct {
	PrettyName    string `json:"prettyname"`
	LoginEmail    string `json:"login_email"`
	LoginPassword string `json:"login_password"`
	SecretName    string `json:"secret_name"`
}

// Validate reports every missing login field of the user at once.
func (u User) Validate() error {
	var err error
	if u.LoginEmail == "" {
		err = multierr.Append(err, errors.New("login_email is empty"))
	}
	if u.LoginPassword == "" {
		err = multierr.Append(err, errors.New("login_password is empty"))
	}
	return err
}

// ValidateUsers collects the problems of all invalid users, nil when every user can log in.
func ValidateUsers(users []User) error {
	var validationErr error
	for _, user := range users {
		if err := user.Validate(); err != nil {
			validationErr = multierr.Append(validationErr, fmt.Errorf("user [%s]: %w", user.PrettyName, err))
		}
	}
	return validationErr
}

// ParseUsers decodes the users list. Entries are not validated here, an invalid user
// fails on its own login and the others are still counted.
func ParseUsers(r io.Reader) ([]User, error) {
	var users []User
	if err := json.NewDecoder(r).Decode(&users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

func LoadUsers(path string) ([]User, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open users file: %w", err)
	}
	defer f.Close()

	return ParseUsers(f)
}
