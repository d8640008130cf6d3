package fortlev

import (
	"fmt"
	"os"
	"strings"
)

// Environment variables holding the partner credentials
const (
	EnvBaseURL  = "FORTLEV_BASE_URL"
	EnvUsername = "FORTLEV_USERNAME"
	EnvPassword = "FORTLEV_PASSWORD"
)

// Credentials identify this service against the Fortlev partner API.
// They are checked when a login is attempted, not when the client is built,
// so a process can start (and report what is missing) without them.
type Credentials struct {
	BaseURL  string
	Username string
	Password string
}

// Presence reports which credential values are set, never the values themselves
type Presence struct {
	BaseURL  bool `json:"base_url"`
	Username bool `json:"username"`
	Password bool `json:"password"`
}

// CredentialsFromEnv reads the partner credentials from the environment
func CredentialsFromEnv() Credentials {
	return Credentials{
		BaseURL:  os.Getenv(EnvBaseURL),
		Username: os.Getenv(EnvUsername),
		Password: os.Getenv(EnvPassword),
	}
}

// Validate returns an error wrapping ErrConfiguration naming every missing value
func (c Credentials) Validate() error {
	var missing []string
	if c.BaseURL == "" {
		missing = append(missing, EnvBaseURL)
	}
	if c.Username == "" {
		missing = append(missing, EnvUsername)
	}
	if c.Password == "" {
		missing = append(missing, EnvPassword)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrConfiguration, strings.Join(missing, ", "))
	}
	return nil
}

// Presence reports which values are configured
func (c Credentials) Presence() Presence {
	return Presence{
		BaseURL:  c.BaseURL != "",
		Username: c.Username != "",
		Password: c.Password != "",
	}
}

func (c Credentials) endpoint(path string) string {
	return strings.TrimRight(c.BaseURL, "/") + path
}
