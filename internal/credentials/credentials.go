// Package credentials loads the private-app credentials that authenticate
// the live data source against the shop's admin API. The credentials file is
// a JSON object with exactly four string keys: APIKEY, APIPASS, HOSTNAME and
// VERSION. Loading is strict: a missing file, malformed JSON, an unknown key,
// or a missing or empty value all fail loudly rather than defaulting, so a
// broken file never turns into a confusing authentication failure later.
package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrInvalidCredentials indicates the credentials file exists but does not
// contain the four required non-empty keys.
var ErrInvalidCredentials = errors.New("credentials file must contain non-empty APIKEY, APIPASS, HOSTNAME and VERSION keys")

// Credentials identifies a merchant-specific private app on the platform.
// Immutable after loading; safe to share across request handlers.
type Credentials struct {
	APIKey      string
	APIPassword string
	Hostname    string
	Version     string
}

type credentialsFile struct {
	APIKey      string `json:"APIKEY"`
	APIPassword string `json:"APIPASS"`
	Hostname    string `json:"HOSTNAME"`
	Version     string `json:"VERSION"`
}

// Load reads and validates the credentials file at path. On any failure it
// returns a zero Credentials record together with the error; a partially
// populated record is never returned.
func Load(path string) (Credentials, error) {
	file, err := os.Open(path)
	if err != nil {
		return Credentials{}, fmt.Errorf("open credentials file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	decoder := json.NewDecoder(file)
	decoder.DisallowUnknownFields()

	var raw credentialsFile
	if err := decoder.Decode(&raw); err != nil {
		return Credentials{}, fmt.Errorf("parse credentials file: %w", err)
	}

	creds := Credentials{
		APIKey:      strings.TrimSpace(raw.APIKey),
		APIPassword: strings.TrimSpace(raw.APIPassword),
		Hostname:    strings.TrimSpace(raw.Hostname),
		Version:     strings.TrimSpace(raw.Version),
	}

	if missing := creds.missingKeys(); len(missing) > 0 {
		return Credentials{}, fmt.Errorf("%w: missing %s", ErrInvalidCredentials, strings.Join(missing, ", "))
	}

	return creds, nil
}

// Complete reports whether all four fields are populated. The live data
// source refuses to issue requests otherwise.
func (c Credentials) Complete() bool {
	return len(c.missingKeys()) == 0
}

func (c Credentials) missingKeys() []string {
	var missing []string
	if c.APIKey == "" {
		missing = append(missing, "APIKEY")
	}
	if c.APIPassword == "" {
		missing = append(missing, "APIPASS")
	}
	if c.Hostname == "" {
		missing = append(missing, "HOSTNAME")
	}
	if c.Version == "" {
		missing = append(missing, "VERSION")
	}
	return missing
}
