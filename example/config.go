package main

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
)

type config struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	Subject         string
	TTL             time.Duration
	Port            string
	TLSCertFile     string
	TLSKeyFile      string
}

// loadConfig reads the environment, falling back to the given .env files.
// Variables already set in the environment win over the files.
func loadConfig(getenv func(string) string, envFiles ...string) (*config, error) {
	fileEnv := map[string]string{}
	if len(envFiles) > 0 {
		var err error
		fileEnv, err = godotenv.Read(envFiles...)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading env file: %w", err)
		}
	}
	get := func(key, fallback string) string {
		if v := getenv(key); v != "" {
			return v
		}
		if v := fileEnv[key]; v != "" {
			return v
		}
		return fallback
	}

	ttl, err := time.ParseDuration(get("PUSH_TTL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("PUSH_TTL: %w", err)
	}

	return &config{
		VAPIDPublicKey:  get("VAPID_PUBLIC_KEY", ""),
		VAPIDPrivateKey: get("VAPID_PRIVATE_KEY", ""),
		Subject:         get("VAPID_SUBJECT", "mailto:example@example.com"),
		TTL:             ttl,
		Port:            get("PORT", "8080"),
		TLSCertFile:     get("TLS_CERT_FILE", ""),
		TLSKeyFile:      get("TLS_KEY_FILE", ""),
	}, nil
}
