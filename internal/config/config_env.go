package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// applyEnvOverrides overrides config values with environment variables if set.
// Invalid values are reported instead of being ignored.
func applyEnvOverrides(cfg *Config) error {
	// Server
	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", port, err)
		}
		cfg.Server.Port = p
	}
	if origin := os.Getenv("CORS_ORIGIN"); origin != "" {
		cfg.Server.CORSOrigin = origin
	}
	if secure := os.Getenv("COOKIE_SECURE"); secure != "" {
		s, err := strconv.ParseBool(strings.TrimSpace(secure))
		if err != nil {
			return fmt.Errorf("invalid COOKIE_SECURE %q: %w", secure, err)
		}
		cfg.Server.CookieSecure = s
	}

	// Database
	if driver := os.Getenv("DATABASE_DRIVER"); driver != "" {
		cfg.Database.Driver = strings.ToLower(strings.TrimSpace(driver))
	}
	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.Database.URL = url
	}
	if name := os.Getenv("MONGO_DATABASE"); name != "" {
		cfg.Database.DBName = name
	}

	// Sessions
	if secret := os.Getenv("SECRET_KEY"); secret != "" {
		cfg.JWT.Secret = secret
	}

	// Object storage
	if region := os.Getenv("AWS_REGION"); region != "" {
		cfg.AWS.Region = region
	}
	if bucket := os.Getenv("AWS_S3_BUCKET"); bucket != "" {
		cfg.AWS.S3Bucket = bucket
	}
	if key := os.Getenv("AWS_ACCESS_KEY_ID"); key != "" {
		cfg.AWS.AccessKey = key
	}
	if secret := os.Getenv("AWS_SECRET_ACCESS_KEY"); secret != "" {
		cfg.AWS.SecretKey = secret
	}
	if endpoint := os.Getenv("AWS_ENDPOINT"); endpoint != "" {
		cfg.AWS.Endpoint = endpoint
	}
	if publicURL := os.Getenv("AWS_PUBLIC_URL"); publicURL != "" {
		cfg.AWS.PublicURL = publicURL
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Log.Level = strings.ToLower(level)
	}

	return nil
}
