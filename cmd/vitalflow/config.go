package main

import (
	"context"
	"fmt"
	"strings"

	"vitalflow/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func loadConfig(c *cli.Context) (*types.Config, error) {
	cfg := new(types.Config)
	if err := envconfig.Process(c.String("env-prefix"), cfg); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("set DATABASE_URL")
	}

	return cfg, nil
}

// requireServeConfig checks the settings only the HTTP server needs.
func requireServeConfig(cfg *types.Config) error {
	var missing []string
	for name, value := range map[string]string{
		"ACCESS_TOKEN_SECRET":  cfg.AccessTokenSecret,
		"REFRESH_TOKEN_SECRET": cfg.RefreshTokenSecret,
		"COOKIE_HASH_KEY":      cfg.CookieHashKey,
		"COOKIE_BLOCK_KEY":     cfg.CookieBlockKey,
	} {
		if value == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("set %s", strings.Join(missing, ", "))
	}

	if cfg.AccessTokenSecret == cfg.RefreshTokenSecret {
		return fmt.Errorf("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ")
	}

	if cfg.TwilioAccountSID != "" && (cfg.TwilioAuthToken == "" || cfg.TwilioFromNumber == "") {
		return fmt.Errorf("set TWILIO_AUTH_TOKEN and TWILIO_FROM_NUMBER with TWILIO_ACCOUNT_SID")
	}

	if cfg.CacheBackend == "redis" && cfg.RedisURL == "" {
		return fmt.Errorf("set REDIS_URL when CACHE_BACKEND=redis")
	}

	return nil
}

func newLogger(cfg *types.Config) *logrus.Logger {
	logger := logrus.New()
	if cfg.IsDevelopment() {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger
}

func loadAWSConfig(ctx context.Context) (aws.Config, error) {
	config, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load aws config: %w", err)
	}

	return config, nil
}
