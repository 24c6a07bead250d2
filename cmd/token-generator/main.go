// Package main prints a signed caller token for the answer API.
//
// Usage:
//
//	token-generator -caller student-42 -tier high
//
// The signing secret and lifetime come from the same configuration as the server
// (SCRY_AUTH_JWT_SECRET, SCRY_AUTH_TOKEN_LIFETIME_MINUTES, or config.yaml).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/phrazzld/scry-tutor/internal/config"
	"github.com/phrazzld/scry-tutor/internal/ratelimit"
	"github.com/phrazzld/scry-tutor/internal/service/auth"
)

func main() {
	caller := flag.String("caller", "", "caller id the token is issued to (required)")
	tier := flag.String("tier", string(ratelimit.TierNormal), "rate-limit tier: low, normal or high")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	if err := run(context.Background(), os.Stdout, *caller, *tier); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// run issues one token and writes it to w.
func run(ctx context.Context, w io.Writer, caller, tier string) error {
	cfg, err := loadAuthConfig()
	if err != nil {
		return err
	}
	tokens, err := auth.NewJWTService(cfg)
	if err != nil {
		return err
	}

	parsed := ratelimit.ParseTier(tier)
	if string(parsed) != tier {
		slog.Warn("unknown tier, using default", "requested", tier, "tier", parsed)
	}

	token, err := tokens.GenerateToken(ctx, caller, parsed)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, token)
	return err
}

// loadAuthConfig reads only the auth section so the generator does not need LLM or
// database settings.
func loadAuthConfig() (config.AuthConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.SetEnvPrefix("SCRY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("auth.jwt_secret")
	_ = v.BindEnv("auth.token_lifetime_minutes")
	v.SetDefault("auth.token_lifetime_minutes", 1440)

	var notFound viper.ConfigFileNotFoundError
	if err := v.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
		return config.AuthConfig{}, fmt.Errorf("failed to read config file: %w", err)
	}

	return config.AuthConfig{
		JWTSecret:            v.GetString("auth.jwt_secret"),
		TokenLifetimeMinutes: v.GetInt("auth.token_lifetime_minutes"),
	}, nil
}
