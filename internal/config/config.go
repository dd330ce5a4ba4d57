package config

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
)

const (
	riotAPIKeyLength  = 42
	riotAPIKeyPattern = `^RGAPI-[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`

	defaultListenAddr     = ":8080"
	defaultPlatformRegion = "euw1"
)

var riotAPIKeyRegex = regexp.MustCompile(riotAPIKeyPattern)

type Config struct {
	DatabaseURL    string
	RiotAPIKey     string
	PlatformRegion string
	ListenAddr     string
	Locale         string
	IsDev          bool
	LogLevel       slog.Level
}

func Parse() (Config, error) {
	env := strings.ToLower(strings.TrimSpace(os.Getenv("APP_ENV")))
	isDev := env == "dev"
	logLevel := inferLogLevel(env)

	databaseURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if databaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is not set")
	}

	riotAPIKey := strings.TrimSpace(os.Getenv("RIOT_API_KEY"))
	if riotAPIKey == "" {
		return Config{}, fmt.Errorf("RIOT_API_KEY is not set")
	}
	if err := validateRiotAPIKey(riotAPIKey); err != nil {
		return Config{}, err
	}

	region := strings.ToLower(strings.TrimSpace(os.Getenv("PLATFORM_REGION")))
	if region == "" {
		region = defaultPlatformRegion
	}

	addr := strings.TrimSpace(os.Getenv("LISTEN_ADDR"))
	if addr == "" {
		addr = defaultListenAddr
	}

	return Config{
		DatabaseURL:    databaseURL,
		RiotAPIKey:     riotAPIKey,
		PlatformRegion: region,
		ListenAddr:     addr,
		Locale:         strings.TrimSpace(os.Getenv("DDRAGON_LOCALE")),
		IsDev:          isDev,
		LogLevel:       logLevel,
	}, nil
}

func inferLogLevel(appEnv string) slog.Level {
	if appEnv == "debug" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func validateRiotAPIKey(key string) error {
	if len(key) != riotAPIKeyLength {
		return fmt.Errorf("RIOT_API_KEY has invalid length %d", len(key))
	}
	if !riotAPIKeyRegex.MatchString(key) {
		return fmt.Errorf("RIOT_API_KEY format is invalid")
	}
	return nil
}
