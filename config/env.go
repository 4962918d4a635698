package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aluiziolira/go-scrape-hyrox/models"
	"github.com/joho/godotenv"
)

// LoadDotEnv loads variables from the given .env files. Missing files are ignored;
// variables already present in the environment win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// EnvString returns the trimmed value of key when it is set and non-empty.
func EnvString(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	return value, true
}

// EnvInt parses key as an integer.
func EnvInt(key string) (int, bool, error) {
	value, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return n, true, nil
}

// EnvDuration parses key as a Go duration ("1s", "500ms").
func EnvDuration(key string) (time.Duration, bool, error) {
	value, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return d, true, nil
}

// EnvBool parses key as a boolean.
func EnvBool(key string) (bool, bool, error) {
	value, ok := EnvString(key)
	if !ok {
		return false, false, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, false, fmt.Errorf("%s: %w", key, err)
	}
	return b, true, nil
}

// ApplyEnv overrides cfg with HYROX_* environment variables.
func ApplyEnv(cfg *Config) error {
	if value, ok := EnvString("HYROX_SEASONS"); ok {
		seasons, err := ParseSeasons(value)
		if err != nil {
			return fmt.Errorf("HYROX_SEASONS: %w", err)
		}
		cfg.Seasons = seasons
	}
	if value, ok := EnvString("HYROX_GENDERS"); ok {
		cfg.Genders = splitList(value)
	}
	if value, ok := os.LookupEnv("HYROX_CATEGORY"); ok {
		cfg.TargetCategory = strings.TrimSpace(value)
	}
	if value, ok := EnvString("HYROX_OUTPUT"); ok {
		cfg.OutputFile = value
	}
	if value, ok := EnvString("HYROX_FORMAT"); ok {
		cfg.OutputFormat = strings.ToLower(value)
	}
	if value, ok := EnvString("HYROX_METRICS_ADDR"); ok {
		cfg.MetricsAddr = value
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"HYROX_PAGE_SIZE", &cfg.PageSize},
		{"HYROX_MAX_PAGES", &cfg.MaxPages},
		{"HYROX_DEDUPE_MAX_SIZE", &cfg.DedupeMaxSize},
	}
	for _, item := range ints {
		value, ok, err := EnvInt(item.key)
		if err != nil {
			return err
		}
		if ok {
			*item.dst = value
		}
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"HYROX_DELAY", &cfg.Delay},
		{"HYROX_TIMEOUT", &cfg.Timeout},
	}
	for _, item := range durations {
		value, ok, err := EnvDuration(item.key)
		if err != nil {
			return err
		}
		if ok {
			*item.dst = value
		}
	}

	if value, ok, err := EnvBool("HYROX_PREFER_OVERALL"); err != nil {
		return err
	} else if ok {
		cfg.PreferOverall = value
	}
	return nil
}

// ParseSeasons reads "Label=URL" pairs separated by commas.
func ParseSeasons(value string) ([]models.SeasonBase, error) {
	var seasons []models.SeasonBase
	for _, item := range splitList(value) {
		label, base, ok := strings.Cut(item, "=")
		label, base = strings.TrimSpace(label), strings.TrimSpace(base)
		if !ok || label == "" || base == "" {
			return nil, fmt.Errorf("expected Label=URL, got %q", item)
		}
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		seasons = append(seasons, models.SeasonBase{Season: label, BaseURL: base})
	}
	if len(seasons) == 0 {
		return nil, fmt.Errorf("no seasons given")
	}
	return seasons, nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
