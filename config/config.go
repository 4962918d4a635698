package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aluiziolira/go-scrape-hyrox/models"
)

// Config holds collector configuration.
type Config struct {
	Seasons          []models.SeasonBase
	Genders          []string
	CategoryPrefixes []models.CategoryPrefix
	DefaultCategory  string
	TargetCategory   string // empty keeps every category
	PreferOverall    bool
	PageSize         int
	MaxPages         int
	Delay            time.Duration
	Timeout          time.Duration
	Lang             string
	Ranking          string
	OutputFile       string
	OutputFormat     string // csv or dual
	DedupeMaxSize    int
	UserAgent        string
	AcceptLanguage   string
	MetricsAddr      string
	Verbose          bool
}

// DefaultSeasons lists the seasons published on the results platform, oldest first.
func DefaultSeasons() []models.SeasonBase {
	seasons := make([]models.SeasonBase, 0, 8)
	for i := 1; i <= 8; i++ {
		seasons = append(seasons, models.SeasonBase{
			Season:  fmt.Sprintf("Season %d", i),
			BaseURL: fmt.Sprintf("https://results.hyrox.com/season-%d/", i),
		})
	}
	return seasons
}

// DefaultCategoryPrefixes returns the event code prefixes known to the platform.
func DefaultCategoryPrefixes() []models.CategoryPrefix {
	return []models.CategoryPrefix{
		{Prefix: "HPRO_", Label: "HYROX PRO"},
		{Prefix: "HDP_", Label: "HYROX PRO DOUBLES"},
		{Prefix: "HD_", Label: "HYROX DOUBLES"},
		{Prefix: "HMR_", Label: "HYROX TEAM RELAY"},
		{Prefix: "HA_", Label: "HYROX ADAPTIVE"},
		{Prefix: "HY1_", Label: "HYROX YOUNGSTARS"},
		{Prefix: "HG_", Label: "HYROX GORUCK"},
		{Prefix: "HE_", Label: "HYROX ELITE"},
		{Prefix: "WCHE", Label: "WCHE ELITE"},
		{Prefix: "H_", Label: "HYROX"},
	}
}

// DefaultConfig returns polite defaults for the public results platform.
func DefaultConfig() *Config {
	return &Config{
		Seasons:          DefaultSeasons(),
		Genders:          []string{"M"},
		CategoryPrefixes: DefaultCategoryPrefixes(),
		DefaultCategory:  "HYROX",
		TargetCategory:   "HYROX",
		PreferOverall:    true,
		PageSize:         25,
		MaxPages:         4,
		Delay:            time.Second,
		Timeout:          30 * time.Second,
		Lang:             "EN_CAP",
		Ranking:          "time_finish_netto",
		OutputFile:       "output/hyrox_results.csv",
		OutputFormat:     "csv",
		DedupeMaxSize:    100000,
		UserAgent:        "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		AcceptLanguage:   "en-US,en;q=0.9",
		Verbose:          false,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if len(c.Seasons) == 0 {
		return fmt.Errorf("at least one season must be configured")
	}
	seen := make(map[string]struct{}, len(c.Seasons))
	for _, season := range c.Seasons {
		if strings.TrimSpace(season.Season) == "" {
			return fmt.Errorf("season label cannot be empty")
		}
		if _, ok := seen[season.Season]; ok {
			return fmt.Errorf("season %q configured twice", season.Season)
		}
		seen[season.Season] = struct{}{}
		if err := validateBaseURL(season.BaseURL); err != nil {
			return fmt.Errorf("season %q: %w", season.Season, err)
		}
	}

	if len(c.Genders) == 0 {
		return fmt.Errorf("at least one gender must be configured")
	}
	for _, g := range c.Genders {
		if strings.TrimSpace(g) == "" {
			return fmt.Errorf("gender code cannot be empty")
		}
	}
	for _, p := range c.CategoryPrefixes {
		if p.Prefix == "" || p.Label == "" {
			return fmt.Errorf("category prefixes need both prefix and label")
		}
	}
	if c.DefaultCategory == "" {
		return fmt.Errorf("default category cannot be empty")
	}

	if c.PageSize <= 0 {
		return fmt.Errorf("page size must be positive")
	}
	if c.MaxPages <= 0 {
		return fmt.Errorf("max pages must be positive")
	}
	if c.Delay < 0 {
		return fmt.Errorf("delay cannot be negative")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.DedupeMaxSize <= 0 {
		return fmt.Errorf("dedupe max size must be positive")
	}
	if c.OutputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}
	if c.OutputFormat != "csv" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be csv or dual")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}

	return nil
}

func validateBaseURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("base URL cannot be empty")
	}
	parsedURL, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}
	return nil
}
