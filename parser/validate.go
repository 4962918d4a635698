package parser

import (
	"fmt"
	"strings"

	"github.com/aluiziolira/go-scrape-hyrox/models"
)

// ValidateResult ensures a result carries its collection key and the athlete columns.
func ValidateResult(r *models.AthleteResult) error {
	if r == nil {
		return fmt.Errorf("result is nil")
	}
	if strings.TrimSpace(r.EventCode) == "" || strings.TrimSpace(r.Gender) == "" {
		return fmt.Errorf("result missing collection key")
	}
	if strings.TrimSpace(r.Rank) == "" {
		return fmt.Errorf("result missing rank for %s", r.Athlete)
	}
	if strings.TrimSpace(r.Athlete) == "" {
		return fmt.Errorf("result missing athlete at rank %s", r.Rank)
	}
	return nil
}

// NormalizeResult trims whitespace from every column.
func NormalizeResult(r *models.AthleteResult) {
	for _, field := range []*string{
		&r.Season, &r.EventGroup, &r.EventCode, &r.EventLabel, &r.Category, &r.Gender,
		&r.Rank, &r.Athlete, &r.Nationality, &r.AgeGroup, &r.TotalTime,
	} {
		*field = NormalizeField(*field)
	}
}

// NormalizeField trims s and collapses inner whitespace runs to one space.
func NormalizeField(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
