// Package report reads the results store back and summarises finish times.
package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"slices"
	"sort"
	"strconv"

	"github.com/aluiziolira/go-scrape-hyrox/models"
	"github.com/aluiziolira/go-scrape-hyrox/parser"
)

var trailingNumber = regexp.MustCompile(`^(.*?)(\d+)$`)

// Entry is a stored result with its derived columns.
type Entry struct {
	models.AthleteResult
	Seconds int
	Year    int // 0 when the event group carries no year
}

// Filter narrows entries. Empty fields match everything.
type Filter struct {
	Seasons     []string
	Gender      string
	Category    string
	Nationality string
}

// Match reports whether e passes the filter.
func (f Filter) Match(e Entry) bool {
	if len(f.Seasons) > 0 && !slices.Contains(f.Seasons, e.Season) {
		return false
	}
	if f.Gender != "" && e.Gender != f.Gender {
		return false
	}
	if f.Category != "" && e.Category != f.Category {
		return false
	}
	if f.Nationality != "" && e.Nationality != f.Nationality {
		return false
	}
	return true
}

// SeasonSummary aggregates finish times of one season.
type SeasonSummary struct {
	Season    string
	Finishers int
	Best      int
	Median    float64
	Mean      float64
}

// EventBest is the fastest finish of one event.
type EventBest struct {
	Season     string
	EventGroup string
	Year       int
	Best       int
}

// Label is the chart label of the event, "Season 7 | 2024 Berlin".
func (e EventBest) Label() string {
	return e.Season + " | " + e.EventGroup
}

// Load reads the CSV store at path. Rows whose total_time does not parse
// are dropped and counted.
func Load(path string) ([]Entry, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open results store: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read parses CSV rows in the store layout, locating columns by header name.
func Read(r io.Reader) ([]Entry, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("read results header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}
	if _, ok := index["total_time"]; !ok {
		return nil, 0, fmt.Errorf("results store has no total_time column")
	}

	var entries []Entry
	dropped := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("read results row: %w", err)
		}
		field := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(record) {
				return ""
			}
			return record[i]
		}

		seconds, ok := parser.ParseElapsed(field("total_time"))
		if !ok {
			dropped++
			continue
		}
		e := Entry{
			AthleteResult: models.AthleteResult{
				Season:      field("season"),
				EventGroup:  field("event_main_group"),
				EventCode:   field("event_code"),
				EventLabel:  field("event_label"),
				Category:    field("category"),
				Gender:      field("gender"),
				Rank:        field("rank"),
				Athlete:     field("athlete"),
				Nationality: field("nationality"),
				AgeGroup:    field("age_group"),
				TotalTime:   field("total_time"),
			},
			Seconds: seconds,
		}
		e.Year, _ = parser.YearFromGroup(e.EventGroup)
		entries = append(entries, e)
	}
	return entries, dropped, nil
}

// Apply returns the entries matching f.
func Apply(entries []Entry, f Filter) []Entry {
	var out []Entry
	for _, e := range entries {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	return out
}

// BySeason computes finishers, best, median and mean per season, ordered by season number.
func BySeason(entries []Entry) []SeasonSummary {
	times := make(map[string][]int)
	for _, e := range entries {
		times[e.Season] = append(times[e.Season], e.Seconds)
	}

	summaries := make([]SeasonSummary, 0, len(times))
	for season, values := range times {
		sort.Ints(values)
		sum := 0
		for _, v := range values {
			sum += v
		}
		summaries = append(summaries, SeasonSummary{
			Season:    season,
			Finishers: len(values),
			Best:      values[0],
			Median:    median(values),
			Mean:      float64(sum) / float64(len(values)),
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return seasonLess(summaries[i].Season, summaries[j].Season)
	})
	return summaries
}

// BestPerEvent returns the fastest time per (season, event group), ordered by
// year then event group. Groups without a year sort last.
func BestPerEvent(entries []Entry) []EventBest {
	type eventKey struct{ season, group string }
	best := make(map[eventKey]*EventBest)
	for _, e := range entries {
		k := eventKey{e.Season, e.EventGroup}
		if cur, ok := best[k]; !ok {
			best[k] = &EventBest{Season: e.Season, EventGroup: e.EventGroup, Year: e.Year, Best: e.Seconds}
		} else if e.Seconds < cur.Best {
			cur.Best = e.Seconds
		}
	}

	out := make([]EventBest, 0, len(best))
	for _, b := range best {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if (a.Year == 0) != (b.Year == 0) {
			return b.Year == 0
		}
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.EventGroup != b.EventGroup {
			return a.EventGroup < b.EventGroup
		}
		return seasonLess(a.Season, b.Season)
	})
	return out
}

// seasonLess orders labels by their text and then by a trailing number,
// so "Season 2" sorts before "Season 10".
func seasonLess(a, b string) bool {
	aText, aNum, aOK := splitTrailingNumber(a)
	bText, bNum, bOK := splitTrailingNumber(b)
	if aOK && bOK && aText == bText && aNum != bNum {
		return aNum < bNum
	}
	return a < b
}

func splitTrailingNumber(s string) (string, int, bool) {
	m := trailingNumber.FindStringSubmatch(s)
	if m == nil {
		return s, 0, false
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return s, 0, false
	}
	return m[1], n, true
}

func median(sorted []int) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return float64(sorted[n/2])
	}
	return float64(sorted[n/2-1]+sorted[n/2]) / 2
}
