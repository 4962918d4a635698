// Package models defines data structures for the results collector.
package models

import "time"

// SeasonBase binds a season label to the base URL of its results site.
type SeasonBase struct {
	Season  string
	BaseURL string
}

// EventGroup is a city/year grouping inside a season, as offered by the search fields API.
type EventGroup struct {
	Value string
	Text  string
}

// EventOption is one race instance (or its cross-day overall ranking) inside an event group.
type EventOption struct {
	Code string
	Text string
}

// CategoryPrefix maps an event code prefix to a category label.
type CategoryPrefix struct {
	Prefix string
	Label  string
}

// AthleteResult represents one finisher row from a results listing.
type AthleteResult struct {
	Season      string `csv:"season" json:"season"`
	EventGroup  string `csv:"event_main_group" json:"event_main_group"`
	EventCode   string `csv:"event_code" json:"event_code"`
	EventLabel  string `csv:"event_label" json:"event_label"`
	Category    string `csv:"category" json:"category"`
	Gender      string `csv:"gender" json:"gender"`
	Rank        string `csv:"rank" json:"rank"`
	Athlete     string `csv:"athlete" json:"athlete"`
	Nationality string `csv:"nationality" json:"nationality"`
	AgeGroup    string `csv:"age_group" json:"age_group"`
	TotalTime   string `csv:"total_time" json:"total_time"`
}

// Key returns the collection key the result was fetched under.
func (r *AthleteResult) Key() CollectionKey {
	return CollectionKey{EventCode: r.EventCode, Gender: r.Gender}
}

// CollectionKey is the unit of resumable work: one event code for one gender.
type CollectionKey struct {
	EventCode string
	Gender    string
}

// String renders the key for logs.
func (k CollectionKey) String() string {
	return k.EventCode + "/" + k.Gender
}

// RunResult holds the overall result of a collection run.
type RunResult struct {
	RunID           string
	StartTime       time.Time
	EndTime         time.Time
	Seasons         int
	EventGroups     int
	KeysDone        int
	KeysSkipped     int
	KeysEmpty       int
	KeysFailed      int
	KeysInterrupted int
	PageCount       int
	RowCount        int
	RequestCount    int
	ErrorCount      int
	FailedURLs      []string
	ErrorsByType    map[string]int
	Interrupted     bool
}
