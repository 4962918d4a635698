package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aluiziolira/go-scrape-hyrox/models"
)

const storeCSV = `season,event_main_group,event_code,event_label,category,gender,rank,athlete,nationality,age_group,total_time
Season 7,2024 Berlin,H_BER_OVERALL,HYROX - Overall,HYROX,M,1,Athlete One,GER,30-34,0:58:10
Season 7,2024 Berlin,H_BER_OVERALL,HYROX - Overall,HYROX,M,2,Athlete Two,,25-29,1:02:00
Season 7,2025 Hamburg,H_HAM_OVERALL,HYROX - Overall,HYROX,W,1,Athlete Three,NED,30-34,1:05:30
Season 7,2025 Hamburg,H_HAM_OVERALL,HYROX - Overall,HYROX,W,2,Athlete Four,GER,35-39,DNF
Season 6,World Championships,H_WC_OVERALL,HYROX - Overall,HYROX,M,1,Athlete Five,USA,30-34,55:20
Season 6,2023 Vienna,HD_VIE_OVERALL,HYROX DOUBLES - Overall,HYROX DOUBLES,M,1,Pair Six,AUT,,52:13
`

func TestReadDropsUnparseableTimes(t *testing.T) {
	entries, dropped, err := Read(strings.NewReader(storeCSV))
	require.NoError(t, err)

	assert.Equal(t, 1, dropped)
	require.Len(t, entries, 5)
	assert.Equal(t, 3490, entries[0].Seconds)
	assert.Equal(t, 2024, entries[0].Year)
	assert.Equal(t, "Athlete One", entries[0].Athlete)
	assert.Equal(t, 0, entries[3].Year)
	assert.Equal(t, 3320, entries[3].Seconds)
}

func TestReadEmptyStore(t *testing.T) {
	entries, dropped, err := Read(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Zero(t, dropped)
}

func TestReadRejectsForeignHeader(t *testing.T) {
	_, _, err := Read(strings.NewReader("title,price\nA,1\n"))
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hyrox_results.csv")
	require.NoError(t, os.WriteFile(path, []byte(storeCSV), 0o644))

	entries, dropped, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, entries, 5)
	assert.Equal(t, 1, dropped)

	_, _, err = Load(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
}

func TestBySeason(t *testing.T) {
	entries, _, err := Read(strings.NewReader(storeCSV))
	require.NoError(t, err)

	summaries := BySeason(entries)
	require.Len(t, summaries, 2)

	assert.Equal(t, SeasonSummary{Season: "Season 6", Finishers: 2, Best: 3133, Median: 3226.5, Mean: 3226.5}, summaries[0])

	s7 := summaries[1]
	assert.Equal(t, "Season 7", s7.Season)
	assert.Equal(t, 3, s7.Finishers)
	assert.Equal(t, 3490, s7.Best)
	assert.Equal(t, float64(3720), s7.Median)
	assert.InDelta(t, 3713.333, s7.Mean, 0.001)
}

func TestBestPerEvent(t *testing.T) {
	entries, _, err := Read(strings.NewReader(storeCSV))
	require.NoError(t, err)

	best := BestPerEvent(entries)
	require.Len(t, best, 4)

	assert.Equal(t, "2023 Vienna", best[0].EventGroup)
	assert.Equal(t, "2024 Berlin", best[1].EventGroup)
	assert.Equal(t, 3490, best[1].Best)
	assert.Equal(t, "Season 7 | 2024 Berlin", best[1].Label())
	assert.Equal(t, "2025 Hamburg", best[2].EventGroup)
	assert.Equal(t, "World Championships", best[3].EventGroup)
}

func TestFilter(t *testing.T) {
	entries, _, err := Read(strings.NewReader(storeCSV))
	require.NoError(t, err)

	assert.Len(t, Apply(entries, Filter{}), 5)
	assert.Len(t, Apply(entries, Filter{Seasons: []string{"Season 6"}}), 2)
	assert.Len(t, Apply(entries, Filter{Gender: "W"}), 1)
	assert.Len(t, Apply(entries, Filter{Category: "HYROX", Gender: "M"}), 3)
	assert.Len(t, Apply(entries, Filter{Nationality: "GER"}), 1)
}

func TestPrint(t *testing.T) {
	entries, _, err := Read(strings.NewReader(storeCSV))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Print(&buf, entries))

	out := buf.String()
	assert.Contains(t, out, "SEASON")
	assert.Contains(t, out, "0:52:13")
	assert.Contains(t, out, "Season 7 | 2024 Berlin")
	assert.Contains(t, out, "0:58:10")
}

func TestBySeasonOrdersSeasonNumbers(t *testing.T) {
	entries := []Entry{
		{AthleteResult: models.AthleteResult{Season: "Season 10"}, Seconds: 3600},
		{AthleteResult: models.AthleteResult{Season: "Season 2"}, Seconds: 3700},
		{AthleteResult: models.AthleteResult{Season: "Season 1"}, Seconds: 3800},
		{AthleteResult: models.AthleteResult{Season: "Archive"}, Seconds: 3900},
	}

	var seasons []string
	for _, s := range BySeason(entries) {
		seasons = append(seasons, s.Season)
	}
	assert.Equal(t, []string{"Archive", "Season 1", "Season 2", "Season 10"}, seasons)
}
