package parser

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/aluiziolira/go-scrape-hyrox/config"
	"github.com/aluiziolira/go-scrape-hyrox/models"
)

func mustDoc(t *testing.T, body string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func TestClassifierCategory(t *testing.T) {
	c := NewClassifier(config.DefaultCategoryPrefixes(), "HYROX")

	tests := []struct {
		code     string
		expected string
	}{
		{code: "H_LR3MS4JI3A1", expected: "HYROX"},
		{code: "HPRO_LR3MS4JI3A2", expected: "HYROX PRO"},
		{code: "hpro_lower", expected: "HYROX PRO"},
		{code: "HDP_ABC", expected: "HYROX PRO DOUBLES"},
		{code: "HD_ABC", expected: "HYROX DOUBLES"},
		{code: "WCHE_2024", expected: "WCHE ELITE"},
		{code: "HE_ELITE15", expected: "HYROX ELITE"},
		{code: "XYZ", expected: "HYROX"},
		{code: "", expected: "HYROX"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := c.Category(tt.code); got != tt.expected {
				t.Errorf("Category(%q) = %q, want %q", tt.code, got, tt.expected)
			}
		})
	}
}

func TestClassifierLongestPrefixWinsRegardlessOfOrder(t *testing.T) {
	c := NewClassifier([]models.CategoryPrefix{
		{Prefix: "h", Label: "generic"},
		{Prefix: "hd", Label: "doubles"},
		{Prefix: "HDP", Label: "pro doubles"},
	}, "other")

	if got := c.Category("hdp_1"); got != "pro doubles" {
		t.Fatalf("Category(hdp_1) = %q, want pro doubles", got)
	}
	if got := c.Category("HD_1"); got != "doubles" {
		t.Fatalf("Category(HD_1) = %q, want doubles", got)
	}
	if got := c.Category("H_1"); got != "generic" {
		t.Fatalf("Category(H_1) = %q, want generic", got)
	}
	if got := c.Category("Z_1"); got != "other" {
		t.Fatalf("Category(Z_1) = %q, want other", got)
	}
}

const resultsPage = `<html><body>
<div class="list-info"><li class="list-info__item"><div class="list-info__text str_num">1,883 Results</div></li></div>
<ul class="list-group">
  <li class="list-group-item list-group-item-header row">
    <div class="list-field type-place place-primary">Rank</div>
    <div class="list-field type-fullname">Name</div>
  </li>
  <li class="list-group-item row">
    <div class="list-field type-place place-primary numeric">
      <div class="list-label visible-xs-block visible-sm-block">Rank</div>1
    </div>
    <h4 class="list-field type-fullname"><a href="#">Doe, John</a></h4>
    <div class="list-field type-nation_flag"><span class="nation__abbr">GER</span></div>
    <div class="list-field type-age_class"><div class="list-label visible-xs-block">Age Group</div>30-34</div>
    <div class="list-field type-time"><div class="list-label visible-sm-block">Total</div>0:58:12</div>
  </li>
  <li class="list-group-item row">
    <div class="list-field type-place place-primary numeric">2</div>
    <h4 class="list-field type-fullname"><a href="#">Roe, Jane / Poe, Max</a></h4>
    <div class="list-field type-age_class">25-29</div>
    <div class="list-field type-time">59:01</div>
  </li>
  <li class="list-group-item row">
    <div class="list-field type-place place-primary">3</div>
    <h4 class="list-field type-fullname"></h4>
  </li>
  <li class="list-group-item row">
    <div class="list-field type-place"></div>
    <h4 class="list-field type-fullname">Decorative</h4>
  </li>
</ul>
</body></html>`

func TestParseTotalCount(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected int
	}{
		{name: "thousands separator", body: resultsPage, expected: 1883},
		{name: "plain", body: `<div class="list-info__text str_num">30 Results</div>`, expected: 30},
		{name: "missing", body: `<div class="list-info__text">30 Results</div>`, expected: 0},
		{name: "no digits", body: `<div class="list-info__text str_num">No Results</div>`, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseTotalCount(mustDoc(t, tt.body)); got != tt.expected {
				t.Errorf("ParseTotalCount() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestParseRows(t *testing.T) {
	rows := DefaultRowExtractor().ParseRows(mustDoc(t, resultsPage))
	if len(rows) != 2 {
		t.Fatalf("rows=%d, want 2", len(rows))
	}

	first := rows[0]
	if first.Rank != "1" || first.Athlete != "Doe, John" || first.Nationality != "GER" {
		t.Fatalf("unexpected first row: %+v", first)
	}
	if first.AgeGroup != "30-34" {
		t.Fatalf("age group=%q, want mobile label stripped", first.AgeGroup)
	}
	if first.TotalTime != "0:58:12" {
		t.Fatalf("total time=%q, want 0:58:12", first.TotalTime)
	}

	second := rows[1]
	if second.Nationality != "" {
		t.Fatalf("nationality=%q, want empty", second.Nationality)
	}
	if second.Rank != "2" || second.Athlete != "Roe, Jane / Poe, Max" || second.AgeGroup != "25-29" || second.TotalTime != "59:01" {
		t.Fatalf("unexpected second row: %+v", second)
	}
}

func TestParseRowsHeaderOnly(t *testing.T) {
	body := `<ul><li class="list-group-item row">
		<div class="place-primary">Rank</div><div class="type-fullname">Name</div>
	</li></ul>`
	if rows := DefaultRowExtractor().ParseRows(mustDoc(t, body)); len(rows) != 0 {
		t.Fatalf("rows=%d, want 0", len(rows))
	}
}

func TestRowExtractorCustomFields(t *testing.T) {
	x := &RowExtractor{
		Row: func(s *goquery.Selection) bool { return s.HasClass("entry") },
		Fields: map[string]Matcher{
			FieldRank:    TagClass("b", "pos"),
			FieldAthlete: ClassPattern(`^who`),
		},
	}
	body := `<ul><li class="entry"><b class="pos">7</b><span class="who--bold">Someone</span></li></ul>`
	rows := x.ParseRows(mustDoc(t, body))
	if len(rows) != 1 || rows[0].Rank != "7" || rows[0].Athlete != "Someone" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
	if rows[0].TotalTime != "" {
		t.Fatalf("unconfigured field should be empty")
	}
}

func TestValidateResult(t *testing.T) {
	tests := []struct {
		name    string
		result  *models.AthleteResult
		wantErr bool
	}{
		{
			name:    "valid result",
			result:  &models.AthleteResult{EventCode: "H_1", Gender: "M", Rank: "1", Athlete: "Doe, John"},
			wantErr: false,
		},
		{name: "nil", result: nil, wantErr: true},
		{
			name:    "missing key",
			result:  &models.AthleteResult{Rank: "1", Athlete: "Doe, John"},
			wantErr: true,
		},
		{
			name:    "missing rank",
			result:  &models.AthleteResult{EventCode: "H_1", Gender: "M", Athlete: "Doe, John"},
			wantErr: true,
		},
		{
			name:    "missing athlete",
			result:  &models.AthleteResult{EventCode: "H_1", Gender: "M", Rank: "1"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateResult(tt.result)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateResult() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNormalizeResult(t *testing.T) {
	r := &models.AthleteResult{Athlete: "  Doe,\n  John ", TotalTime: " 0:58:12 "}
	NormalizeResult(r)
	if r.Athlete != "Doe, John" || r.TotalTime != "0:58:12" {
		t.Fatalf("unexpected normalized result: %+v", r)
	}
}
