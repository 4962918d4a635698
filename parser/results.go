package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/aluiziolira/go-scrape-hyrox/models"
)

// Row field names understood by RowExtractor.
const (
	FieldRank        = "rank"
	FieldAthlete     = "athlete"
	FieldNationality = "nationality"
	FieldAgeGroup    = "age_group"
	FieldTotalTime   = "total_time"
)

var countPattern = regexp.MustCompile(`\d[\d,]*`)

// Matcher selects the first descendant of a row that carries a field.
type Matcher func(row *goquery.Selection) *goquery.Selection

// ClassPattern matches elements having a class token that matches pattern.
// The platform appends modifier classes, so tokens are matched by regexp, not equality.
func ClassPattern(pattern string) Matcher {
	re := regexp.MustCompile(pattern)
	return func(row *goquery.Selection) *goquery.Selection {
		return row.Find("*").FilterFunction(func(_ int, s *goquery.Selection) bool {
			return hasClassMatching(s, re)
		}).First()
	}
}

// TagClass matches elements of tag carrying the exact class token.
func TagClass(tag, class string) Matcher {
	selector := tag + "." + class
	return func(row *goquery.Selection) *goquery.Selection {
		return row.Find(selector).First()
	}
}

// RowExtractor pulls named fields out of result rows.
type RowExtractor struct {
	Row    func(s *goquery.Selection) bool
	Strip  *regexp.Regexp
	Fields map[string]Matcher
}

// DefaultRowExtractor matches the results list markup of the platform.
func DefaultRowExtractor() *RowExtractor {
	return &RowExtractor{
		Row: func(s *goquery.Selection) bool {
			class, _ := s.Attr("class")
			return strings.Contains(class, "list-group-item") && strings.Contains(class, "row")
		},
		Strip: regexp.MustCompile(`visible-xs|visible-sm`),
		Fields: map[string]Matcher{
			FieldRank:        ClassPattern(`place-primary`),
			FieldAthlete:     ClassPattern(`type-fullname`),
			FieldNationality: TagClass("span", "nation__abbr"),
			FieldAgeGroup:    ClassPattern(`type-age_class`),
			FieldTotalTime:   ClassPattern(`type-time`),
		},
	}
}

// Extract returns the text of every configured field. Missing fields are empty.
func (x *RowExtractor) Extract(row *goquery.Selection) map[string]string {
	if x.Strip != nil {
		// Narrow-viewport labels duplicate cell text and would be concatenated into it.
		row.Find("*").FilterFunction(func(_ int, s *goquery.Selection) bool {
			return hasClassMatching(s, x.Strip)
		}).Remove()
	}

	out := make(map[string]string, len(x.Fields))
	for name, match := range x.Fields {
		sel := match(row)
		if sel == nil || sel.Length() == 0 {
			out[name] = ""
			continue
		}
		out[name] = strippedText(sel)
	}
	return out
}

// ParseRows extracts athlete rows from a results page, skipping header and decorative rows.
func (x *RowExtractor) ParseRows(doc *goquery.Document) []*models.AthleteResult {
	var results []*models.AthleteResult
	doc.Find("li").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return x.Row(s)
	}).Each(func(_ int, row *goquery.Selection) {
		fields := x.Extract(row)
		rank := fields[FieldRank]
		if rank == "" || strings.EqualFold(rank, "rank") {
			return
		}
		if fields[FieldAthlete] == "" {
			return
		}
		results = append(results, &models.AthleteResult{
			Rank:        rank,
			Athlete:     fields[FieldAthlete],
			Nationality: fields[FieldNationality],
			AgeGroup:    fields[FieldAgeGroup],
			TotalTime:   fields[FieldTotalTime],
		})
	})
	return results
}

// ParseTotalCount reads the "1,883 Results" summary. It returns 0 when absent.
func ParseTotalCount(doc *goquery.Document) int {
	el := doc.Find(".list-info__text.str_num").First()
	if el.Length() == 0 {
		return 0
	}
	match := countPattern.FindString(el.Text())
	if match == "" {
		return 0
	}
	n, err := strconv.Atoi(strings.ReplaceAll(match, ",", ""))
	if err != nil {
		return 0
	}
	return n
}

func hasClassMatching(s *goquery.Selection, re *regexp.Regexp) bool {
	class, ok := s.Attr("class")
	if !ok {
		return false
	}
	for _, token := range strings.Fields(class) {
		if re.MatchString(token) {
			return true
		}
	}
	return false
}

// strippedText joins the trimmed text nodes under sel without separators.
func strippedText(sel *goquery.Selection) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(strings.TrimSpace(n.Data))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return b.String()
}
