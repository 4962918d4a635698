package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/aluiziolira/go-scrape-hyrox/config"
	"github.com/aluiziolira/go-scrape-hyrox/models"
)

// optionPath is a key path into the search fields JSON leading to an option list.
type optionPath []string

var (
	eventGroupPaths = []optionPath{
		{"branches", "lists", "fields", "event_main_group", "data"},
	}
	eventCodePaths = []optionPath{
		{"branches", "lists", "fields", "event", "data"},
		{"event", "data"},
	}
)

// option is one (value, text) pair from a search field list.
type option struct {
	Value string
	Text  string
}

// lookup is the outcome of resolving option paths: either a list was found or it was not.
type lookup struct {
	Found   bool
	Path    optionPath
	Options []option
}

// Discovery lists event groups and event codes through the search fields API.
type Discovery struct {
	fetcher *Fetcher
	cfg     *config.Config
}

// NewDiscovery returns a discovery client that shares the fetcher's pacing.
func NewDiscovery(fetcher *Fetcher, cfg *config.Config) *Discovery {
	return &Discovery{fetcher: fetcher, cfg: cfg}
}

// EventGroups lists the city/year groups of a season. A season without data or an
// unexpected response shape yields an empty slice.
func (d *Discovery) EventGroups(ctx context.Context, baseURL string) ([]models.EventGroup, error) {
	params := d.baseParams()
	res, err := d.searchFields(ctx, baseURL, params, eventGroupPaths)
	if err != nil {
		return nil, err
	}
	groups := make([]models.EventGroup, 0, len(res.Options))
	for _, o := range res.Options {
		groups = append(groups, models.EventGroup{Value: o.Value, Text: o.Text})
	}
	return groups, nil
}

// EventCodes lists the race instances of one event group. Both the nested and the
// top-level response shapes are accepted.
func (d *Discovery) EventCodes(ctx context.Context, baseURL, eventGroup string) ([]models.EventOption, error) {
	params := d.baseParams()
	params.Set("options[b][lists][event_main_group]", eventGroup)
	params.Set("options[b][lists][event]", "")
	params.Set("options[b][lists][ranking]", d.cfg.Ranking)
	res, err := d.searchFields(ctx, baseURL, params, eventCodePaths)
	if err != nil {
		return nil, err
	}
	codes := make([]models.EventOption, 0, len(res.Options))
	for _, o := range res.Options {
		codes = append(codes, models.EventOption{Code: o.Value, Text: o.Text})
	}
	return codes, nil
}

func (d *Discovery) baseParams() url.Values {
	params := url.Values{}
	params.Set("content", "ajax2")
	params.Set("func", "getSearchFields")
	params.Set("options[lang]", d.cfg.Lang)
	params.Set("options[pid]", "start")
	return params
}

func (d *Discovery) searchFields(ctx context.Context, baseURL string, params url.Values, paths []optionPath) (lookup, error) {
	endpoint, err := url.JoinPath(baseURL, "index.php")
	if err != nil {
		return lookup{}, fmt.Errorf("build search fields url: %w", err)
	}
	page, err := d.fetcher.Get(ctx, KindDiscovery, endpoint, params)
	if err != nil {
		return lookup{}, err
	}

	doc, err := decodeJSON(page.Body)
	if err != nil {
		slog.Debug("search fields response is not JSON", slog.String("url", page.URL), slog.Any("error", err))
		return lookup{}, nil
	}
	res := resolveOptions(doc, paths...)
	if !res.Found {
		slog.Debug("search fields response has no option list", slog.String("url", page.URL))
	}
	return res, nil
}

// decodeJSON keeps numbers as json.Number so large option ids keep their digits.
func decodeJSON(body []byte) (any, error) {
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	var doc any
	if err := decoder.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// resolveOptions tries each path in order and returns the first list found.
func resolveOptions(doc any, paths ...optionPath) lookup {
	for _, path := range paths {
		node, ok := walk(doc, path)
		if !ok {
			continue
		}
		items, ok := node.([]any)
		if !ok {
			continue
		}
		return lookup{Found: true, Path: path, Options: parseOptions(items)}
	}
	return lookup{}
}

func walk(node any, path optionPath) (any, bool) {
	for _, key := range path {
		m, ok := node.(map[string]any)
		if !ok {
			return nil, false
		}
		node, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return node, true
}

// parseOptions reads {"v": [value, text, ...]} items, skipping malformed entries.
func parseOptions(items []any) []option {
	out := make([]option, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		v, ok := m["v"].([]any)
		if !ok || len(v) < 2 {
			continue
		}
		value := scalar(v[0])
		if value == "" {
			continue
		}
		out = append(out, option{Value: value, Text: scalar(v[1])})
	}
	return out
}

func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
