// Package scraper discovers events on the results platform and collects their rankings.
package scraper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/aluiziolira/go-scrape-hyrox/config"
	"github.com/aluiziolira/go-scrape-hyrox/models"
	"github.com/aluiziolira/go-scrape-hyrox/parser"
	"github.com/aluiziolira/go-scrape-hyrox/pipeline"
)

// KeyOutcome is the terminal state of one collection key.
type KeyOutcome string

const (
	KeyDone        KeyOutcome = "done"
	KeySkipped     KeyOutcome = "skipped"
	KeyEmpty       KeyOutcome = "empty"
	KeyFailed      KeyOutcome = "failed"
	KeyInterrupted KeyOutcome = "interrupted" // stopped by cancellation, not marked done
)

// target is one (event, gender) combination with the annotations copied onto its rows.
type target struct {
	season     models.SeasonBase
	eventGroup string
	option     models.EventOption
	category   string
	gender     string
}

func (t target) key() models.CollectionKey {
	return models.CollectionKey{EventCode: t.option.Code, Gender: t.gender}
}

// Scraper walks seasons, event groups, event codes and genders, appending
// every results page to the pipeline as soon as it is parsed.
type Scraper struct {
	cfg        *config.Config
	fetcher    *Fetcher
	discovery  *Discovery
	classifier *parser.Classifier
	extractor  *parser.RowExtractor
	done       *pipeline.DoneSet
	Metrics    *Metrics

	result *models.RunResult
	log    *slog.Logger
}

// NewScraper builds a scraper. done holds the keys already present in the store.
func NewScraper(cfg *config.Config, done *pipeline.DoneSet) (*Scraper, error) {
	if done == nil {
		done = pipeline.NewDoneSet()
	}
	metrics := NewMetrics()
	fetcher, err := NewFetcher(cfg, metrics)
	if err != nil {
		return nil, err
	}
	return &Scraper{
		cfg:        cfg,
		fetcher:    fetcher,
		discovery:  NewDiscovery(fetcher, cfg),
		classifier: parser.NewClassifier(cfg.CategoryPrefixes, cfg.DefaultCategory),
		extractor:  parser.DefaultRowExtractor(),
		done:       done,
		Metrics:    metrics,
	}, nil
}

// Fetcher exposes the underlying fetcher.
func (s *Scraper) Fetcher() *Fetcher {
	return s.fetcher
}

// Run collects every configured season in order. Remote failures are logged and
// skipped at the smallest unit; only a store write failure stops the run.
func (s *Scraper) Run(ctx context.Context, p *pipeline.Pipeline) (*models.RunResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.result = &models.RunResult{
		RunID:     uuid.NewString(),
		StartTime: time.Now(),
	}
	s.log = slog.Default().With(slog.String("run_id", s.result.RunID))
	s.log.Info("collection started",
		slog.Int("seasons", len(s.cfg.Seasons)),
		slog.Int("already_done", s.done.Len()),
	)

	var runErr error
	for _, season := range s.cfg.Seasons {
		if ctx.Err() != nil {
			break
		}
		if err := s.collectSeason(ctx, season, p); err != nil {
			runErr = err
			break
		}
	}
	if ctx.Err() != nil {
		s.result.Interrupted = true
		s.log.Warn("collection interrupted", slog.Any("error", ctx.Err()))
	}

	s.result.EndTime = time.Now()
	s.result.RequestCount = s.fetcher.RequestCount()
	s.result.ErrorCount = s.fetcher.ErrorCount()
	s.result.FailedURLs = s.fetcher.snapshotFailedURLs()
	s.result.ErrorsByType = s.fetcher.snapshotErrors()
	return s.result, runErr
}

func (s *Scraper) collectSeason(ctx context.Context, season models.SeasonBase, p *pipeline.Pipeline) error {
	log := s.log.With(slog.String("season", season.Season))
	s.result.Seasons++

	groups, err := s.discovery.EventGroups(ctx, season.BaseURL)
	if err != nil {
		log.Error("loading event groups failed, skipping season", slog.String("base_url", season.BaseURL), slog.Any("error", err))
		return nil
	}
	if len(groups) == 0 {
		log.Info("no event groups found, season inactive?")
		return nil
	}
	log.Info("event groups found", slog.Int("count", len(groups)))

	for _, group := range groups {
		if ctx.Err() != nil {
			return nil
		}
		if err := s.collectGroup(ctx, season, group, p, log); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scraper) collectGroup(ctx context.Context, season models.SeasonBase, group models.EventGroup, p *pipeline.Pipeline, log *slog.Logger) error {
	log = log.With(slog.String("event_group", group.Text))
	s.result.EventGroups++

	options, err := s.discovery.EventCodes(ctx, season.BaseURL, group.Value)
	if err != nil {
		log.Error("loading event codes failed, skipping group", slog.Any("error", err))
		return nil
	}
	if len(options) == 0 {
		log.Info("no event codes")
		return nil
	}

	// Codes are stored normalised, so the done-set must see the same form.
	for i := range options {
		options[i].Code = parser.NormalizeField(options[i].Code)
		options[i].Text = parser.NormalizeField(options[i].Text)
	}

	selected := SelectEventOptions(options, s.classifier, s.cfg.TargetCategory, s.cfg.PreferOverall)
	if len(selected) == 0 {
		log.Info("no events in target category, skipping group", slog.String("category", s.cfg.TargetCategory))
		return nil
	}
	log.Info("events selected", slog.Any("events", optionTexts(selected)))

	for _, option := range selected {
		for _, gender := range s.cfg.Genders {
			if ctx.Err() != nil {
				return nil
			}
			t := target{
				season:     season,
				eventGroup: group.Value,
				option:     option,
				category:   s.classifier.Category(option.Code),
				gender:     parser.NormalizeField(gender),
			}
			outcome, err := s.collectKey(ctx, t, p, log)
			s.countOutcome(outcome)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// collectKey runs one key through pending -> fetching_page(n) -> done, or ends it
// as skipped, empty or failed. Only pipeline errors are returned.
func (s *Scraper) collectKey(ctx context.Context, t target, p *pipeline.Pipeline, log *slog.Logger) (KeyOutcome, error) {
	key := t.key()
	log = log.With(
		slog.String("event_code", key.EventCode),
		slog.String("event_label", t.option.Text),
		slog.String("gender", key.Gender),
	)

	if s.done.Has(key) {
		log.Info("already collected, skipping")
		return KeySkipped, nil
	}

	first, err := s.fetcher.ResultsPage(ctx, t.season.BaseURL, t.eventGroup, key.EventCode, key.Gender, 1)
	if err != nil {
		if ctx.Err() != nil {
			log.Warn("interrupted before first page")
			return KeyInterrupted, nil
		}
		log.Error("fetching first page failed", slog.Any("error", err))
		return KeyFailed, nil
	}
	doc := parseDocument(first, log)
	total := parser.ParseTotalCount(doc)
	if total == 0 {
		log.Info("0 results")
		return KeyEmpty, nil
	}

	totalPages := PageCount(total, s.cfg.PageSize)
	fetchPages := min(totalPages, s.cfg.MaxPages)
	log.Info("collecting",
		slog.String("category", t.category),
		slog.Int("results", total),
		slog.Int("pages", totalPages),
		slog.Int("fetch_pages", fetchPages),
	)

	collected := 0
	lastRank := 0
	interrupted := false
	for page := 1; page <= fetchPages; page++ {
		if page > 1 {
			if ctx.Err() != nil {
				interrupted = true
				break
			}
			next, err := s.fetcher.ResultsPage(ctx, t.season.BaseURL, t.eventGroup, key.EventCode, key.Gender, page)
			if err != nil {
				if ctx.Err() != nil {
					interrupted = true
					break
				}
				log.Error("fetching page failed, keeping partial results", slog.Int("page", page), slog.Any("error", err))
				break
			}
			doc = parseDocument(next, log)
		}

		rows := s.extractor.ParseRows(doc)
		for _, row := range rows {
			t.annotate(row)
			if rank, err := strconv.Atoi(row.Rank); err == nil {
				if rank < lastRank {
					log.Warn("rank went backwards", slog.Int("page", page), slog.Int("rank", rank), slog.Int("previous", lastRank))
				}
				lastRank = rank
			}
		}

		written, err := p.Process(rows...)
		if err != nil {
			return KeyFailed, fmt.Errorf("append %s page %d: %w", key, page, err)
		}
		collected += written
		s.result.PageCount++
		s.result.RowCount += written
		s.Metrics.IncPages()
		s.Metrics.AddRows(written)

		if page%10 == 0 {
			log.Info("progress", slog.Int("page", page), slog.Int("total_pages", totalPages), slog.Int("collected", collected))
		}
	}

	if interrupted {
		log.Warn("interrupted, key left pending", slog.Int("rows", collected))
		return KeyInterrupted, nil
	}

	// Marked even after an early stop so a failing key is not retried within this run.
	s.done.Add(key)
	log.Info("rows saved", slog.Int("rows", collected))
	return KeyDone, nil
}

func (t target) annotate(r *models.AthleteResult) {
	r.Season = t.season.Season
	r.EventGroup = t.eventGroup
	r.EventCode = t.option.Code
	r.EventLabel = t.option.Text
	r.Category = t.category
	r.Gender = t.gender
}

func (s *Scraper) countOutcome(outcome KeyOutcome) {
	switch outcome {
	case KeyDone:
		s.result.KeysDone++
	case KeySkipped:
		s.result.KeysSkipped++
	case KeyEmpty:
		s.result.KeysEmpty++
	case KeyFailed:
		s.result.KeysFailed++
	case KeyInterrupted:
		s.result.KeysInterrupted++
	}
	s.Metrics.IncKey(string(outcome))
}

// PageCount returns ceil(total/pageSize).
func PageCount(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// SelectEventOptions keeps codes of the target category (all when empty). With
// preferOverall, cross-day overall codes replace the per-day codes when present.
func SelectEventOptions(options []models.EventOption, classifier *parser.Classifier, category string, preferOverall bool) []models.EventOption {
	var overall, daily []models.EventOption
	for _, o := range options {
		if category != "" && classifier.Category(o.Code) != category {
			continue
		}
		if strings.Contains(strings.ToUpper(o.Code), "OVERALL") {
			overall = append(overall, o)
		} else {
			daily = append(daily, o)
		}
	}
	if !preferOverall {
		return append(overall, daily...)
	}
	if len(overall) > 0 {
		return overall
	}
	return daily
}

func parseDocument(page *Page, log *slog.Logger) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		log.Warn("unparseable results page", slog.String("url", page.URL), slog.Any("error", err))
		doc, _ = goquery.NewDocumentFromReader(strings.NewReader(""))
	}
	return doc
}

func optionTexts(options []models.EventOption) []string {
	out := make([]string, 0, len(options))
	for _, o := range options {
		out = append(out, o.Text)
	}
	return out
}
