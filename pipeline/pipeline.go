// Package pipeline validates, de-duplicates and durably appends athlete results.
package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/aluiziolira/go-scrape-hyrox/config"
	"github.com/aluiziolira/go-scrape-hyrox/models"
	"github.com/aluiziolira/go-scrape-hyrox/parser"
)

var (
	// ErrPipelineClosed is returned when Process is called after shutdown.
	ErrPipelineClosed = errors.New("pipeline: closed")
)

// OutputWriter defines the interface for data output. Write must make the
// rows durable before returning.
type OutputWriter interface {
	Write(results []*models.AthleteResult) error
	Close() error
	Validate() error
}

// Pipeline coordinates validation, de-duplication, and output writing.
// Each Process call is one page: its rows are written and flushed together.
type Pipeline struct {
	writer OutputWriter
	seen   *lru.Cache[string, struct{}]

	metrics metrics

	mu     sync.Mutex // guards closed/err
	closed bool
	err    error

	closeOnce sync.Once
	closeErr  error
}

// NewPipeline builds a pipeline whose duplicate window holds cfg.DedupeMaxSize rows.
func NewPipeline(writer OutputWriter, cfg *config.Config) (*Pipeline, error) {
	size := cfg.DedupeMaxSize
	if size <= 0 {
		size = config.DefaultConfig().DedupeMaxSize
	}
	seen, err := lru.New[string, struct{}](size)
	if err != nil {
		return nil, fmt.Errorf("create dedupe cache: %w", err)
	}
	return &Pipeline{
		writer:  writer,
		seen:    seen,
		metrics: metrics{validation: make(map[string]int)},
	}, nil
}

// Process validates and writes one page of results. It returns the number of
// rows written. A write error is sticky and closes the pipeline.
func (p *Pipeline) Process(results ...*models.AthleteResult) (int, error) {
	closed, err := p.state()
	if err != nil {
		return 0, err
	}
	if closed {
		return 0, ErrPipelineClosed
	}

	batch := make([]*models.AthleteResult, 0, len(results))
	for _, r := range results {
		if prepared := p.prepare(r); prepared != nil {
			batch = append(batch, prepared)
		}
	}
	if len(batch) == 0 {
		return 0, nil
	}

	if err := p.writer.Write(batch); err != nil {
		err = fmt.Errorf("write batch: %w", err)
		p.setErr(err)
		return 0, err
	}
	p.metrics.addWritten(len(batch))
	return len(batch), nil
}

// Close prevents more submissions and closes the writer.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.closeOnce.Do(func() {
		p.closeErr = p.writer.Close()
	})
	return errors.Join(p.Err(), p.closeErr)
}

// Err returns the first error encountered during processing.
func (p *Pipeline) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// GetMetrics returns a snapshot of the internal counters.
func (p *Pipeline) GetMetrics() map[string]interface{} {
	return p.metrics.snapshot()
}

func (p *Pipeline) prepare(r *models.AthleteResult) *models.AthleteResult {
	if r == nil {
		return nil
	}
	parser.NormalizeResult(r)
	if err := parser.ValidateResult(r); err != nil {
		p.metrics.addValidation("invalid_record")
		return nil
	}

	if found, _ := p.seen.ContainsOrAdd(dedupeKey(r), struct{}{}); found {
		p.metrics.addValidation("duplicate_row")
		return nil
	}
	return r
}

func dedupeKey(r *models.AthleteResult) string {
	return strings.Join([]string{r.EventCode, r.Gender, r.Rank, r.Athlete}, "\x1f")
}

func (p *Pipeline) setErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return
	}
	p.err = err
	p.closed = true
}

func (p *Pipeline) state() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed, p.err
}

type metrics struct {
	mu         sync.Mutex
	written    int64
	validation map[string]int
}

func (m *metrics) addWritten(n int) {
	m.mu.Lock()
	m.written += int64(n)
	m.mu.Unlock()
}

func (m *metrics) addValidation(kind string) {
	m.mu.Lock()
	m.validation[kind]++
	m.mu.Unlock()
}

func (m *metrics) snapshot() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	copyValidation := make(map[string]int, len(m.validation))
	for k, v := range m.validation {
		copyValidation[k] = v
	}

	return map[string]interface{}{
		"written_rows":      m.written,
		"validation_errors": copyValidation,
	}
}
