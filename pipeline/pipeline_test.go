package pipeline

import (
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/aluiziolira/go-scrape-hyrox/config"
	"github.com/aluiziolira/go-scrape-hyrox/models"
)

type mockWriter struct {
	mu          sync.Mutex
	batches     [][]*models.AthleteResult
	closed      int
	writeErr    error
	validateErr error
}

func (mw *mockWriter) Write(results []*models.AthleteResult) error {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	if mw.writeErr != nil {
		return mw.writeErr
	}
	copyBatch := make([]*models.AthleteResult, len(results))
	copy(copyBatch, results)
	mw.batches = append(mw.batches, copyBatch)
	return nil
}

func (mw *mockWriter) Close() error {
	mw.mu.Lock()
	mw.closed++
	mw.mu.Unlock()
	return nil
}

func (mw *mockWriter) Validate() error {
	return mw.validateErr
}

func (mw *mockWriter) totalWritten() int {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	total := 0
	for _, batch := range mw.batches {
		total += len(batch)
	}
	return total
}

func newResult(rank int) *models.AthleteResult {
	return &models.AthleteResult{
		Season:     "Season 7",
		EventGroup: "2024 Berlin",
		EventCode:  "H_BER_OVERALL",
		EventLabel: "HYROX - Overall",
		Category:   "HYROX",
		Gender:     "M",
		Rank:       strconv.Itoa(rank),
		Athlete:    "Athlete " + strconv.Itoa(rank),
		TotalTime:  "1:02:03",
	}
}

func TestPipelineProcessValidationAndDedup(t *testing.T) {
	writer := &mockWriter{}
	p, err := NewPipeline(writer, config.DefaultConfig())
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}

	valid := newResult(1)
	invalid := newResult(2)
	invalid.Athlete = "  "
	duplicate := newResult(1)

	n, err := p.Process(valid, invalid, duplicate, nil)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if n != 1 {
		t.Fatalf("written=%d, want 1", n)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if got := writer.totalWritten(); got != 1 {
		t.Fatalf("written results = %d, want 1", got)
	}

	metrics := p.GetMetrics()
	validation, ok := metrics["validation_errors"].(map[string]int)
	if !ok {
		t.Fatalf("expected validation errors map")
	}
	if validation["invalid_record"] == 0 {
		t.Fatalf("expected invalid_record validation error")
	}
	if validation["duplicate_row"] == 0 {
		t.Fatalf("expected duplicate_row validation error")
	}
	if written, _ := metrics["written_rows"].(int64); written != 1 {
		t.Fatalf("written_rows=%d, want 1", written)
	}
}

func TestPipelineOneWritePerPage(t *testing.T) {
	writer := &mockWriter{}
	p, err := NewPipeline(writer, config.DefaultConfig())
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}

	page := make([]*models.AthleteResult, 0, 25)
	for i := 1; i <= 25; i++ {
		page = append(page, newResult(i))
	}
	if _, err := p.Process(page...); err != nil {
		t.Fatalf("process page 1: %v", err)
	}
	if _, err := p.Process(newResult(26), newResult(27)); err != nil {
		t.Fatalf("process page 2: %v", err)
	}
	if _, err := p.Process(); err != nil {
		t.Fatalf("process empty page: %v", err)
	}

	if len(writer.batches) != 2 {
		t.Fatalf("batch writes = %d, want 2", len(writer.batches))
	}
	if len(writer.batches[0]) != 25 || len(writer.batches[1]) != 2 {
		t.Fatalf("batch sizes = [%d %d], want [25 2]", len(writer.batches[0]), len(writer.batches[1]))
	}
}

func TestPipelineDedupeWindowIsBounded(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DedupeMaxSize = 1
	writer := &mockWriter{}
	p, err := NewPipeline(writer, cfg)
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}

	for _, r := range []*models.AthleteResult{newResult(1), newResult(2), newResult(1)} {
		if _, err := p.Process(r); err != nil {
			t.Fatalf("process: %v", err)
		}
	}
	if got := writer.totalWritten(); got != 3 {
		t.Fatalf("written=%d, want 3 once the first key is evicted", got)
	}
}

func TestPipelineWriteErrorIsSticky(t *testing.T) {
	writeErr := errors.New("disk full")
	writer := &mockWriter{writeErr: writeErr}
	p, err := NewPipeline(writer, config.DefaultConfig())
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}

	if _, err := p.Process(newResult(1)); !errors.Is(err, writeErr) {
		t.Fatalf("expected write error, got %v", err)
	}
	if _, err := p.Process(newResult(2)); !errors.Is(err, writeErr) {
		t.Fatalf("expected sticky write error, got %v", err)
	}
	if err := p.Close(); !errors.Is(err, writeErr) {
		t.Fatalf("close should report write error, got %v", err)
	}
	if err := p.Close(); !errors.Is(err, writeErr) {
		t.Fatalf("second close should report write error, got %v", err)
	}
	if writer.closed != 1 {
		t.Fatalf("writer closed %d times, want 1", writer.closed)
	}
}

func TestPipelineClosed(t *testing.T) {
	p, err := NewPipeline(&mockWriter{}, config.DefaultConfig())
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := p.Process(newResult(1)); !errors.Is(err, ErrPipelineClosed) {
		t.Fatalf("expected ErrPipelineClosed, got %v", err)
	}
}
