package pipeline

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aluiziolira/go-scrape-hyrox/models"
)

// DoneSet tracks collection keys already present in the results store.
// It is built once at startup and updated as keys complete.
type DoneSet struct {
	keys map[models.CollectionKey]struct{}
}

// NewDoneSet returns a set holding keys.
func NewDoneSet(keys ...models.CollectionKey) *DoneSet {
	d := &DoneSet{keys: make(map[models.CollectionKey]struct{}, len(keys))}
	for _, k := range keys {
		d.Add(k)
	}
	return d
}

// LoadDoneSet scans every row of the CSV store for (event_code, gender) pairs.
// A missing or empty file yields an empty set.
func LoadDoneSet(filename string) (*DoneSet, error) {
	d := NewDoneSet()

	f, err := os.Open(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return d, nil
		}
		return nil, fmt.Errorf("open results store: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return d, nil
		}
		return nil, fmt.Errorf("read results header: %w", err)
	}

	codeIdx, genderIdx := -1, -1
	for i, name := range header {
		switch name {
		case "event_code":
			codeIdx = i
		case "gender":
			genderIdx = i
		}
	}
	if codeIdx < 0 || genderIdx < 0 {
		return nil, fmt.Errorf("results store %s has no event_code/gender columns", filename)
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read results store: %w", err)
		}
		d.Add(models.CollectionKey{
			EventCode: field(record, codeIdx),
			Gender:    field(record, genderIdx),
		})
	}
	return d, nil
}

// Has reports whether k was already collected.
func (d *DoneSet) Has(k models.CollectionKey) bool {
	_, ok := d.keys[k]
	return ok
}

// Add marks k as collected.
func (d *DoneSet) Add(k models.CollectionKey) {
	d.keys[k] = struct{}{}
}

// Len returns the number of keys.
func (d *DoneSet) Len() int {
	return len(d.keys)
}

func field(record []string, idx int) string {
	if idx < len(record) {
		return record[idx]
	}
	return ""
}
