// Package intervallog implements the durable append-only occupancy log
// as a flat CSV file. Reads re-parse the file on every call; volumes
// are small and correctness beats caching here.
package intervallog

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/kverne/parkcast/core/model"
)

var header = []string{"slot_id", "time_entered", "time_left", "duration_sec"}

// CSVStore appends intervals to a CSV file with a header written once
// at creation. Rows are never rewritten or compacted.
type CSVStore struct {
	path string
	mu   sync.Mutex
}

// NewCSVStore opens or creates the log file at path, writing the
// header if the file is new or empty.
func NewCSVStore(path string) (*CSVStore, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() == 0 {
		w := csv.NewWriter(f)
		if err := w.Write(header); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, err
		}
	}
	return &CSVStore{path: path}, nil
}

// Append writes one interval row. Appends are serialized so concurrent
// writers cannot interleave rows.
func (s *CSVStore) Append(_ context.Context, iv model.Interval) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	w := csv.NewWriter(f)
	rec := []string{
		iv.SlotID,
		iv.Entry.UTC().Format(time.RFC3339),
		iv.Exit.UTC().Format(time.RFC3339),
		strconv.FormatFloat(iv.DurationSec, 'f', -1, 64),
	}
	if err := w.Write(rec); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// Intervals re-parses the full log and returns the rows for slotID
// (every slot when slotID is empty), sorted by entry time ascending.
// Malformed rows are skipped individually.
func (s *CSVStore) Intervals(_ context.Context, slotID string) ([]model.Interval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	var res []model.Interval
	first := true
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Skip rows the csv reader cannot make sense of.
			continue
		}
		if first {
			first = false
			if len(rec) > 0 && rec[0] == header[0] {
				continue
			}
		}
		iv, ok := parseRow(rec)
		if !ok {
			continue
		}
		if slotID != "" && iv.SlotID != slotID {
			continue
		}
		res = append(res, iv)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Entry.Before(res[j].Entry) })
	return res, nil
}

func parseRow(rec []string) (model.Interval, bool) {
	if len(rec) != 4 || rec[0] == "" {
		return model.Interval{}, false
	}
	entry, err := time.Parse(time.RFC3339, rec[1])
	if err != nil {
		return model.Interval{}, false
	}
	exit, err := time.Parse(time.RFC3339, rec[2])
	if err != nil {
		return model.Interval{}, false
	}
	dur, err := strconv.ParseFloat(rec[3], 64)
	if err != nil {
		return model.Interval{}, false
	}
	return model.Interval{SlotID: rec[0], Entry: entry, Exit: exit, DurationSec: dur}, true
}

// Close is a no-op; the file is reopened per operation.
func (s *CSVStore) Close() error { return nil }
