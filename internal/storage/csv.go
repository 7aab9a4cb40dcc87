package storage

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"mindtracker/internal/models"
)

// DefaultDataFile is the relative path used when none is configured.
const DefaultDataFile = "mental_health_logs.csv"

type CSVStorage struct {
	path string
}

func NewCSVStorage(path string) *CSVStorage {
	if path == "" {
		path = DefaultDataFile
	}
	return &CSVStorage{path: path}
}

func (cs *CSVStorage) Path() string {
	return cs.path
}

// Load reads the log from disk. A missing or empty file is an empty log.
func (cs *CSVStorage) Load(ctx context.Context) (*models.EntryLog, error) {
	op := "internal/storage/csv.go Load"

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(cs.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return models.NewEntryLog(), nil
		}
		return nil, fmt.Errorf("%s: open %s: %w", op, cs.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)

	header, err := r.Read()
	if err == io.EOF {
		return models.NewEntryLog(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %w", op, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	if !sameColumns(header) {
		return nil, fmt.Errorf("%s: unexpected header %q", op, header)
	}

	log := models.NewEntryLog()
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		score, err := parseScore(row[4])
		if err != nil {
			line, _ := r.FieldPos(4)
			return nil, fmt.Errorf("%s: line %d: invalid score %q: %w", op, line, row[4], err)
		}

		log.Append(models.JournalRecord{
			Timestamp:         row[0],
			UserInput:         row[1],
			AIResponse:        row[2],
			Mood:              row[3],
			MentalHealthScore: score,
			Suggestions:       row[5],
			EmotionTrigger:    row[6],
		})
	}

	return log, nil
}

// Save rewrites the whole file with the header and every record.
func (cs *CSVStorage) Save(ctx context.Context, log *models.EntryLog) error {
	op := "internal/storage/csv.go Save"

	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(Columns); err != nil {
		return fmt.Errorf("%s: write header: %w", op, err)
	}
	for _, rec := range log.Records() {
		row := []string{
			rec.Timestamp,
			rec.UserInput,
			rec.AIResponse,
			rec.Mood,
			strconv.Itoa(rec.MentalHealthScore),
			rec.Suggestions,
			rec.EmotionTrigger,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("%s: write row: %w", op, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("%s: flush: %w", op, err)
	}

	if err := writeFileAtomic(cs.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("%s: write %s: %w", op, cs.path, err)
	}
	return nil
}

// Backup moves the current file aside so a later Save cannot overwrite it.
// It returns the new path, or "" when there was no file.
func (cs *CSVStorage) Backup(ctx context.Context) (string, error) {
	op := "internal/storage/csv.go Backup"

	if err := ctx.Err(); err != nil {
		return "", err
	}

	base := fmt.Sprintf("%s.%s", cs.path, time.Now().Format("20060102-150405"))
	dst := base + ".bak"
	for i := 1; ; i++ {
		if _, err := os.Stat(dst); errors.Is(err, fs.ErrNotExist) {
			break
		}
		dst = fmt.Sprintf("%s-%d.bak", base, i)
	}

	if err := os.Rename(cs.path, dst); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("%s: rename %s: %w", op, cs.path, err)
	}
	return dst, nil
}

// parseScore accepts integers and integral floats ("4.0"), which pandas
// writes once a column has held a missing value.
func parseScore(field string) (int, error) {
	field = strings.TrimSpace(field)
	if n, err := strconv.Atoi(field); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, err
	}
	if math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) {
		return 0, fmt.Errorf("score %q is not a whole number", field)
	}
	return int(f), nil
}

func sameColumns(header []string) bool {
	if len(header) != len(Columns) {
		return false
	}
	for i, col := range Columns {
		if strings.TrimSpace(header[i]) != col {
			return false
		}
	}
	return true
}
