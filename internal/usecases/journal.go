package usecases

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mindtracker/internal/models"
	"mindtracker/internal/storage"

	"go.uber.org/zap"
)

// HistoryLimit is how many entries the history view shows.
const HistoryLimit = 10

type Generator interface {
	Generate(ctx context.Context, text string) (string, error)
}

type TriggerClassifier interface {
	Classify(text string) Category
}

// SaveError reports that a record was accepted but could not be persisted.
// The record stays in memory and is written by the next successful save.
type SaveError struct {
	Err error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("journal not saved: %v", e.Err)
}

func (e *SaveError) Unwrap() error {
	return e.Err
}

// Journal is the session: it owns the in-memory log and keeps the store in sync.
type Journal struct {
	mu         sync.Mutex
	store      storage.Store
	generator  Generator
	classifier TriggerClassifier
	log        *models.EntryLog
	dirty      bool
	now        func() time.Time
	logger     *zap.Logger
}

type JournalOption func(*Journal)

func WithClock(now func() time.Time) JournalOption {
	return func(j *Journal) {
		if now != nil {
			j.now = now
		}
	}
}

func WithJournalLogger(logger *zap.Logger) JournalOption {
	return func(j *Journal) {
		if logger != nil {
			j.logger = logger
		}
	}
}

// NewJournal loads the log once. A load failure is logged and the session
// starts empty. Stores that support it move the unreadable data aside first.
func NewJournal(ctx context.Context, store storage.Store, generator Generator, classifier TriggerClassifier, opts ...JournalOption) *Journal {
	op := "usecases.NewJournal"
	j := &Journal{
		store:      store,
		generator:  generator,
		classifier: classifier,
		now:        time.Now,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(j)
	}

	log, err := store.Load(ctx)
	if err != nil {
		j.logger.Warn("could not load journal, starting empty", zap.String("op", op), zap.Error(err))
		j.backupUnreadable(ctx, op)
		log = models.NewEntryLog()
	}
	j.log = log
	j.logger.Info("journal loaded", zap.Int("entries", log.Len()))

	return j
}

// backupStore is implemented by stores that can move unreadable data out of
// the way of the next Save.
type backupStore interface {
	Backup(ctx context.Context) (string, error)
}

func (j *Journal) backupUnreadable(ctx context.Context, op string) {
	bs, ok := j.store.(backupStore)
	if !ok {
		return
	}
	dst, err := bs.Backup(ctx)
	if err != nil {
		j.logger.Error("could not move unreadable journal aside, the next save will replace it",
			zap.String("op", op), zap.Error(err))
		return
	}
	if dst != "" {
		j.logger.Warn("unreadable journal moved aside", zap.String("op", op), zap.String("backup", dst))
	}
}

// Submit turns text into a saved record. Empty text is ignored and returns (nil, nil).
// A generator failure aborts without touching the log. A save failure returns
// the record together with a *SaveError. Line breaks in the text and the
// response are stored as \n.
func (j *Journal) Submit(ctx context.Context, text string) (*models.JournalRecord, error) {
	op := "usecases.Journal.Submit"

	if text == "" {
		return nil, nil
	}
	text = NormalizeNewlines(text)

	response, err := j.generator.Generate(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	response = NormalizeNewlines(response)
	trigger := j.classifier.Classify(text)

	rec := models.NewJournalRecord(j.now(), text, response, string(trigger), Score(text), WellnessTip)

	j.mu.Lock()
	defer j.mu.Unlock()

	j.log.Append(rec)
	j.dirty = true

	if err := j.saveLocked(ctx); err != nil {
		j.logger.Error("journal save failed, keeping entry in memory",
			zap.String("op", op),
			zap.Int("entries", j.log.Len()),
			zap.Error(err),
		)
		return &rec, &SaveError{Err: err}
	}

	j.logger.Info("journal entry saved",
		zap.String("trigger", rec.EmotionTrigger),
		zap.Int("score", rec.MentalHealthScore),
		zap.Int("entries", j.log.Len()),
	)
	return &rec, nil
}

// Flush writes the log if an earlier save failed.
func (j *Journal) Flush(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.dirty {
		return nil
	}
	if err := j.saveLocked(ctx); err != nil {
		return &SaveError{Err: err}
	}
	return nil
}

func (j *Journal) saveLocked(ctx context.Context) error {
	if err := j.store.Save(ctx, j.log); err != nil {
		return err
	}
	j.dirty = false
	return nil
}

func (j *Journal) Recent(n int) []models.JournalRecord {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.log.Tail(n)
}

func (j *Journal) TriggerCounts() []models.TriggerCount {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.log.TriggerCounts()
}

func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.log.Len()
}

// Dirty reports whether the in-memory log has entries the store does not.
func (j *Journal) Dirty() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.dirty
}
