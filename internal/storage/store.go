package storage

import (
	"context"

	"mindtracker/internal/models"
)

// Columns is the fixed header of the journal log, in on-disk order.
var Columns = []string{
	"Date",
	"User Input",
	"AI Response",
	"Mood",
	"Mental Health Score",
	"Suggestions",
	"Emotion Trigger",
}

// Store persists the whole entry log. Save always rewrites everything.
type Store interface {
	Load(ctx context.Context) (*models.EntryLog, error)
	Save(ctx context.Context, log *models.EntryLog) error
}
