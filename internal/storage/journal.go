package storage

import (
	"context"
	"fmt"
	"mindtracker/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// JournalStorage keeps the entry log in Postgres. Rows are ordered by position.
type JournalStorage struct {
	pool *pgxpool.Pool
}

func NewJournalStorage(pool *pgxpool.Pool) *JournalStorage {
	return &JournalStorage{
		pool: pool,
	}
}

var journalColumns = []string{
	"position",
	"created_at",
	"user_input",
	"ai_response",
	"mood",
	"mental_health_score",
	"suggestions",
	"emotion_trigger",
}

func (db_js *JournalStorage) EnsureSchema(ctx context.Context) error {
	op := "internal/storage/journal.go EnsureSchema"

	sql_query := `
	CREATE TABLE IF NOT EXISTS journal_entries (
		position            INT PRIMARY KEY,
		created_at          TEXT NOT NULL,
		user_input          TEXT NOT NULL,
		ai_response         TEXT NOT NULL,
		mood                TEXT NOT NULL,
		mental_health_score INT  NOT NULL,
		suggestions         TEXT NOT NULL,
		emotion_trigger     TEXT NOT NULL
	);
	`

	if _, err := db_js.pool.Exec(ctx, sql_query); err != nil {
		return fmt.Errorf("Failure to create journal_entries in %s: %w", op, err)
	}
	return nil
}

func (db_js *JournalStorage) Load(ctx context.Context) (*models.EntryLog, error) {
	op := "internal/storage/journal.go Load"

	sql_query := `
	SELECT created_at, user_input, ai_response, mood,
	       mental_health_score, suggestions, emotion_trigger
	FROM journal_entries
	ORDER BY position;
	`

	rows, err := db_js.pool.Query(ctx, sql_query)
	if err != nil {
		return nil, fmt.Errorf("Failure to get entries in %s: %w", op, err)
	}
	defer rows.Close()

	log := models.NewEntryLog()
	for rows.Next() {
		rec := models.JournalRecord{}

		err := rows.Scan(
			&rec.Timestamp,
			&rec.UserInput,
			&rec.AIResponse,
			&rec.Mood,
			&rec.MentalHealthScore,
			&rec.Suggestions,
			&rec.EmotionTrigger,
		)
		if err != nil {
			return nil, fmt.Errorf("Failure to Scan entries in %s: %w", op, err)
		}

		log.Append(rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Failure to read entries in %s: %w", op, err)
	}

	return log, nil
}

// Save replaces the table contents with the log inside one transaction.
func (db_js *JournalStorage) Save(ctx context.Context, log *models.EntryLog) error {
	op := "internal/storage/journal.go Save"

	tx, err := db_js.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("Failure to begin tx in %s: %w", op, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM journal_entries;`); err != nil {
		return fmt.Errorf("Failure to clear entries in %s: %w", op, err)
	}

	records := log.Records()
	rows := make([][]any, 0, len(records))
	for i, rec := range records {
		rows = append(rows, []any{
			i,
			rec.Timestamp,
			rec.UserInput,
			rec.AIResponse,
			rec.Mood,
			rec.MentalHealthScore,
			rec.Suggestions,
			rec.EmotionTrigger,
		})
	}

	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"journal_entries"}, journalColumns, pgx.CopyFromRows(rows)); err != nil {
		return fmt.Errorf("Failure to copy entries in %s: %w", op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("Failure to commit entries in %s: %w", op, err)
	}
	return nil
}
