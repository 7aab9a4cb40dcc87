package models

import (
	"sort"
	"time"
)

// TimestampLayout is the on-disk format of JournalRecord.Timestamp.
const TimestampLayout = "2006-01-02 15:04:05"

type JournalRecord struct {
	Timestamp         string `json:"timestamp" db:"created_at"`
	UserInput         string `json:"user_input" db:"user_input"`
	AIResponse        string `json:"ai_response" db:"ai_response"`
	Mood              string `json:"mood" db:"mood"`
	MentalHealthScore int    `json:"mental_health_score" db:"mental_health_score"`
	Suggestions       string `json:"suggestions" db:"suggestions"`
	EmotionTrigger    string `json:"emotion_trigger" db:"emotion_trigger"`
}

// NewJournalRecord builds a record with Mood and EmotionTrigger set to the same category.
func NewJournalRecord(at time.Time, userInput, aiResponse, trigger string, score int, tip string) JournalRecord {
	return JournalRecord{
		Timestamp:         at.Format(TimestampLayout),
		UserInput:         userInput,
		AIResponse:        aiResponse,
		Mood:              trigger,
		MentalHealthScore: score,
		Suggestions:       tip,
		EmotionTrigger:    trigger,
	}
}

// EntryLog is an append-only, chronologically ordered list of records.
type EntryLog struct {
	records []JournalRecord
}

func NewEntryLog(records ...JournalRecord) *EntryLog {
	log := &EntryLog{records: make([]JournalRecord, 0, len(records))}
	log.records = append(log.records, records...)
	return log
}

func (l *EntryLog) Append(rec JournalRecord) {
	l.records = append(l.records, rec)
}

func (l *EntryLog) Len() int {
	return len(l.records)
}

func (l *EntryLog) Empty() bool {
	return len(l.records) == 0
}

// Records returns a copy of all records in insertion order.
func (l *EntryLog) Records() []JournalRecord {
	out := make([]JournalRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Tail returns up to n of the most recent records, oldest first.
func (l *EntryLog) Tail(n int) []JournalRecord {
	if n <= 0 {
		return []JournalRecord{}
	}
	start := len(l.records) - n
	if start < 0 {
		start = 0
	}
	out := make([]JournalRecord, len(l.records)-start)
	copy(out, l.records[start:])
	return out
}

type TriggerCount struct {
	Trigger string `json:"trigger"`
	Count   int    `json:"count"`
}

// TriggerCounts tallies EmotionTrigger values, most frequent first.
// Equal counts keep the order in which the trigger first appeared.
func (l *EntryLog) TriggerCounts() []TriggerCount {
	index := map[string]int{}
	counts := []TriggerCount{}

	for _, rec := range l.records {
		if i, ok := index[rec.EmotionTrigger]; ok {
			counts[i].Count++
			continue
		}
		index[rec.EmotionTrigger] = len(counts)
		counts = append(counts, TriggerCount{Trigger: rec.EmotionTrigger, Count: 1})
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	return counts
}
