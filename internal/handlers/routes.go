package handlers

import (
	"net/http"

	"go.uber.org/zap"
)

func NewRouter(chat *ChatHandler, journal *JournalHandler, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", chat.HandleIndex)
	mux.HandleFunc("/submit", chat.HandleSubmit)

	mux.HandleFunc("/api/entries", journal.HandleEntries)
	mux.HandleFunc("/api/triggers", journal.HandleGetTriggers)
	mux.HandleFunc("/healthz", journal.HandleHealth)

	if logger == nil {
		logger = zap.NewNop()
	}
	return withRequestLog(logger, mux)
}
