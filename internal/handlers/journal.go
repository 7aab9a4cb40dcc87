package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"mindtracker/internal/usecases"

	"go.uber.org/zap"
)

// JournalHandler serves the JSON API.
type JournalHandler struct {
	journal JournalService
	logger  *zap.Logger
}

func NewJournalHandler(journal JournalService, logger *zap.Logger) *JournalHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JournalHandler{journal: journal, logger: logger}
}

func (jh *JournalHandler) HandleEntries(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		jh.HandleCreateEntry(w, r)
	case http.MethodGet:
		jh.HandleGetEntries(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		jh.writeError(w, "handlers.HandleEntries", http.StatusMethodNotAllowed, msgMethodNotAllow)
	}
}

func (jh *JournalHandler) HandleCreateEntry(w http.ResponseWriter, r *http.Request) {
	op := "handlers.HandleCreateEntry"
	if r.Method != http.MethodPost {
		jh.writeError(w, op, http.StatusMethodNotAllowed, msgMethodNotAllow)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	var input struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		jh.logger.Warn("couldnt decode json", zap.String("op", op), zap.Error(err))
		if tooLarge(err) {
			jh.writeError(w, op, http.StatusRequestEntityTooLarge, msgTooLarge)
			return
		}
		jh.writeError(w, op, http.StatusBadRequest, "Couldnt decode json. Wrong request.")
		return
	}

	rec, err := jh.journal.Submit(r.Context(), input.Text)

	var saveErr *usecases.SaveError
	switch {
	case err == nil && rec == nil:
		w.WriteHeader(http.StatusNoContent)
		return
	case err == nil:
		jh.writeJSON(w, op, http.StatusCreated, map[string]interface{}{
			"status": "created",
			"data":   rec,
		})
	case errors.As(err, &saveErr):
		jh.writeJSON(w, op, http.StatusCreated, map[string]interface{}{
			"status":  "created",
			"data":    rec,
			"warning": msgSaveFailed,
		})
	default:
		jh.logger.Error("submission failed", zap.String("op", op), zap.Error(err))
		msg, status := generatorFailure(err)
		jh.writeError(w, op, status, msg)
	}
}

func (jh *JournalHandler) HandleGetEntries(w http.ResponseWriter, r *http.Request) {
	op := "handlers.HandleGetEntries"
	if r.Method != http.MethodGet {
		jh.writeError(w, op, http.StatusMethodNotAllowed, msgMethodNotAllow)
		return
	}

	limit := usecases.HistoryLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l < 0 {
			jh.writeError(w, op, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = l
	}

	jh.writeJSON(w, op, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   jh.journal.Recent(limit),
	})
}

func (jh *JournalHandler) HandleGetTriggers(w http.ResponseWriter, r *http.Request) {
	op := "handlers.HandleGetTriggers"
	if r.Method != http.MethodGet {
		jh.writeError(w, op, http.StatusMethodNotAllowed, msgMethodNotAllow)
		return
	}

	jh.writeJSON(w, op, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   jh.journal.TriggerCounts(),
	})
}

func (jh *JournalHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	jh.writeJSON(w, "handlers.HandleHealth", http.StatusOK, map[string]string{"status": "ok"})
}

func (jh *JournalHandler) writeError(w http.ResponseWriter, op string, status int, msg string) {
	jh.writeJSON(w, op, status, map[string]string{"error": msg})
}

func (jh *JournalHandler) writeJSON(w http.ResponseWriter, op string, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		jh.logger.Warn("failed to encode response", zap.String("op", op), zap.Error(err))
	}
}
