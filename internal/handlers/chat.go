package handlers

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"mindtracker/internal/models"
	"mindtracker/internal/storage"
	"mindtracker/internal/usecases"

	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

// JournalService is what the handlers need from a session.
type JournalService interface {
	Submit(ctx context.Context, text string) (*models.JournalRecord, error)
	Recent(n int) []models.JournalRecord
	TriggerCounts() []models.TriggerCount
}

type views struct {
	History bool
	Chart   bool
	Tip     bool
}

type pageData struct {
	Views    views
	Text     string
	Result   *models.JournalRecord
	Saved    string
	Warning  string
	Error    string
	Columns  []string
	History  []models.JournalRecord
	Chart    *BarChart
	DailyTip string

	NoHistory   string
	NoChartData string
}

// ChatHandler serves the journaling page.
type ChatHandler struct {
	journal JournalService
	page    *template.Template
	logger  *zap.Logger
}

func NewChatHandler(journal JournalService, logger *zap.Logger) (*ChatHandler, error) {
	page, err := template.New("index.html").Funcs(template.FuncMap{
		"px": func(f float64) string { return strconv.FormatFloat(f, 'f', 1, 64) },
	}).ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatHandler{journal: journal, page: page, logger: logger}, nil
}

func (ch *ChatHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	op := "handlers.HandleIndex"

	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, msgMethodNotAllow, http.StatusMethodNotAllowed)
		return
	}

	data := ch.newPage(viewsFrom(r))
	ch.render(w, op, http.StatusOK, data)
}

func (ch *ChatHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	op := "handlers.HandleSubmit"

	if r.Method != http.MethodPost {
		http.Error(w, msgMethodNotAllow, http.StatusMethodNotAllowed)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := r.ParseForm(); err != nil {
		ch.logger.Warn("bad form", zap.String("op", op), zap.Error(err))
		if tooLarge(err) {
			http.Error(w, msgTooLarge, http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	text := r.PostForm.Get("text")
	v := viewsFrom(r)
	status := http.StatusOK

	rec, err := ch.journal.Submit(r.Context(), text)

	page := ch.newPage(v)
	page.Text = text
	page.Result = rec

	var saveErr *usecases.SaveError
	switch {
	case err == nil:
		if rec != nil {
			page.Saved = msgSaved
		}
	case errors.As(err, &saveErr):
		page.Warning = msgSaveFailed
	default:
		ch.logger.Error("submission failed", zap.String("op", op), zap.Error(err))
		page.Error, status = generatorFailure(err)
	}

	ch.render(w, op, status, page)
}

func (ch *ChatHandler) newPage(v views) pageData {
	data := pageData{
		Views:       v,
		Columns:     storage.Columns,
		NoHistory:   msgNoHistory,
		NoChartData: msgNoChartData,
	}
	if v.History {
		data.History = ch.journal.Recent(usecases.HistoryLimit)
	}
	if v.Chart {
		data.Chart = buildBarChart(ch.journal.TriggerCounts())
	}
	if v.Tip {
		data.DailyTip = usecases.DailyTip
	}
	return data
}

func (ch *ChatHandler) render(w http.ResponseWriter, op string, status int, data pageData) {
	var buf bytes.Buffer
	if err := ch.page.Execute(&buf, data); err != nil {
		ch.logger.Error("render page", zap.String("op", op), zap.Error(err))
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		ch.logger.Debug("write page", zap.String("op", op), zap.Error(err))
	}
}

// viewsFrom reads the toggles from the query string or the submitted form.
func viewsFrom(r *http.Request) views {
	on := func(key string) bool {
		v := r.FormValue(key)
		return v != "" && v != "0" && v != "false"
	}
	return views{History: on("history"), Chart: on("chart"), Tip: on("tip")}
}
