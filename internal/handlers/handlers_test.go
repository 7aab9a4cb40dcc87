package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"mindtracker/internal/ai"
	"mindtracker/internal/models"
	"mindtracker/internal/storage"
	"mindtracker/internal/usecases"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubGenerator struct {
	reply string
	err   error
}

func (s *stubGenerator) Generate(context.Context, string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

type brokenStore struct{}

func (brokenStore) Load(context.Context) (*models.EntryLog, error) {
	return models.NewEntryLog(), nil
}

func (brokenStore) Save(context.Context, *models.EntryLog) error {
	return errors.New("read-only file system")
}

func newServer(t *testing.T, store storage.Store, gen usecases.Generator) (*httptest.Server, *usecases.Journal) {
	t.Helper()
	if store == nil {
		store = storage.NewCSVStorage(filepath.Join(t.TempDir(), "mental_health_logs.csv"))
	}
	j := usecases.NewJournal(context.Background(), store, gen, usecases.DefaultClassifier())

	chat, err := NewChatHandler(j, zap.NewNop())
	require.NoError(t, err)
	srv := httptest.NewServer(NewRouter(chat, NewJournalHandler(j, zap.NewNop()), zap.NewNop()))
	t.Cleanup(srv.Close)
	return srv, j
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestIndexPage(t *testing.T) {
	srv, _ := newServer(t, nil, &stubGenerator{reply: "ok"})

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	body := readBody(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(requestIDHeader))
	assert.Contains(t, body, "AI-Powered Mental Health Tracker")
	assert.Contains(t, body, "A safe space to track your emotions and receive guidance")
	assert.Contains(t, body, "Show Past Conversations")
	assert.Contains(t, body, "Show Emotion Triggers Over Time")
	assert.Contains(t, body, "Daily Mental Health Tip")
	assert.NotContains(t, body, `id="result"`)
	assert.NotContains(t, body, `id="history"`)
	assert.NotContains(t, body, `id="tip"`)
}

func TestIndexUnknownPath(t *testing.T) {
	srv, _ := newServer(t, nil, &stubGenerator{reply: "ok"})

	resp, err := http.Get(srv.URL + "/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestIndexEmptyViews(t *testing.T) {
	srv, _ := newServer(t, nil, &stubGenerator{reply: "ok"})

	resp, err := http.Get(srv.URL + "/?history=1&chart=1&tip=1")
	require.NoError(t, err)
	body := readBody(t, resp)

	assert.Contains(t, body, "No previous conversations recorded.")
	assert.Contains(t, body, "No data available yet.")
	assert.Contains(t, body, usecases.DailyTip)
	assert.NotContains(t, body, "<svg")
}

func TestSubmitRendersResult(t *testing.T) {
	srv, j := newServer(t, nil, &stubGenerator{reply: "Break the work into small steps."})

	form := url.Values{"text": {"exam deadline stress"}, "history": {"1"}, "chart": {"1"}}
	resp, err := http.PostForm(srv.URL+"/submit", form)
	require.NoError(t, err)
	body := readBody(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Entry saved successfully!")
	assert.Contains(t, body, "Break the work into small steps.")
	assert.Contains(t, body, "Work/Studies Stress")
	assert.Contains(t, body, "1 / 10")
	assert.Contains(t, body, usecases.WellnessTip)

	// toggles survive the post
	assert.Contains(t, body, `id="history"`)
	assert.Contains(t, body, "<svg")
	assert.Contains(t, body, `fill="blue"`)
	assert.Contains(t, body, "Emotion Trigger")
	assert.Contains(t, body, "Frequency")
	assert.NotContains(t, body, "No previous conversations recorded.")

	assert.Equal(t, 1, j.Len())
}

func TestSubmitEmptyText(t *testing.T) {
	srv, j := newServer(t, nil, &stubGenerator{reply: "unused"})

	resp, err := http.PostForm(srv.URL+"/submit", url.Values{"text": {""}})
	require.NoError(t, err)
	body := readBody(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, body, `id="result"`)
	assert.NotContains(t, body, `class="error"`)
	assert.Equal(t, 0, j.Len())
}

func TestSubmitGeneratorErrors(t *testing.T) {
	cases := []struct {
		name   string
		kind   ai.Kind
		status int
		msg    string
	}{
		{"config", ai.KindConfig, http.StatusServiceUnavailable, msgAIConfig},
		{"transient", ai.KindTransient, http.StatusServiceUnavailable, msgAITransient},
		{"service", ai.KindService, http.StatusBadGateway, msgAIService},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gen := &stubGenerator{err: &ai.Error{Kind: tc.kind, Provider: "fake", Err: errors.New("boom")}}
			srv, j := newServer(t, nil, gen)

			resp, err := http.PostForm(srv.URL+"/submit", url.Values{"text": {"hello"}})
			require.NoError(t, err)
			body := readBody(t, resp)

			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Contains(t, body, tc.msg)
			assert.NotContains(t, body, `id="result"`)
			assert.Equal(t, 0, j.Len())
		})
	}
}

func TestSubmitSaveFailureWarns(t *testing.T) {
	srv, j := newServer(t, brokenStore{}, &stubGenerator{reply: "ok"})

	resp, err := http.PostForm(srv.URL+"/submit", url.Values{"text": {"lonely tonight"}})
	require.NoError(t, err)
	body := readBody(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "could not be saved")
	assert.Contains(t, body, `id="result"`)
	assert.NotContains(t, body, "Entry saved successfully!")
	assert.True(t, j.Dirty())
}

func TestSubmitWrongMethod(t *testing.T) {
	srv, _ := newServer(t, nil, &stubGenerator{reply: "ok"})

	resp, err := http.Get(srv.URL + "/submit")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func postJSON(t *testing.T, target, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(target, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	return resp
}

func TestAPICreateAndList(t *testing.T) {
	srv, _ := newServer(t, nil, &stubGenerator{reply: "You are not alone."})

	resp := postJSON(t, srv.URL+"/api/entries", `{"text":"my friend ignored me"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		Status  string               `json:"status"`
		Data    models.JournalRecord `json:"data"`
		Warning string               `json:"warning"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()

	assert.Equal(t, "created", created.Status)
	assert.Equal(t, "Relationships", created.Data.EmotionTrigger)
	assert.Equal(t, "You are not alone.", created.Data.AIResponse)
	assert.Empty(t, created.Warning)

	resp = postJSON(t, srv.URL+"/api/entries", `{"text":"exam"}`)
	resp.Body.Close()

	resp, err := http.Get(srv.URL + "/api/entries?limit=1")
	require.NoError(t, err)
	var listed struct {
		Data []models.JournalRecord `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listed))
	resp.Body.Close()
	require.Len(t, listed.Data, 1)
	assert.Equal(t, "exam", listed.Data[0].UserInput)

	resp, err = http.Get(srv.URL + "/api/triggers")
	require.NoError(t, err)
	var triggers struct {
		Data []models.TriggerCount `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&triggers))
	resp.Body.Close()
	assert.Equal(t, []models.TriggerCount{
		{Trigger: "Relationships", Count: 1},
		{Trigger: "Work/Studies Stress", Count: 1},
	}, triggers.Data)
}

func TestAPICreateStatuses(t *testing.T) {
	srv, _ := newServer(t, nil, &stubGenerator{reply: "ok"})

	resp := postJSON(t, srv.URL+"/api/entries", `{"text":""}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/api/entries", `{"text":`)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/entries", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/entries?limit=ten")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPICreateGeneratorError(t *testing.T) {
	gen := &stubGenerator{err: &ai.Error{Kind: ai.KindConfig, Provider: "fake", Err: ai.ErrMissingAPIKey}}
	srv, _ := newServer(t, nil, gen)

	resp := postJSON(t, srv.URL+"/api/entries", `{"text":"hi"}`)
	body := readBody(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, body, msgAIConfig)
}

func TestAPICreateSaveWarning(t *testing.T) {
	srv, _ := newServer(t, brokenStore{}, &stubGenerator{reply: "ok"})

	resp := postJSON(t, srv.URL+"/api/entries", `{"text":"hi"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()
	assert.Equal(t, msgSaveFailed, created["warning"])
}

func TestHealth(t *testing.T) {
	srv, _ := newServer(t, nil, &stubGenerator{reply: "ok"})

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok"}`, readBody(t, resp))
}

func TestSubmitCRLFTextMatchesReloadedRecord(t *testing.T) {
	store := storage.NewCSVStorage(filepath.Join(t.TempDir(), "mental_health_logs.csv"))
	srv, j := newServer(t, store, &stubGenerator{reply: "ok"})

	resp, err := http.PostForm(srv.URL+"/submit", url.Values{"text": {"bad day at work\r\nfeeling alone"}})
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/api/entries", `{"text":"line one\r\nline two\rline three"}`)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	inSession := j.Recent(usecases.HistoryLimit)
	require.Len(t, inSession, 2)
	assert.Equal(t, "bad day at work\nfeeling alone", inSession[0].UserInput)
	assert.Equal(t, 10, inSession[0].MentalHealthScore)
	assert.Equal(t, "line one\nline two\nline three", inSession[1].UserInput)

	onDisk, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, inSession, onDisk.Records())
}

func TestViewTogglesFormDoesNotCarryText(t *testing.T) {
	srv, _ := newServer(t, nil, &stubGenerator{reply: "ok"})

	resp, err := http.PostForm(srv.URL+"/submit", url.Values{"text": {"private thoughts"}, "history": {"1"}})
	require.NoError(t, err)
	body := readBody(t, resp)

	start := strings.Index(body, `id="views"`)
	require.GreaterOrEqual(t, start, 0)
	end := strings.Index(body[start:], "</form>")
	require.Greater(t, end, 0)
	viewsForm := body[start : start+end]

	assert.Contains(t, viewsForm, `name="history"`)
	assert.NotContains(t, viewsForm, `name="text"`)
	assert.NotContains(t, viewsForm, "private thoughts")

	// the submit form keeps the current toggles
	assert.Contains(t, body, `<input type="hidden" name="history" value="1">`)
	assert.NotContains(t, body, `<input type="hidden" name="chart" value="1">`)
}

func TestOversizedBodiesAreRejected(t *testing.T) {
	srv, j := newServer(t, nil, &stubGenerator{reply: "ok"})
	long := strings.Repeat("a", maxRequestBody+1)

	resp, err := http.PostForm(srv.URL+"/submit", url.Values{"text": {long}})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)

	payload, err := json.Marshal(map[string]string{"text": long})
	require.NoError(t, err)
	resp = postJSON(t, srv.URL+"/api/entries", string(payload))
	body := readBody(t, resp)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	assert.Contains(t, body, msgTooLarge)

	assert.Equal(t, 0, j.Len())
}
