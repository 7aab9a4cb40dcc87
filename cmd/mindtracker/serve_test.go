package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"mindtracker/internal/ai"
	"mindtracker/internal/config"
	"mindtracker/internal/storage"
	"mindtracker/internal/usecases"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOpenStoreCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.csv")
	store, closeStore, err := openStore(context.Background(), &config.Config{StoreBackend: config.BackendCSV, DataFile: path}, zap.NewNop())
	require.NoError(t, err)
	defer closeStore()

	csvStore, ok := store.(*storage.CSVStorage)
	require.True(t, ok)
	assert.Equal(t, path, csvStore.Path())
}

func TestOpenStoreUnknownBackend(t *testing.T) {
	_, _, err := openStore(context.Background(), &config.Config{StoreBackend: "sqlite"}, zap.NewNop())
	assert.ErrorContains(t, err, "sqlite")
}

func TestNewGeneratorWithoutKeyStillServes(t *testing.T) {
	cfg := &config.Config{AIProvider: "gemini", AIMaxRetries: 0}
	gen := newGenerator(context.Background(), cfg, zap.NewNop())
	require.NotNil(t, gen)
	assert.Equal(t, ai.ProviderGemini, gen.Provider())

	_, err := gen.Generate(context.Background(), "hello")
	require.Error(t, err)
	assert.Equal(t, ai.KindConfig, ai.KindOf(err))
}

func TestRouterWiring(t *testing.T) {
	store := storage.NewCSVStorage(filepath.Join(t.TempDir(), "journal.csv"))
	gen := newGenerator(context.Background(), &config.Config{AIProvider: "openai"}, zap.NewNop())
	journal := usecases.NewJournal(context.Background(), store, gen, usecases.DefaultClassifier())

	router, err := newRouter(journal, zap.NewNop())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?tip=1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), usecases.DailyTip)
}
