package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"atlasacademico/internal/database"
	"atlasacademico/internal/tasks"
)

type fakeFallbackStore struct {
	entries map[string][]byte
}

func (f *fakeFallbackStore) Get(_ context.Context, key string) *redis.StringCmd {
	if b, ok := f.entries[key]; ok {
		return redis.NewStringResult(string(b), nil)
	}
	return redis.NewStringResult("", redis.Nil)
}

func (f *fakeFallbackStore) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(f.entries, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func newFallbackContext(t *testing.T, token string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/v1/curriculum/fallback/"+token, nil)
	c.Params = gin.Params{{Key: "token", Value: token}}
	return c, w
}

func TestDownloadFallback_StreamsOnceThenExpires(t *testing.T) {
	db := newTestDB(t)
	const token = "one-shot-token"
	pdf := []byte("%PDF-1.3 parked document")
	export := database.CurriculumExport{
		UserID:        1,
		Status:        database.ExportStatusCompleted,
		FileName:      "Ana_Silva_Curriculo_Oficial.pdf",
		FallbackToken: token,
	}
	if err := db.Create(&export).Error; err != nil {
		t.Fatalf("seed export: %v", err)
	}

	store := &fakeFallbackStore{entries: map[string][]byte{
		tasks.FallbackKeyPrefix + token: pdf,
	}}
	h := NewExportHandler(db, nil, nil, store, slog.New(slog.NewTextHandler(io.Discard, nil)))

	c, w := newFallbackContext(t, token)
	h.DownloadFallback(c)
	if w.Code != http.StatusOK {
		t.Fatalf("first download: status %d, body %s", w.Code, w.Body.String())
	}
	if got := w.Body.String(); got != string(pdf) {
		t.Fatalf("streamed body = %q, want parked bytes", got)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("content type = %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, export.FileName) {
		t.Fatalf("content disposition %q misses file name", cd)
	}

	c2, w2 := newFallbackContext(t, token)
	h.DownloadFallback(c2)
	if w2.Code != http.StatusGone {
		t.Fatalf("second download: status %d, want %d", w2.Code, http.StatusGone)
	}
}

func TestDownloadFallback_UnknownTokenIsGone(t *testing.T) {
	db := newTestDB(t)
	store := &fakeFallbackStore{entries: map[string][]byte{}}
	h := NewExportHandler(db, nil, nil, store, slog.New(slog.NewTextHandler(io.Discard, nil)))

	c, w := newFallbackContext(t, "never-issued")
	h.DownloadFallback(c)
	if w.Code != http.StatusGone {
		t.Fatalf("status %d, want %d", w.Code, http.StatusGone)
	}
}
