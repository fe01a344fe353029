package handlers

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/rowanhart/tasknest/internal/models"
	"github.com/rowanhart/tasknest/internal/request"
	"github.com/rowanhart/tasknest/internal/store"
)

type fakeTagStatsStore struct {
	stats   map[uuid.UUID]*models.TagStatistics
	failGet bool
}

func newFakeTagStatsStore() *fakeTagStatsStore {
	return &fakeTagStatsStore{stats: make(map[uuid.UUID]*models.TagStatistics)}
}

func (f *fakeTagStatsStore) GetByOwner(_ context.Context, owner uuid.UUID) (*models.TagStatistics, error) {
	if f.failGet {
		return nil, errStoreDown
	}
	s, ok := f.stats[owner]
	if !ok {
		return nil, fmt.Errorf("tag statistics for %s: %w", owner, store.ErrNotFound)
	}
	return s, nil
}

func (f *fakeTagStatsStore) Upsert(_ context.Context, stats *models.TagStatistics) error {
	f.stats[stats.Owner] = stats
	return nil
}

func newTagTestServer(t *testing.T, st *fakeTagStatsStore) (*mux.Router, *models.User) {
	t.Helper()

	user := &models.User{ID: uuid.New(), Username: "tester"}
	handler := NewTagHandler(st, zap.NewNop())

	router := mux.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(request.WithUser(r.Context(), user)))
		})
	})
	handler.RegisterRoutes(router.PathPrefix("/tags").Subrouter())
	return router, user
}

func TestGetTagStatistics(t *testing.T) {
	t.Parallel()

	st := newFakeTagStatsStore()
	router, user := newTagTestServer(t, st)

	analyzed := time.Now().UTC()
	st.stats[user.ID] = &models.TagStatistics{
		Owner: user.ID,
		Tags: map[string]models.TagCount{
			"work":   {Total: 2, Complete: 1, Incomplete: 1},
			"urgent": {Total: 1, Incomplete: 1},
		},
		TaskCount:      3,
		LastAnalyzedAt: &analyzed,
	}

	rec := doJSON(t, router, http.MethodGet, "/tags", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var got models.TagStatistics
	dataField(t, rec, &got)
	if got.TaskCount != 3 {
		t.Errorf("expected task count 3, got %d", got.TaskCount)
	}
	if got.Tags["work"] != (models.TagCount{Total: 2, Complete: 1, Incomplete: 1}) {
		t.Errorf("unexpected counts for work: %+v", got.Tags["work"])
	}
	if got.LastAnalyzedAt == nil {
		t.Error("expected last_analyzed_at to be set")
	}
}

func TestGetTagStatisticsNotYetAnalyzed(t *testing.T) {
	t.Parallel()

	router, _ := newTagTestServer(t, newFakeTagStatsStore())

	rec := doJSON(t, router, http.MethodGet, "/tags", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestGetTagStatisticsStoreFailure(t *testing.T) {
	t.Parallel()

	st := newFakeTagStatsStore()
	st.failGet = true
	router, _ := newTagTestServer(t, st)

	rec := doJSON(t, router, http.MethodGet, "/tags", nil)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestGetTagStatisticsUnauthenticated(t *testing.T) {
	t.Parallel()

	handler := NewTagHandler(newFakeTagStatsStore(), zap.NewNop())
	router := mux.NewRouter()
	handler.RegisterRoutes(router.PathPrefix("/tags").Subrouter())

	rec := doJSON(t, router, http.MethodGet, "/tags", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
	}
}
