package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rowanhart/tasknest/internal/models"
)

// fakeStore is an in-memory TaskStore with switchable failure modes
type fakeStore struct {
	tasks       map[uuid.UUID]models.Task
	order       []uuid.UUID
	failList    bool
	failInsert  bool
	failReplace bool
	failDelete  bool
}

var errStoreDown = errors.New("store unavailable")

func newFakeStore() *fakeStore {
	return &fakeStore{tasks: make(map[uuid.UUID]models.Task)}
}

func (s *fakeStore) ListByOwner(_ context.Context, owner uuid.UUID) ([]models.Task, error) {
	if s.failList {
		return nil, errStoreDown
	}
	var out []models.Task
	for _, id := range s.order {
		if t, ok := s.tasks[id]; ok && t.Owner == owner {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *fakeStore) Insert(_ context.Context, task models.Task) (uuid.UUID, error) {
	if s.failInsert {
		return uuid.Nil, errStoreDown
	}
	id := uuid.New()
	task.ID = id
	s.tasks[id] = task
	s.order = append(s.order, id)
	return id, nil
}

func (s *fakeStore) Replace(_ context.Context, id uuid.UUID, task models.Task) error {
	if s.failReplace {
		return errStoreDown
	}
	if _, ok := s.tasks[id]; !ok {
		return errors.New("no such task")
	}
	task.ID = id
	s.tasks[id] = task
	return nil
}

func (s *fakeStore) Delete(_ context.Context, id uuid.UUID) error {
	if s.failDelete {
		return errStoreDown
	}
	delete(s.tasks, id)
	return nil
}

var testClock = func() time.Time {
	return time.Date(2024, 6, 12, 10, 0, 0, 0, time.UTC)
}

func newTestEngine(t *testing.T, st *fakeStore) *Engine {
	t.Helper()
	eng := New(st, WithClock(testClock))
	if err := eng.SetActiveUser(context.Background(), uuid.New()); err != nil {
		t.Fatalf("SetActiveUser failed: %v", err)
	}
	return eng
}

func taskIDs(tasks []models.Task) []uuid.UUID {
	ids := make([]uuid.UUID, len(tasks))
	for i, task := range tasks {
		ids[i] = task.ID
	}
	return ids
}

func sameIDs(a, b []uuid.UUID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestEngine_CreateRoundTrip(t *testing.T) {
	t.Parallel()

	st := newFakeStore()
	eng := newTestEngine(t, st)
	ctx := context.Background()

	created, err := eng.Create(ctx, Draft{Title: "Buy milk"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == uuid.Nil {
		t.Error("Expected store-assigned id, got nil id")
	}
	if created.Status != models.TaskStatusIncomplete {
		t.Errorf("Expected new task to default to incomplete, got %s", created.Status)
	}
	if created.CreatedLabel == "" {
		t.Error("Expected creation label to be captured")
	}

	// A fresh full load against the same store yields exactly that record.
	if err := eng.LoadAll(ctx, eng.ActiveUser()); err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	tasks := eng.Tasks()
	if len(tasks) != 1 {
		t.Fatalf("Expected 1 task after reload, got %d", len(tasks))
	}
	if tasks[0].Title != "Buy milk" || tasks[0].ID != created.ID {
		t.Errorf("Reloaded task mismatch: %+v", tasks[0])
	}
}

func TestEngine_CreateValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		draft Draft
	}{
		{"empty title", Draft{Title: ""}},
		{"whitespace title", Draft{Title: "   "}},
		{"bad custom due date", Draft{Title: "x", DueDateKind: models.DueDateCustom, DueDate: "junk"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			st := newFakeStore()
			eng := newTestEngine(t, st)

			_, err := eng.Create(context.Background(), tt.draft)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if len(st.order) != 0 {
				t.Error("Validation failure must not reach the store")
			}
			if len(eng.Tasks()) != 0 {
				t.Error("Validation failure must not touch the canonical list")
			}
		})
	}
}

func TestEngine_CreateWithoutActiveUser(t *testing.T) {
	t.Parallel()

	eng := New(newFakeStore(), WithClock(testClock))

	_, err := eng.Create(context.Background(), Draft{Title: "orphan"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
}

func TestEngine_CreateFailureLeavesListUntouched(t *testing.T) {
	t.Parallel()

	st := newFakeStore()
	eng := newTestEngine(t, st)
	ctx := context.Background()

	seed, err := eng.Create(ctx, Draft{Title: "existing"})
	if err != nil {
		t.Fatalf("seed Create failed: %v", err)
	}
	before := taskIDs(eng.Tasks())

	st.failInsert = true
	_, err = eng.Create(ctx, Draft{Title: "doomed"})
	var perr *PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("Expected PersistenceError, got %v", err)
	}
	if !errors.Is(err, errStoreDown) {
		t.Error("Expected the underlying store error to be surfaced")
	}

	after := taskIDs(eng.Tasks())
	if !sameIDs(before, after) {
		t.Errorf("Canonical list changed across failed create: before %v, after %v", before, after)
	}
	if _, ok := eng.Get(seed.ID); !ok {
		t.Error("Existing task lost after failed create")
	}
}

func TestEngine_UpdateReplacesInPlace(t *testing.T) {
	t.Parallel()

	st := newFakeStore()
	eng := newTestEngine(t, st)
	ctx := context.Background()

	first, _ := eng.Create(ctx, Draft{Title: "first"})
	second, _ := eng.Create(ctx, Draft{Title: "second"})
	third, _ := eng.Create(ctx, Draft{Title: "third"})

	updated := second
	updated.Title = "second, edited"
	updated.Status = models.TaskStatusComplete
	updated.Hashtags = "#edited"
	if err := eng.Update(ctx, updated); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	ids := taskIDs(eng.Tasks())
	want := []uuid.UUID{first.ID, second.ID, third.ID}
	if !sameIDs(ids, want) {
		t.Errorf("Update changed list positions: got %v, want %v", ids, want)
	}

	got, ok := eng.Get(second.ID)
	if !ok {
		t.Fatal("Updated task missing from canonical list")
	}
	if got.Title != "second, edited" || got.Status != models.TaskStatusComplete {
		t.Errorf("Update not applied: %+v", got)
	}
	if got.CreatedLabel != second.CreatedLabel {
		t.Error("Update must not recompute the creation label")
	}
}

func TestEngine_UpdateUnknownID(t *testing.T) {
	t.Parallel()

	st := newFakeStore()
	eng := newTestEngine(t, st)

	err := eng.Update(context.Background(), models.Task{ID: uuid.New(), Title: "ghost"})
	var nferr *NotFoundError
	if !errors.As(err, &nferr) {
		t.Fatalf("Expected NotFoundError, got %v", err)
	}
}

func TestEngine_UpdateFailureLeavesListUntouched(t *testing.T) {
	t.Parallel()

	st := newFakeStore()
	eng := newTestEngine(t, st)
	ctx := context.Background()

	created, _ := eng.Create(ctx, Draft{Title: "stable"})
	before, _ := eng.Get(created.ID)

	st.failReplace = true
	modified := created
	modified.Title = "speculative edit"
	err := eng.Update(ctx, modified)

	var perr *PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("Expected PersistenceError, got %v", err)
	}

	after, ok := eng.Get(created.ID)
	if !ok {
		t.Fatal("Task missing after failed update")
	}
	if after.Title != before.Title {
		t.Errorf("Canonical entry mutated across failed update: %q", after.Title)
	}
}

func TestEngine_Remove(t *testing.T) {
	t.Parallel()

	st := newFakeStore()
	eng := newTestEngine(t, st)
	ctx := context.Background()

	keep, _ := eng.Create(ctx, Draft{Title: "keep"})
	gone, _ := eng.Create(ctx, Draft{Title: "gone"})

	if err := eng.Remove(ctx, gone.ID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, ok := eng.Get(gone.ID); ok {
		t.Error("Removed task still in canonical list")
	}
	if _, ok := eng.Get(keep.ID); !ok {
		t.Error("Unrelated task removed")
	}
	if _, ok := st.tasks[gone.ID]; ok {
		t.Error("Removed task still in store")
	}

	// Unknown ids fail before any store call.
	err := eng.Remove(ctx, uuid.New())
	var nferr *NotFoundError
	if !errors.As(err, &nferr) {
		t.Fatalf("Expected NotFoundError, got %v", err)
	}
}

func TestEngine_RemoveFailureLeavesListUntouched(t *testing.T) {
	t.Parallel()

	st := newFakeStore()
	eng := newTestEngine(t, st)
	ctx := context.Background()

	created, _ := eng.Create(ctx, Draft{Title: "sticky"})
	before := taskIDs(eng.Tasks())

	st.failDelete = true
	err := eng.Remove(ctx, created.ID)
	var perr *PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("Expected PersistenceError, got %v", err)
	}
	if !sameIDs(before, taskIDs(eng.Tasks())) {
		t.Error("Canonical list changed across failed remove")
	}
}

func TestEngine_LoadFailureRetainsPriorList(t *testing.T) {
	t.Parallel()

	st := newFakeStore()
	eng := newTestEngine(t, st)
	ctx := context.Background()

	created, _ := eng.Create(ctx, Draft{Title: "survivor"})

	st.failList = true
	err := eng.LoadAll(ctx, eng.ActiveUser())
	var lerr *LoadError
	if !errors.As(err, &lerr) {
		t.Fatalf("Expected LoadError, got %v", err)
	}
	if _, ok := eng.Get(created.ID); !ok {
		t.Error("Prior canonical list lost after failed load")
	}
}

func TestEngine_SetActiveUserResetsState(t *testing.T) {
	t.Parallel()

	st := newFakeStore()
	eng := newTestEngine(t, st)
	ctx := context.Background()

	if _, err := eng.Create(ctx, Draft{Title: "alice's task", Hashtags: "#a"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	eng.SetStatusFilter(StatusFilterComplete)
	eng.SetHashtagFilter("#a")

	bob := uuid.New()
	if err := eng.SetActiveUser(ctx, bob); err != nil {
		t.Fatalf("SetActiveUser failed: %v", err)
	}

	if len(eng.Tasks()) != 0 {
		t.Error("Canonical list should only hold the active user's records")
	}
	if eng.Filters() != DefaultFilters() {
		t.Errorf("Filters not reset on user switch: %+v", eng.Filters())
	}
	if eng.ActiveUser() != bob {
		t.Errorf("Active user = %s, want %s", eng.ActiveUser(), bob)
	}
}

func TestEngine_SetActiveUserEmpty(t *testing.T) {
	t.Parallel()

	st := newFakeStore()
	st.failList = true // must never be consulted for the no-user state
	eng := New(st, WithClock(testClock))

	if err := eng.SetActiveUser(context.Background(), uuid.Nil); err != nil {
		t.Fatalf("SetActiveUser(nil) failed: %v", err)
	}
	if len(eng.Tasks()) != 0 {
		t.Error("No-user state should have an empty canonical list")
	}
}

func TestManager_SerializesPerUser(t *testing.T) {
	t.Parallel()

	st := newFakeStore()
	m := NewManager(st, nil)
	ctx := context.Background()
	userID := uuid.New()

	if err := m.Activate(ctx, userID); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}

	done := make(chan error, 10)
	for i := 0; i < 10; i++ {
		go func() {
			done <- m.With(ctx, userID, func(eng *Engine) error {
				_, err := eng.Create(ctx, Draft{Title: "concurrent"})
				return err
			})
		}()
	}
	for i := 0; i < 10; i++ {
		if err := <-done; err != nil {
			t.Fatalf("Concurrent create failed: %v", err)
		}
	}

	var count int
	if err := m.With(ctx, userID, func(eng *Engine) error {
		count = len(eng.Tasks())
		return nil
	}); err != nil {
		t.Fatalf("With failed: %v", err)
	}
	if count != 10 {
		t.Errorf("Expected 10 tasks, got %d", count)
	}
}

func TestManager_ActivatesOnDemand(t *testing.T) {
	t.Parallel()

	st := newFakeStore()
	m := NewManager(st, nil)
	ctx := context.Background()
	userID := uuid.New()

	// No explicit Activate; With should lazily establish the session.
	err := m.With(ctx, userID, func(eng *Engine) error {
		if eng.ActiveUser() != userID {
			t.Errorf("Engine bound to %s, want %s", eng.ActiveUser(), userID)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("With failed: %v", err)
	}
}
