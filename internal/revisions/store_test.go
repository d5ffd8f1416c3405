package revisions

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/HendryAvila/flowdoc/internal/flow"
)

func newTestStore(t *testing.T, maxPerFlow int) *Store {
	t.Helper()
	s, err := New(Config{DataDir: t.TempDir(), MaxPerFlow: maxPerFlow})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordAndList(t *testing.T) {
	s := newTestStore(t, 0)

	orig := timeNow
	timeNow = func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) }
	defer func() { timeNow = orig }()

	if err := s.Record("checkout", "create", "created", []byte(`{"v":1}`)); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := s.Record("checkout", "patch", "replace /name", []byte(`{"v":2}`)); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := s.Record("other", "create", "created", []byte(`{}`)); err != nil {
		t.Fatalf("Record: %v", err)
	}

	revs, err := s.List("checkout", 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(revs) != 2 {
		t.Fatalf("len = %d, want 2", len(revs))
	}
	if revs[0].Op != "patch" || revs[1].Op != "create" {
		t.Errorf("order = %s, %s; want newest first", revs[0].Op, revs[1].Op)
	}
	if revs[0].Content != "" {
		t.Error("List should not return content")
	}
	if revs[0].CreatedAt != "2026-05-01T12:00:00Z" || revs[0].Size != 7 {
		t.Errorf("revision = %+v", revs[0])
	}
}

func TestRecord_SkipsIdenticalContent(t *testing.T) {
	s := newTestStore(t, 0)
	for i := 0; i < 3; i++ {
		if err := s.Record("checkout", "write", "same", []byte(`{"same":true}`)); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	revs, _ := s.List("checkout", 10)
	if len(revs) != 1 {
		t.Errorf("len = %d, want 1", len(revs))
	}
}

func TestRecord_Prunes(t *testing.T) {
	s := newTestStore(t, 2)
	for i := 0; i < 5; i++ {
		if err := s.Record("checkout", "write", "", []byte(fmt.Sprintf(`{"n":%d}`, i))); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	revs, _ := s.List("checkout", 10)
	if len(revs) != 2 {
		t.Fatalf("len = %d, want 2", len(revs))
	}
	full, err := s.Get(revs[1].ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if full.Content != `{"n":3}` {
		t.Errorf("oldest kept = %s, want n=3", full.Content)
	}
}

func TestGet(t *testing.T) {
	s := newTestStore(t, 0)

	origID := newID
	newID = func() string { return "rev-1" }
	defer func() { newID = origID }()

	if err := s.Record("checkout", "create", "created", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("Record: %v", err)
	}
	r, err := s.Get("rev-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if r.Content != `{"a":1}` || r.FlowID != "checkout" || r.SHA256 != hashContent([]byte(`{"a":1}`)) {
		t.Errorf("revision = %+v", r)
	}

	if _, err := s.Get("missing"); !errors.Is(err, flow.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestNew_OpenFailure(t *testing.T) {
	orig := openDB
	openDB = func(driver, dsn string) (*sql.DB, error) { return nil, errors.New("boom") }
	defer func() { openDB = orig }()

	if _, err := New(Config{DataDir: t.TempDir()}); err == nil {
		t.Error("expected error when the database cannot be opened")
	}
}
