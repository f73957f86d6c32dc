package syncer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jortega/cuaderno/internal/models"
	"github.com/jortega/cuaderno/internal/remote"
	"github.com/jortega/cuaderno/internal/roster"
	"github.com/jortega/cuaderno/internal/storage"
)

// fakeIdentity is a test identity provider with manual transitions.
type fakeIdentity struct {
	userID    string
	listeners []func(string)
}

func (f *fakeIdentity) CurrentUser() string { return f.userID }

func (f *fakeIdentity) OnChange(fn func(string)) func() {
	f.listeners = append(f.listeners, fn)
	return func() {}
}

func (f *fakeIdentity) signIn(userID string) {
	f.userID = userID
	for _, fn := range f.listeners {
		fn(userID)
	}
}

func (f *fakeIdentity) signOut() {
	f.userID = ""
	for _, fn := range f.listeners {
		fn("")
	}
}

type harness struct {
	local  *storage.Memory
	remote *remote.Memory
	ident  *fakeIdentity
	model  *roster.Model
	engine *Engine
}

func newHarness(t *testing.T, window time.Duration) *harness {
	t.Helper()
	h := &harness{
		local:  storage.NewMemory(),
		remote: remote.NewMemory(),
		ident:  &fakeIdentity{},
	}
	h.model = roster.New(h.local, nil)
	h.engine = New(Options{
		Local:    h.local,
		Remote:   h.remote,
		Identity: h.ident,
		Roster:   h.model,
		Window:   window,
	})
	t.Cleanup(h.engine.Close)
	return h
}

func seedLocal(t *testing.T, local *storage.Memory, students []models.Student, ts int64) {
	t.Helper()
	ctx := context.Background()
	m := roster.New(local, nil)
	for _, s := range students {
		if err := m.Add(s.Name, s.Amount); err != nil {
			t.Fatalf("seed add failed: %v", err)
		}
	}
	if ts > 0 {
		local.Set(ctx, storage.KeyLastSynced, "100")
	}
}

func TestReconcileRemoteNewerWins(t *testing.T) {
	h := newHarness(t, time.Hour)
	ctx := context.Background()

	seedLocal(t, h.local, []models.Student{{Name: "LocalOnly", Amount: 10}}, 100)
	remoteSnap := &models.Snapshot{
		Students: []models.Student{
			{Name: "Ana", Amount: 90, Active: true, Attendance: models.AttendanceFull},
			{Name: "Luis", Amount: 60, Active: true, Attendance: models.AttendanceFull},
		},
		Config:      models.DefaultConfig(),
		LastUpdated: 200,
	}
	h.remote.Seed("user-1", remoteSnap)
	h.ident.userID = "user-1"

	h.engine.Start(ctx)

	students := h.model.Students()
	if len(students) != 2 || students[0].Name != "Ana" {
		t.Fatalf("in-memory state not replaced by remote: %+v", students)
	}
	if h.engine.LastSynced() != 200 {
		t.Errorf("LastSynced = %d, want 200", h.engine.LastSynced())
	}
	raw, _, _ := h.local.Get(ctx, storage.KeyLastSynced)
	if raw != "200" {
		t.Errorf("stored timestamp = %q, want 200", raw)
	}
	// Remote wins means no upload.
	if h.remote.Upserts() != 0 {
		t.Errorf("unexpected uploads: %d", h.remote.Upserts())
	}
}

func TestReconcileLocalNewerUploads(t *testing.T) {
	h := newHarness(t, time.Hour)
	ctx := context.Background()

	seedLocal(t, h.local, []models.Student{{Name: "Ana", Amount: 90}}, 100)
	h.local.Set(ctx, storage.KeyLastSynced, "300")
	h.remote.Seed("user-1", &models.Snapshot{
		Students:    []models.Student{{Name: "Stale", Amount: 1, Active: true, Attendance: models.AttendanceFull}},
		Config:      models.DefaultConfig(),
		LastUpdated: 200,
	})
	h.ident.userID = "user-1"

	h.engine.Start(ctx)

	if h.remote.Upserts() != 1 {
		t.Fatalf("expected 1 upload, got %d", h.remote.Upserts())
	}
	doc := h.remote.Doc("user-1")
	if len(doc.Students) != 1 || doc.Students[0].Name != "Ana" {
		t.Errorf("uploaded snapshot = %+v", doc.Students)
	}
	if doc.LastUpdated <= 300 {
		t.Errorf("upload not freshly stamped: %d", doc.LastUpdated)
	}
	// Local in-memory state untouched.
	if h.model.Students()[0].Name != "Ana" {
		t.Error("local state was overwritten")
	}
}

func TestReconcileNoRemoteBootstrap(t *testing.T) {
	h := newHarness(t, time.Hour)
	ctx := context.Background()

	// Three students, never synced (timestamp absent = 0).
	seedLocal(t, h.local, []models.Student{
		{Name: "Ana", Amount: 90}, {Name: "Luis", Amount: 60}, {Name: "Eva", Amount: 30},
	}, 0)
	h.ident.userID = "user-1"

	h.engine.Start(ctx)

	if h.remote.Upserts() != 1 {
		t.Fatalf("expected bootstrap upload, got %d", h.remote.Upserts())
	}
	doc := h.remote.Doc("user-1")
	if doc.LastUpdated <= 0 {
		t.Errorf("uploaded timestamp = %d, want > 0", doc.LastUpdated)
	}
	if len(doc.Students) != 3 {
		t.Errorf("uploaded %d students, want 3", len(doc.Students))
	}
	if len(h.model.Students()) != 3 {
		t.Error("local state changed during bootstrap")
	}
}

func TestReconcileBothEmptyNoop(t *testing.T) {
	h := newHarness(t, time.Hour)
	h.ident.userID = "user-1"

	h.engine.Start(context.Background())

	if h.remote.Upserts() != 0 {
		t.Errorf("empty local state must not upload, got %d uploads", h.remote.Upserts())
	}
}

func TestReconcileEmptyLocalAdoptsRemote(t *testing.T) {
	h := newHarness(t, time.Hour)
	ctx := context.Background()

	h.remote.Seed("user-1", &models.Snapshot{
		Students:    []models.Student{{Name: "Cloud", Amount: 42, Active: true, Attendance: models.AttendanceFull}},
		Config:      models.DefaultConfig(),
		LastUpdated: 50,
	})
	h.ident.userID = "user-1"

	h.engine.Start(ctx)

	students := h.model.Students()
	if len(students) != 1 || students[0].Name != "Cloud" {
		t.Fatalf("remote snapshot not adopted: %+v", students)
	}
	raw, _, _ := h.local.Get(ctx, storage.KeyStudents)
	if raw == "" {
		t.Error("adopted snapshot not persisted locally")
	}
}

func TestReconcileFetchErrorFallsBackToLocal(t *testing.T) {
	h := newHarness(t, time.Hour)
	ctx := context.Background()

	seedLocal(t, h.local, []models.Student{{Name: "Ana", Amount: 90}}, 100)
	h.remote.FailNext = errors.New("network down")
	h.ident.userID = "user-1"

	h.engine.Start(ctx) // must not panic or alter local state

	students := h.model.Students()
	if len(students) != 1 || students[0].Name != "Ana" {
		t.Fatalf("local state lost on fetch error: %+v", students)
	}
	if h.remote.Upserts() != 0 {
		t.Error("engine uploaded despite failed reconciliation")
	}
}

func TestLateSignInReconciles(t *testing.T) {
	h := newHarness(t, time.Hour)
	ctx := context.Background()

	seedLocal(t, h.local, []models.Student{{Name: "Ana", Amount: 90}}, 0)

	// Nobody signed in at startup.
	h.engine.Start(ctx)
	if h.remote.Upserts() != 0 {
		t.Fatal("signed-out session must not upload")
	}

	// User signs in mid-session: one-time reconciliation runs.
	h.ident.signIn("user-1")
	if h.remote.Upserts() != 1 {
		t.Fatalf("expected upload after late sign-in, got %d", h.remote.Upserts())
	}

	// A second sign-in event in the same session does nothing.
	h.ident.signIn("user-1")
	if h.remote.Upserts() != 1 {
		t.Errorf("reconciliation ran twice in one session")
	}
}

func TestSignOutRearmsReconciliation(t *testing.T) {
	h := newHarness(t, time.Hour)
	ctx := context.Background()

	seedLocal(t, h.local, []models.Student{{Name: "Ana", Amount: 90}}, 0)
	h.engine.Start(ctx)

	h.ident.signIn("user-1")
	if h.remote.Upserts() != 1 {
		t.Fatalf("expected upload on first sign-in, got %d", h.remote.Upserts())
	}

	// Sign out, then make the local side strictly newer than the
	// uploaded document before signing in again.
	h.ident.signOut()
	h.local.Set(ctx, storage.KeyLastSynced, "9999999999999")
	h.ident.signIn("user-1")

	if h.remote.Upserts() != 2 {
		t.Errorf("expected a reconciliation per sign-in, got %d uploads", h.remote.Upserts())
	}
}

func TestDebounceCoalescesBurst(t *testing.T) {
	h := newHarness(t, 30*time.Millisecond)
	ctx := context.Background()
	h.ident.userID = "user-1"
	h.engine.Start(ctx)

	// Five rapid edits within the quiet window.
	h.model.Add("Ana", 10)
	h.model.Edit("Ana", 20)
	h.model.Edit("Ana", 30)
	h.model.Edit("Ana", 40)
	h.model.Edit("Ana", 55)

	time.Sleep(150 * time.Millisecond)

	if got := h.remote.Upserts(); got != 1 {
		t.Fatalf("expected exactly 1 upload, got %d", got)
	}
	doc := h.remote.Doc("user-1")
	if len(doc.Students) != 1 || doc.Students[0].Amount != 55 {
		t.Errorf("upload does not reflect the final edit: %+v", doc.Students)
	}
	if doc.LastUpdated == 0 {
		t.Error("upload missing timestamp")
	}
}

func TestDebounceRunsAgainAfterQuiet(t *testing.T) {
	h := newHarness(t, 20*time.Millisecond)
	h.ident.userID = "user-1"
	h.engine.Start(context.Background())

	h.model.Add("Ana", 10)
	time.Sleep(100 * time.Millisecond)
	h.model.Edit("Ana", 99)
	time.Sleep(100 * time.Millisecond)

	if got := h.remote.Upserts(); got != 2 {
		t.Fatalf("expected 2 uploads across two bursts, got %d", got)
	}
}

func TestSignedOutMutationsSkipUpload(t *testing.T) {
	h := newHarness(t, 10*time.Millisecond)
	h.engine.Start(context.Background())

	h.model.Add("Ana", 10)
	time.Sleep(80 * time.Millisecond)

	if h.remote.Upserts() != 0 {
		t.Errorf("signed-out session uploaded %d times", h.remote.Upserts())
	}
	// Local persistence still happened.
	if raw, ok, _ := h.local.Get(context.Background(), storage.KeyStudents); !ok || raw == "" {
		t.Error("local persist missing in signed-out mode")
	}
}

func TestUploadFailureDoesNotRollBack(t *testing.T) {
	h := newHarness(t, 10*time.Millisecond)
	ctx := context.Background()
	h.ident.userID = "user-1"
	h.engine.Start(ctx)

	h.remote.FailNext = errors.New("quota exceeded")
	h.model.Add("Ana", 10)
	time.Sleep(80 * time.Millisecond)

	if h.remote.Upserts() != 0 {
		t.Fatal("failed upload should not have been stored")
	}
	if len(h.model.Students()) != 1 {
		t.Error("upload failure rolled back local state")
	}
	if h.engine.LastSynced() != 0 {
		t.Error("timestamp advanced despite failed upload")
	}

	// The next change is the retry path.
	h.model.Edit("Ana", 20)
	time.Sleep(80 * time.Millisecond)
	if h.remote.Upserts() != 1 {
		t.Errorf("retry upload missing, got %d", h.remote.Upserts())
	}
	if h.engine.LastSynced() == 0 {
		t.Error("timestamp not recorded after successful retry")
	}
}

func TestCloseCancelsPendingUpload(t *testing.T) {
	h := newHarness(t, 50*time.Millisecond)
	h.ident.userID = "user-1"
	h.engine.Start(context.Background())

	h.model.Add("Ana", 10)
	h.engine.Close()
	time.Sleep(150 * time.Millisecond)

	if h.remote.Upserts() != 0 {
		t.Errorf("upload fired after Close: %d", h.remote.Upserts())
	}
}

func TestFlushUploadsImmediately(t *testing.T) {
	h := newHarness(t, time.Hour)
	ctx := context.Background()
	h.ident.userID = "user-1"
	h.engine.Start(ctx)

	h.model.Add("Ana", 10)
	h.engine.Flush(ctx)

	if h.remote.Upserts() != 1 {
		t.Fatalf("expected immediate upload, got %d", h.remote.Upserts())
	}
}
