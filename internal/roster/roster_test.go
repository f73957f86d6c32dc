package roster

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/jortega/cuaderno/internal/models"
	"github.com/jortega/cuaderno/internal/storage"
)

type countingNotifier struct {
	calls int
}

func (n *countingNotifier) ScheduleUpload() { n.calls++ }

func newTestModel() (*Model, *storage.Memory, *countingNotifier) {
	local := storage.NewMemory()
	m := New(local, nil)
	n := &countingNotifier{}
	m.SetNotifier(n)
	return m, local, n
}

func TestAdd(t *testing.T) {
	tests := []struct {
		name    string
		student string
		amount  float64
		wantErr error
	}{
		{name: "valid", student: "Ana", amount: 90},
		{name: "name is trimmed", student: "  Luis  ", amount: 50},
		{name: "blank rejected", student: "   ", amount: 10, wantErr: ErrBlankName},
		{name: "negative amount rejected", student: "Eva", amount: -1, wantErr: ErrBadAmount},
		{name: "nan amount rejected", student: "Eva", amount: math.NaN(), wantErr: ErrBadAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, _ := newTestModel()
			err := m.Add(tt.student, tt.amount)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Add() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil && len(m.Students()) != 0 {
				t.Error("rejected add must not mutate the roster")
			}
		})
	}
}

func TestAddDuplicate(t *testing.T) {
	m, _, _ := newTestModel()

	if err := m.Add("Ana", 90); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	if err := m.Add("Ana", 50); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("second add error = %v, want ErrDuplicate", err)
	}

	students := m.Students()
	if len(students) != 1 {
		t.Fatalf("roster has %d entries, want 1", len(students))
	}
	if students[0].Amount != 90 {
		t.Error("duplicate add altered the original entry")
	}

	// Names are case-sensitive: "ana" is a different student.
	if err := m.Add("ana", 10); err != nil {
		t.Errorf("differently-cased name rejected: %v", err)
	}
}

func TestAddDefaults(t *testing.T) {
	m, _, _ := newTestModel()
	m.Add("Ana", 90)

	s := m.Students()[0]
	if !s.Active {
		t.Error("new student should be active")
	}
	if s.Attendance != models.AttendanceFull {
		t.Errorf("attendance = %q, want full", s.Attendance)
	}
}

func TestEdit(t *testing.T) {
	m, _, _ := newTestModel()
	m.Add("Ana", 90)
	m.Add("Luis", 50)

	if err := m.Edit("Ana", 120); err != nil {
		t.Fatalf("Edit failed: %v", err)
	}
	students := m.Students()
	if students[0].Amount != 120 {
		t.Errorf("Ana amount = %v, want 120", students[0].Amount)
	}
	if students[1].Amount != 50 {
		t.Error("Edit touched the wrong student")
	}

	if err := m.Edit("Ana", -5); !errors.Is(err, ErrBadAmount) {
		t.Errorf("negative amount error = %v, want ErrBadAmount", err)
	}
	if m.Students()[0].Amount != 120 {
		t.Error("rejected edit mutated state")
	}

	// Unknown name is a no-op, not an error.
	if err := m.Edit("Nadie", 10); err != nil {
		t.Errorf("edit of unknown student errored: %v", err)
	}
}

func TestToggleActive(t *testing.T) {
	m, _, _ := newTestModel()
	m.Add("Ana", 90)

	m.ToggleActive("Ana")
	if m.Students()[0].Active {
		t.Error("expected inactive after toggle")
	}
	m.ToggleActive("Ana")
	if !m.Students()[0].Active {
		t.Error("expected active after second toggle")
	}
	m.ToggleActive("Nadie") // no-op
}

func TestSetAttendance(t *testing.T) {
	m, _, _ := newTestModel()
	m.Add("Ana", 90)

	if err := m.SetAttendance("Ana", models.AttendanceDays, 10); err != nil {
		t.Fatalf("SetAttendance failed: %v", err)
	}
	s := m.Students()[0]
	if s.Attendance != models.AttendanceDays || s.Days != 10 {
		t.Errorf("attendance = %q/%d, want days/10", s.Attendance, s.Days)
	}

	if err := m.SetAttendance("Ana", models.AttendanceDays, 0); !errors.Is(err, ErrBadDays) {
		t.Errorf("days=0 error = %v, want ErrBadDays", err)
	}
	if err := m.SetAttendance("Ana", models.AttendanceDays, 31); !errors.Is(err, ErrBadDays) {
		t.Errorf("days=31 error = %v, want ErrBadDays", err)
	}
	if err := m.SetAttendance("Ana", "weekly", 0); !errors.Is(err, ErrBadMode) {
		t.Errorf("bad mode error = %v, want ErrBadMode", err)
	}

	// Switching back to half clears the day count.
	if err := m.SetAttendance("Ana", models.AttendanceHalf, 0); err != nil {
		t.Fatalf("SetAttendance failed: %v", err)
	}
	s = m.Students()[0]
	if s.Attendance != models.AttendanceHalf || s.Days != 0 {
		t.Errorf("attendance = %q/%d, want half/0", s.Attendance, s.Days)
	}
}

func TestRemoveAndClearAll(t *testing.T) {
	m, local, _ := newTestModel()
	m.Add("Ana", 90)
	m.Add("Luis", 50)

	m.Remove("Ana")
	students := m.Students()
	if len(students) != 1 || students[0].Name != "Luis" {
		t.Fatalf("unexpected roster after remove: %+v", students)
	}

	m.ClearAll()
	if len(m.Students()) != 0 {
		t.Error("roster not empty after ClearAll")
	}
	if _, ok, _ := local.Get(context.Background(), storage.KeyStudents); ok {
		t.Error("ClearAll should remove the stored roster key")
	}
}

func TestSetPayees(t *testing.T) {
	m, _, _ := newTestModel()

	manual := true
	if err := m.SetPayees([]models.Payee{{Name: "A", Share: 40}, {Name: "B", Share: 35}, {Name: "C", Share: 25}}); err != nil {
		t.Fatalf("SetPayees failed: %v", err)
	}
	if err := m.UpdateConfig(ConfigUpdate{UseManualShares: &manual}); err != nil {
		t.Fatalf("enabling manual shares failed: %v", err)
	}

	// Sum of 99 must now be rejected.
	err := m.SetPayees([]models.Payee{{Name: "A", Share: 40}, {Name: "B", Share: 40}, {Name: "C", Share: 19}})
	if err == nil {
		t.Fatal("expected share-sum violation to be rejected")
	}
	if len(m.Config().Payees) != 3 || m.Config().Payees[0].Share != 40 {
		t.Error("rejected SetPayees mutated config")
	}

	// Too many payees.
	six := make([]models.Payee, 6)
	for i := range six {
		six[i] = models.Payee{Share: 100.0 / 6}
	}
	if err := m.SetPayees(six); !errors.Is(err, ErrTooManyPayees) {
		t.Errorf("six payees error = %v, want ErrTooManyPayees", err)
	}

	// Blank names are defaulted.
	off := false
	m.UpdateConfig(ConfigUpdate{UseManualShares: &off})
	if err := m.SetPayees([]models.Payee{{Share: 50}, {Name: "Lola", Share: 50}}); err != nil {
		t.Fatalf("SetPayees failed: %v", err)
	}
	cfg := m.Config()
	if cfg.Payees[0].Name != "Profesor 1" {
		t.Errorf("blank name defaulted to %q", cfg.Payees[0].Name)
	}
}

func TestUpdateConfigManualRequiresValidSum(t *testing.T) {
	m, _, _ := newTestModel()
	m.SetPayees([]models.Payee{{Name: "A", Share: 60}, {Name: "B", Share: 30}}) // sums to 90

	manual := true
	if err := m.UpdateConfig(ConfigUpdate{UseManualShares: &manual}); err == nil {
		t.Fatal("enabling manual mode with bad shares should fail")
	}
	if m.Config().UseManualShares {
		t.Error("rejected update flipped the manual flag")
	}
}

func TestTotalsRecomputed(t *testing.T) {
	m, _, _ := newTestModel()
	m.Add("Ana", 90)

	if got := m.Totals().Total; got != 90 {
		t.Fatalf("Total = %v, want 90", got)
	}
	m.ToggleActive("Ana")
	if got := m.Totals().Total; got != 0 {
		t.Fatalf("Total after deactivation = %v, want 0", got)
	}
	m.ToggleActive("Ana")
	m.SetAttendance("Ana", models.AttendanceHalf, 0)
	if got := m.Totals().Total; got != 45 {
		t.Fatalf("Total after half attendance = %v, want 45", got)
	}
}

func TestPersistenceAndLoad(t *testing.T) {
	local := storage.NewMemory()
	m := New(local, nil)
	m.Add("Ana", 90)
	m.SetAttendance("Ana", models.AttendanceDays, 12)

	// A fresh model over the same store sees the same state.
	m2 := New(local, nil)
	m2.Load(context.Background())
	students := m2.Students()
	if len(students) != 1 || students[0].Days != 12 {
		t.Fatalf("reloaded roster = %+v", students)
	}
}

func TestLoadLegacyConfig(t *testing.T) {
	local := storage.NewMemory()
	legacy := `{"firstPayee":"Minerva","secondPayee":"Lola","firstShare":60}`
	local.Set(context.Background(), storage.KeyConfig, legacy)

	m := New(local, nil)
	m.Load(context.Background())

	cfg := m.Config()
	if len(cfg.Payees) != 2 {
		t.Fatalf("expected 2 payees, got %+v", cfg.Payees)
	}
	if cfg.Payees[0].Name != "Minerva" || cfg.Payees[1].Name != "Lola" {
		t.Errorf("legacy names lost: %+v", cfg.Payees)
	}
	if cfg.Payees[0].Share+cfg.Payees[1].Share != 100 {
		t.Errorf("legacy shares do not sum to 100: %+v", cfg.Payees)
	}

	// The next save persists only the new shape.
	preset := 0
	if err := m.UpdateConfig(ConfigUpdate{Preset: &preset}); err != nil {
		t.Fatalf("UpdateConfig failed: %v", err)
	}
	raw, ok, _ := local.Get(context.Background(), storage.KeyConfig)
	if !ok {
		t.Fatal("config not persisted")
	}
	var stored map[string]any
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		t.Fatalf("stored config not valid JSON: %v", err)
	}
	if _, hasLegacy := stored["firstPayee"]; hasLegacy {
		t.Error("re-saved config still carries legacy fields")
	}
	if _, hasPayees := stored["payees"]; !hasPayees {
		t.Error("re-saved config missing payee list")
	}
}

func TestMutationsNotifySyncEngine(t *testing.T) {
	m, _, n := newTestModel()

	m.Add("Ana", 90)
	m.Edit("Ana", 100)
	m.ToggleActive("Ana")
	before := n.calls
	if before != 3 {
		t.Errorf("expected 3 notifications, got %d", before)
	}

	// Rejected mutations must not notify.
	m.Add("Ana", 10)
	m.Edit("Ana", -1)
	if n.calls != before {
		t.Errorf("rejected mutations notified the sync engine (%d -> %d)", before, n.calls)
	}

	// Restore must not notify either.
	m.Restore(&models.Snapshot{Config: models.DefaultConfig()})
	if n.calls != before {
		t.Error("Restore should not schedule an upload")
	}
}

func TestSnapshotIsolation(t *testing.T) {
	m, _, _ := newTestModel()
	m.Add("Ana", 90)

	snap := m.Snapshot()
	snap.Students[0].Amount = 1
	if m.Students()[0].Amount != 90 {
		t.Error("snapshot shares memory with the live roster")
	}
}
