// Package roster holds the authoritative in-memory roster and payee
// configuration for a running session, with validated mutations.
// Every successful mutation persists to the local store immediately
// and notifies the sync engine; persistence failures are logged and
// dropped, keeping memory the source of truth for the session.
package roster

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"

	"github.com/jortega/cuaderno/internal/calculator"
	"github.com/jortega/cuaderno/internal/models"
	"github.com/jortega/cuaderno/internal/storage"
)

// Validation errors returned to the presentation layer. These are the
// only user-visible failures; everything else degrades silently.
var (
	ErrBlankName     = errors.New("student name cannot be empty")
	ErrDuplicate     = errors.New("student is already on the roster")
	ErrBadAmount     = errors.New("amount must be a non-negative number")
	ErrBadMode       = errors.New("unknown attendance mode")
	ErrBadDays       = errors.New("days must be between 1 and 30")
	ErrTooManyPayees = errors.New("too many payees")
)

// Notifier is how the model tells the sync engine that state changed.
// The engine registers itself after construction.
type Notifier interface {
	ScheduleUpload()
}

// Model owns the roster and config for the lifetime of the session.
// All operations are atomic with respect to each other.
type Model struct {
	mu       sync.Mutex
	students []models.Student
	config   models.Config
	local    storage.Local
	notifier Notifier
	log      *slog.Logger
}

// New creates an empty model backed by the given local store.
func New(local storage.Local, logger *slog.Logger) *Model {
	if logger == nil {
		logger = slog.Default()
	}
	return &Model{
		config: models.DefaultConfig(),
		local:  local,
		log:    logger,
	}
}

// SetNotifier registers the sync engine. Passing nil disables
// notifications (local-only mode).
func (m *Model) SetNotifier(n Notifier) {
	m.mu.Lock()
	m.notifier = n
	m.mu.Unlock()
}

// Load reads the persisted roster and config. Read failures and
// malformed data are logged and treated as "no data".
func (m *Model) Load(ctx context.Context) {
	students := m.loadStudents(ctx)
	config := m.loadConfig(ctx)

	m.mu.Lock()
	m.students = students
	m.config = config
	m.mu.Unlock()
}

func (m *Model) loadStudents(ctx context.Context) []models.Student {
	raw, ok, err := m.local.Get(ctx, storage.KeyStudents)
	if err != nil {
		m.log.Warn("failed to load roster, starting empty", "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	var students []models.Student
	if err := json.Unmarshal([]byte(raw), &students); err != nil {
		m.log.Warn("stored roster is malformed, starting empty", "error", err)
		return nil
	}
	return students
}

func (m *Model) loadConfig(ctx context.Context) models.Config {
	raw, ok, err := m.local.Get(ctx, storage.KeyConfig)
	if err != nil {
		m.log.Warn("failed to load config, using defaults", "error", err)
		return models.DefaultConfig()
	}
	if !ok {
		return models.DefaultConfig()
	}
	cfg, err := models.DecodeConfig([]byte(raw))
	if err != nil {
		m.log.Warn("stored config is malformed, using defaults", "error", err)
		return models.DefaultConfig()
	}
	return cfg
}

// Add appends a new student with the full attendance mode, active.
// The name is trimmed; blank or duplicate names are rejected with no
// mutation.
func (m *Model) Add(name string, amount float64) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrBlankName
	}
	if amount < 0 || math.IsNaN(amount) {
		return ErrBadAmount
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.students {
		if s.Name == name {
			return ErrDuplicate
		}
	}
	m.students = append(m.students, models.Student{
		Name:       name,
		Amount:     amount,
		Active:     true,
		Attendance: models.AttendanceFull,
	})
	m.persistStudents()
	return nil
}

// Edit replaces the amount of the matching student. An unknown name is
// a no-op, matching how the roster list treats stale edits.
func (m *Model) Edit(name string, amount float64) error {
	if amount < 0 || math.IsNaN(amount) {
		return ErrBadAmount
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.students {
		if m.students[i].Name == name {
			m.students[i].Amount = amount
			m.persistStudents()
			return nil
		}
	}
	return nil
}

// ToggleActive flips the active flag; unknown names are a no-op.
func (m *Model) ToggleActive(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.students {
		if m.students[i].Name == name {
			m.students[i].Active = !m.students[i].Active
			m.persistStudents()
			return
		}
	}
}

// SetAttendance sets the attendance mode. For the days mode the day
// count must already be in range; out-of-range values are rejected,
// never clamped.
func (m *Model) SetAttendance(name string, mode models.AttendanceMode, days int) error {
	if !models.ValidMode(mode) {
		return ErrBadMode
	}
	if mode == models.AttendanceDays && (days < models.MinDays || days > models.MaxDays) {
		return ErrBadDays
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.students {
		if m.students[i].Name == name {
			m.students[i].Attendance = mode
			if mode == models.AttendanceDays {
				m.students[i].Days = days
			} else {
				m.students[i].Days = 0
			}
			m.persistStudents()
			return nil
		}
	}
	return nil
}

// Remove deletes the matching student, if present.
func (m *Model) Remove(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.students {
		if m.students[i].Name == name {
			m.students = append(m.students[:i], m.students[i+1:]...)
			m.persistStudents()
			return
		}
	}
}

// ClearAll empties the roster and resets its persisted storage.
func (m *Model) ClearAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.students = nil
	if err := m.local.Delete(context.Background(), storage.KeyStudents); err != nil {
		m.log.Warn("failed to clear stored roster", "error", err)
	}
	m.notify()
}

// ConfigUpdate is a partial configuration change; nil fields are left
// untouched.
type ConfigUpdate struct {
	UseManualShares *bool
	Preset          *int
}

// UpdateConfig merges the partial update. Enabling manual shares
// validates that the current payee shares sum to 100.
func (m *Model) UpdateConfig(update ConfigUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.config
	if update.UseManualShares != nil {
		next.UseManualShares = *update.UseManualShares
	}
	if update.Preset != nil {
		next.Preset = *update.Preset
	}
	if next.UseManualShares {
		if err := calculator.ValidateShares(next.Payees); err != nil {
			return err
		}
	}
	m.config = next
	m.persistConfig()
	return nil
}

// SetPayees replaces the payee list. Blank names are defaulted; in
// manual mode the share-sum invariant is enforced before persisting.
func (m *Model) SetPayees(payees []models.Payee) error {
	if len(payees) == 0 || len(payees) > models.MaxPayees {
		return fmt.Errorf("%w: want 1-%d, got %d", ErrTooManyPayees, models.MaxPayees, len(payees))
	}

	next := make([]models.Payee, len(payees))
	copy(next, payees)
	for i := range next {
		if strings.TrimSpace(next[i].Name) == "" {
			next[i].Name = fmt.Sprintf("Profesor %d", i+1)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.config.UseManualShares {
		if err := calculator.ValidateShares(next); err != nil {
			return err
		}
	}
	m.config.Payees = next
	m.persistConfig()
	return nil
}

// Students returns a copy of the roster.
func (m *Model) Students() []models.Student {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Student, len(m.students))
	copy(out, m.students)
	return out
}

// Config returns a copy of the configuration.
func (m *Model) Config() models.Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg := m.config
	cfg.Payees = make([]models.Payee, len(m.config.Payees))
	copy(cfg.Payees, m.config.Payees)
	return cfg
}

// Totals derives the monthly total and per-payee amounts from the
// current state. Computed fresh on every call.
func (m *Model) Totals() calculator.Totals {
	m.mu.Lock()
	students := m.students
	cfg := m.config
	m.mu.Unlock()
	return calculator.Compute(students, cfg)
}

// Snapshot produces the atomic sync unit from current state. The sync
// engine stamps LastUpdated at upload time.
func (m *Model) Snapshot() *models.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := &models.Snapshot{
		Students: m.students,
		Config:   m.config,
	}
	return snap.Clone()
}

// Restore replaces in-memory state with a reconciled snapshot and
// persists it locally, without notifying the sync engine (the data
// just came from the other side).
func (m *Model) Restore(snap *models.Snapshot) {
	clone := snap.Clone()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.students = clone.Students
	m.config = clone.Config
	m.writeStudents()
	m.writeConfig()
}

// persistStudents writes the roster and schedules an upload.
// Callers must hold the lock.
func (m *Model) persistStudents() {
	m.writeStudents()
	m.notify()
}

func (m *Model) persistConfig() {
	m.writeConfig()
	m.notify()
}

func (m *Model) writeStudents() {
	data, err := json.Marshal(m.students)
	if err != nil {
		m.log.Warn("failed to encode roster", "error", err)
		return
	}
	if err := m.local.Set(context.Background(), storage.KeyStudents, string(data)); err != nil {
		m.log.Warn("failed to persist roster", "error", err)
	}
}

func (m *Model) writeConfig() {
	data, err := json.Marshal(m.config)
	if err != nil {
		m.log.Warn("failed to encode config", "error", err)
		return
	}
	if err := m.local.Set(context.Background(), storage.KeyConfig, string(data)); err != nil {
		m.log.Warn("failed to persist config", "error", err)
	}
}

func (m *Model) notify() {
	if m.notifier != nil {
		m.notifier.ScheduleUpload()
	}
}
