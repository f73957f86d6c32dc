// Package syncer reconciles the device-local roster with the per-user
// remote snapshot document so the more recent side wins, and keeps the
// remote side current with minimal, debounced uploads.
//
// The engine never surfaces sync failures to the roster or its callers:
// local data is always the fallback, and the next debounce cycle or the
// next session's reconciliation is the retry path. Conflict resolution
// is whole-snapshot last-write-wins by timestamp; there is no
// field-level merge.
package syncer

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/jortega/cuaderno/internal/identity"
	"github.com/jortega/cuaderno/internal/models"
	"github.com/jortega/cuaderno/internal/remote"
	"github.com/jortega/cuaderno/internal/roster"
	"github.com/jortega/cuaderno/internal/storage"
)

// DefaultWindow is the debounce quiet window for remote uploads.
const DefaultWindow = 1000 * time.Millisecond

// Options configures an Engine.
type Options struct {
	Local    storage.Local
	Remote   remote.Store
	Identity identity.Provider
	Roster   *roster.Model
	Logger   *slog.Logger

	// Window overrides the debounce quiet window; zero means DefaultWindow.
	Window time.Duration

	// Now overrides the clock, for tests. Defaults to time.Now.
	Now func() time.Time

	// Metrics may be nil; counters are then created unregistered.
	Metrics *Metrics
}

// Engine orchestrates reconciliation between the local store and the
// remote document. It is explicitly constructed per session; Close
// unsubscribes from identity changes and cancels the pending upload.
type Engine struct {
	local   storage.Local
	remote  remote.Store
	ident   identity.Provider
	roster  *roster.Model
	log     *slog.Logger
	now     func() time.Time
	metrics *Metrics

	deb   *debouncer
	unsub func()

	mu          sync.Mutex
	lastSynced  int64 // mirrors the lastSynced key, epoch ms
	initialDone bool  // one reconciliation per authenticated session
	loaded      bool
}

// Ensure Engine satisfies the roster's notification hook
var _ roster.Notifier = (*Engine)(nil)

// New wires an engine to its collaborators and subscribes to identity
// changes. Call Start to load local data and run the initial
// reconciliation; call Close at session end.
func New(opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics(nil)
	}

	e := &Engine{
		local:   opts.Local,
		remote:  opts.Remote,
		ident:   opts.Identity,
		roster:  opts.Roster,
		log:     opts.Logger,
		now:     opts.Now,
		metrics: opts.Metrics,
	}
	e.deb = newDebouncer(opts.Window, e.uploadNow)
	e.roster.SetNotifier(e)
	e.unsub = e.ident.OnChange(e.onAuthChange)
	return e
}

// Start loads local data into the roster and, when a user is already
// signed in, runs the initial reconciliation. Errors never propagate;
// the session continues on local data.
func (e *Engine) Start(ctx context.Context) {
	e.roster.Load(ctx)

	e.mu.Lock()
	e.loaded = true
	e.lastSynced = e.readLocalTimestamp(ctx)
	e.mu.Unlock()

	if user := e.ident.CurrentUser(); user != "" {
		e.reconcile(ctx, user)
	}
}

// Close unsubscribes from identity changes and cancels any pending
// debounced upload. An upload already in flight is not interrupted.
func (e *Engine) Close() {
	e.unsub()
	e.deb.Stop()
}

// ScheduleUpload is the roster's change hook: the local persist already
// happened, so only the debounced remote write remains.
func (e *Engine) ScheduleUpload() {
	e.mu.Lock()
	loaded := e.loaded
	e.mu.Unlock()
	if !loaded {
		// Changes applied while restoring state need no upload.
		return
	}
	if e.deb.Trigger() {
		e.metrics.Coalesced.Inc()
	}
}

// Flush cancels the pending debounce and uploads synchronously. Used
// by one-shot callers (CLI) that cannot wait for the quiet window.
func (e *Engine) Flush(ctx context.Context) {
	e.deb.Flush()
	e.upload(ctx)
}

// LastSynced returns the engine's view of the last-sync timestamp.
func (e *Engine) LastSynced() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastSynced
}

// onAuthChange handles sign-in/sign-out transitions. A sign-in after
// load runs the one-time reconciliation if it has not happened yet; a
// sign-out re-arms it for the next session.
func (e *Engine) onAuthChange(userID string) {
	if userID == "" {
		e.mu.Lock()
		e.initialDone = false
		e.mu.Unlock()
		return
	}

	e.mu.Lock()
	ready := e.loaded && !e.initialDone
	e.mu.Unlock()
	if ready {
		e.reconcile(context.Background(), userID)
	}
}

// reconcile applies the merge-by-recency decision table once per
// authenticated session. Any failure falls back to local data.
func (e *Engine) reconcile(ctx context.Context, userID string) {
	e.mu.Lock()
	if e.initialDone {
		e.mu.Unlock()
		return
	}
	e.initialDone = true
	e.mu.Unlock()

	// Local timestamp and remote document have no ordering dependency;
	// load them concurrently and join before merging.
	type fetchResult struct {
		snap *models.Snapshot
		err  error
	}
	remoteCh := make(chan fetchResult, 1)
	go func() {
		snap, err := e.remote.Fetch(ctx, userID)
		remoteCh <- fetchResult{snap, err}
	}()

	localTS := e.readLocalTimestamp(ctx)
	localStudents := e.roster.Students()

	res := <-remoteCh
	if res.err != nil {
		e.log.Warn("remote fetch failed, continuing with local data",
			"user_id", userID, "error", res.err)
		e.metrics.Reconciliations.WithLabelValues("error").Inc()
		return
	}

	switch {
	case res.snap == nil && len(localStudents) == 0 && localTS == 0:
		// Nothing anywhere; no network write.
		e.log.Debug("reconcile: both sides empty", "user_id", userID)
		e.metrics.Reconciliations.WithLabelValues("noop").Inc()

	case res.snap == nil:
		// Local data, no remote document: local is authoritative.
		e.log.Info("reconcile: no remote document, uploading local state",
			"user_id", userID, "students", len(localStudents))
		e.metrics.Reconciliations.WithLabelValues("local_wins").Inc()
		e.upload(ctx)

	case len(localStudents) == 0 && localTS == 0:
		// Fresh install: remote is authoritative.
		e.adoptRemote(ctx, res.snap, userID)

	case res.snap.LastUpdated > localTS:
		e.adoptRemote(ctx, res.snap, userID)

	case localTS > res.snap.LastUpdated:
		e.log.Info("reconcile: local state is newer, uploading",
			"user_id", userID, "local_ts", localTS, "remote_ts", res.snap.LastUpdated)
		e.metrics.Reconciliations.WithLabelValues("local_wins").Inc()
		e.upload(ctx)

	default:
		// Timestamps equal; both sides already converged.
		e.log.Debug("reconcile: already in sync", "user_id", userID, "ts", localTS)
		e.metrics.Reconciliations.WithLabelValues("noop").Inc()
	}
}

// adoptRemote overwrites local state with the remote snapshot and
// records its timestamp.
func (e *Engine) adoptRemote(ctx context.Context, snap *models.Snapshot, userID string) {
	e.log.Info("reconcile: remote snapshot wins",
		"user_id", userID, "remote_ts", snap.LastUpdated, "students", len(snap.Students))
	e.roster.Restore(snap)
	e.writeLocalTimestamp(ctx, snap.LastUpdated)
	e.metrics.Reconciliations.WithLabelValues("remote_wins").Inc()
}

// uploadNow is the debounce callback.
func (e *Engine) uploadNow() {
	e.upload(context.Background())
}

// upload stamps the latest snapshot and writes it to the remote store.
// Skipped silently when signed out; failures are logged and dropped,
// since local persistence already captured the state.
func (e *Engine) upload(ctx context.Context) {
	userID := e.ident.CurrentUser()
	if userID == "" {
		return
	}

	snap := e.roster.Snapshot()
	snap.LastUpdated = e.now().UnixMilli()

	e.metrics.Uploads.Inc()
	if err := e.remote.Upsert(ctx, userID, snap); err != nil {
		e.metrics.UploadFailures.Inc()
		e.log.Warn("snapshot upload failed, will retry on next change",
			"user_id", userID, "error", err)
		return
	}
	e.writeLocalTimestamp(ctx, snap.LastUpdated)
	e.log.Debug("snapshot uploaded",
		"user_id", userID, "ts", snap.LastUpdated, "students", len(snap.Students))
}

func (e *Engine) readLocalTimestamp(ctx context.Context) int64 {
	raw, ok, err := e.local.Get(ctx, storage.KeyLastSynced)
	if err != nil {
		e.log.Warn("failed to read sync timestamp", "error", err)
		return 0
	}
	if !ok {
		return 0
	}
	ts, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		e.log.Warn("stored sync timestamp is malformed", "value", raw)
		return 0
	}
	return ts
}

func (e *Engine) writeLocalTimestamp(ctx context.Context, ts int64) {
	if err := e.local.Set(ctx, storage.KeyLastSynced, strconv.FormatInt(ts, 10)); err != nil {
		e.log.Warn("failed to persist sync timestamp", "error", err)
	}
	e.mu.Lock()
	e.lastSynced = ts
	e.mu.Unlock()
}
