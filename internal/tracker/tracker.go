// Package tracker owns the sleep session repository: the completed sessions,
// the single in-progress session, and their persistence to a blob store.
//
// The in-memory state is authoritative. Every mutation hands a full snapshot
// to a background writer and returns without waiting for it; the stored copy
// is eventually consistent with memory. Call Flush or Close before exiting.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Tiliavir/trivial-sleep-tracker/internal/model"
	"github.com/Tiliavir/trivial-sleep-tracker/internal/stats"
	"github.com/Tiliavir/trivial-sleep-tracker/internal/storage"
	"github.com/Tiliavir/trivial-sleep-tracker/internal/timecalc"
)

// DefaultKey is the store key holding the serialized state.
const DefaultKey = "sleep-store"

// ErrAlreadyTracking is returned by StartSleep under PolicyReject.
var ErrAlreadyTracking = errors.New("a sleep session is already being tracked")

// StartPolicy decides what StartSleep does while a session is active.
type StartPolicy string

const (
	// PolicyReject leaves the active session untouched and returns ErrAlreadyTracking.
	PolicyReject StartPolicy = "reject"
	// PolicyOverwrite discards the active session.
	PolicyOverwrite StartPolicy = "overwrite"
	// PolicyComplete ends the active session before starting the new one.
	PolicyComplete StartPolicy = "complete"
)

// ParseStartPolicy validates a policy name.
func ParseStartPolicy(s string) (StartPolicy, error) {
	switch p := StartPolicy(s); p {
	case PolicyReject, PolicyOverwrite, PolicyComplete:
		return p, nil
	case "":
		return PolicyReject, nil
	default:
		return "", fmt.Errorf("unknown start policy %q", s)
	}
}

// Options configures a Repository. Zero values select the defaults.
type Options struct {
	Key         string
	Location    *time.Location
	Now         func() time.Time
	Logger      *slog.Logger
	StartPolicy StartPolicy
}

func (o Options) withDefaults() Options {
	if o.Key == "" {
		o.Key = DefaultKey
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.StartPolicy == "" {
		o.StartPolicy = PolicyReject
	}
	return o
}

// Repository holds the session collection and the active session.
// It is safe for concurrent use.
type Repository struct {
	opts    Options
	store   storage.Store
	persist *persister

	mu    sync.Mutex
	state model.State
}

// Open loads the state stored under opts.Key. A missing, unreadable or
// undecodable blob yields an empty repository; the last case keeps a copy of
// the raw blob under "<key>.corrupt".
func Open(ctx context.Context, store storage.Store, opts Options) *Repository {
	opts = opts.withDefaults()
	r := &Repository{
		opts:  opts,
		store: store,
		state: model.State{Sessions: []model.SleepSession{}},
	}
	r.load(ctx)
	r.persist = newPersister(store, opts.Key, opts.Logger)
	return r
}

func (r *Repository) load(ctx context.Context) {
	log := r.opts.Logger.With("key", r.opts.Key)

	data, err := r.store.Get(ctx, r.opts.Key)
	if errors.Is(err, storage.ErrNotFound) {
		log.Debug("no stored sleep state, starting empty")
		return
	}
	if err != nil {
		log.Warn("reading sleep state failed, starting empty", "error", err)
		return
	}

	st, err := Decode(data)
	if err != nil {
		backup := r.opts.Key + ".corrupt"
		if berr := r.store.Set(ctx, backup, data); berr != nil {
			log.Error("backing up corrupt sleep state failed", "error", berr)
		}
		log.Warn("corrupt sleep state, starting empty", "error", err, "backup", backup)
		return
	}
	r.state = st
	log.Debug("sleep state loaded", "sessions", len(st.Sessions), "tracking", st.Tracking)
}

// Errors delivers persistence failures. Failures are dropped when the
// channel is not drained.
func (r *Repository) Errors() <-chan error {
	return r.persist.errs
}

// Flush waits until all mutations made before the call have been written and
// returns the error of the latest write.
func (r *Repository) Flush(ctx context.Context) error {
	return r.persist.flush(ctx)
}

// Close flushes pending writes and stops the background writer. The store
// itself is left open.
func (r *Repository) Close(ctx context.Context) error {
	return r.persist.close(ctx)
}

// save snapshots the state for the writer. Callers hold r.mu.
func (r *Repository) save() {
	data, err := Encode(r.state)
	if err != nil {
		r.opts.Logger.Error("encoding sleep state failed", "error", err)
		return
	}
	r.persist.enqueue(data)
}

func (r *Repository) now() time.Time {
	return r.opts.Now().In(r.opts.Location)
}

func newID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

func truncateNotes(notes string) string {
	runes := []rune(notes)
	if len(runes) <= model.MaxNotesLength {
		return notes
	}
	return string(runes[:model.MaxNotesLength])
}

// StartSleep begins tracking a new session starting now.
func (r *Repository) StartSleep(notes string) (model.SleepSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state.Active != nil {
		switch r.opts.StartPolicy {
		case PolicyOverwrite:
			r.opts.Logger.Info("discarding active sleep session", "id", r.state.Active.ID)
		case PolicyComplete:
			done := r.endLocked()
			r.opts.Logger.Info("completed active sleep session before starting", "id", done.ID)
		default:
			return r.state.Active.Clone(), ErrAlreadyTracking
		}
	}

	now := r.now()
	s := model.SleepSession{
		ID:        newID(),
		StartTime: now,
		Notes:     truncateNotes(notes),
		Date:      timecalc.DateString(now),
	}
	r.state.Active = &s
	r.state.Tracking = true
	r.save()
	return s.Clone(), nil
}

// EndSleep completes the active session. It reports false when nothing is
// being tracked.
func (r *Repository) EndSleep() (model.SleepSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state.Active == nil {
		return model.SleepSession{}, false
	}
	done := r.endLocked()
	r.save()
	return done, true
}

func (r *Repository) endLocked() model.SleepSession {
	s := r.state.Active.Clone()
	end := r.now()
	dur := timecalc.CalculateDuration(s.StartTime, end)
	s.EndTime = &end
	s.Duration = &dur

	r.state.Sessions = append([]model.SleepSession{s}, r.state.Sessions...)
	r.state.Active = nil
	r.state.Tracking = false
	return s.Clone()
}

// AddSession prepends a fully formed session. Only the notes are bounded.
func (r *Repository) AddSession(s model.SleepSession) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s = s.Clone()
	s.Notes = truncateNotes(s.Notes)
	r.state.Sessions = append([]model.SleepSession{s}, r.state.Sessions...)
	r.save()
}

// NewSession builds a completed session for manual entry, deriving its id,
// duration and date.
func (r *Repository) NewSession(start, end time.Time, notes string) model.SleepSession {
	start = start.In(r.opts.Location)
	end = end.In(r.opts.Location)
	dur := timecalc.CalculateDuration(start, end)
	return model.SleepSession{
		ID:        newID(),
		StartTime: start,
		EndTime:   &end,
		Duration:  &dur,
		Notes:     truncateNotes(notes),
		Date:      timecalc.DateString(start),
	}
}

// UpdateSession applies upd to the completed session id. It reports false,
// changing nothing, when no such session exists.
//
// A changed start or end recomputes the duration from the effective pair; if
// the session has no end the previous duration is kept. A changed start also
// moves the session to the start's calendar date unless upd.Date is set.
func (r *Repository) UpdateSession(id string, upd model.SessionUpdate) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexLocked(id)
	if i < 0 {
		return false
	}
	s := r.state.Sessions[i].Clone()

	if upd.StartTime != nil {
		s.StartTime = upd.StartTime.In(r.opts.Location)
		s.Date = timecalc.DateString(s.StartTime)
	}
	if upd.EndTime != nil {
		end := upd.EndTime.In(r.opts.Location)
		s.EndTime = &end
	}
	if upd.Notes != nil {
		s.Notes = truncateNotes(*upd.Notes)
	}
	if upd.Date != nil {
		s.Date = *upd.Date
	}
	if upd.StartTime != nil || upd.EndTime != nil {
		if s.EndTime != nil {
			dur := timecalc.CalculateDuration(s.StartTime, *s.EndTime)
			s.Duration = &dur
		} else {
			r.opts.Logger.Debug("session has no end, keeping duration", "id", id)
		}
	}

	r.state.Sessions[i] = s
	r.save()
	return true
}

// DeleteSession removes the completed session id. It reports false when no
// such session exists.
func (r *Repository) DeleteSession(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexLocked(id)
	if i < 0 {
		return false
	}
	r.state.Sessions = append(r.state.Sessions[:i:i], r.state.Sessions[i+1:]...)
	r.save()
	return true
}

func (r *Repository) indexLocked(id string) int {
	for i, s := range r.state.Sessions {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// Sessions returns the completed sessions, newest first.
func (r *Repository) Sessions() []model.SleepSession {
	return r.Snapshot().Sessions
}

// Session returns the completed session id.
func (r *Repository) Session(id string) (model.SleepSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexLocked(id)
	if i < 0 {
		return model.SleepSession{}, false
	}
	return r.state.Sessions[i].Clone(), true
}

// Active returns the in-progress session, if any.
func (r *Repository) Active() (model.SleepSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state.Active == nil {
		return model.SleepSession{}, false
	}
	return r.state.Active.Clone(), true
}

// Tracking reports whether a session is in progress.
func (r *Repository) Tracking() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Tracking
}

// Snapshot returns a deep copy of the whole state.
func (r *Repository) Snapshot() model.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Clone()
}

// Window returns the last n calendar dates ending today.
func (r *Repository) Window(n int) []string {
	return timecalc.WindowDates(r.now(), n)
}

func (r *Repository) WeeklyStats() model.SleepStats {
	return stats.StatsFor(r.Sessions(), r.Window(7))
}

func (r *Repository) MonthlyStats() model.SleepStats {
	return stats.StatsFor(r.Sessions(), r.Window(30))
}

func (r *Repository) WeeklySeries() []model.DayTotal {
	return stats.DailySeries(r.Sessions(), r.Window(7))
}

func (r *Repository) MonthlySeries() []model.DayTotal {
	return stats.DailySeries(r.Sessions(), r.Window(30))
}

// Overall returns all-time totals over the completed sessions.
func (r *Repository) Overall() model.Summary {
	return stats.Overall(r.Sessions())
}
