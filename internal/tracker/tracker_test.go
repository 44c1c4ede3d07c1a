package tracker_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/trivial-sleep-tracker/internal/model"
	"github.com/Tiliavir/trivial-sleep-tracker/internal/storage"
	"github.com/Tiliavir/trivial-sleep-tracker/internal/timecalc"
	"github.com/Tiliavir/trivial-sleep-tracker/internal/tracker"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// failingStore fails every read and/or write.
type failingStore struct {
	storage.Store
	getErr error
	setErr error
}

func (s *failingStore) Get(ctx context.Context, key string) ([]byte, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.Store.Get(ctx, key)
}

func (s *failingStore) Set(ctx context.Context, key string, value []byte) error {
	if s.setErr != nil {
		return s.setErr
	}
	return s.Store.Set(ctx, key, value)
}

func newRepo(t *testing.T, store storage.Store, policy tracker.StartPolicy) (*tracker.Repository, *clock) {
	t.Helper()
	clk := &clock{t: time.Date(2024, 1, 1, 22, 0, 0, 0, time.UTC)}
	repo := tracker.Open(context.Background(), store, tracker.Options{
		Location:    time.UTC,
		Now:         clk.Now,
		StartPolicy: policy,
	})
	t.Cleanup(func() { repo.Close(context.Background()) })
	return repo, clk
}

func completed(id string, start time.Time, minutes float64, date string) model.SleepSession {
	end := start.Add(time.Duration(minutes * float64(time.Minute)))
	return model.SleepSession{ID: id, StartTime: start, EndTime: &end, Duration: &minutes, Date: date}
}

func TestOpenEmptyStore(t *testing.T) {
	repo, _ := newRepo(t, storage.NewMemoryStore(), "")

	assert.False(t, repo.Tracking())
	_, ok := repo.Active()
	assert.False(t, ok)
	assert.NotNil(t, repo.Sessions())
	assert.Empty(t, repo.Sessions())
}

func TestStartAndEndSleep(t *testing.T) {
	repo, clk := newRepo(t, storage.NewMemoryStore(), "")

	started, err := repo.StartSleep("late night")
	require.NoError(t, err)
	assert.NotEmpty(t, started.ID)
	assert.Equal(t, clk.Now(), started.StartTime)
	assert.Nil(t, started.EndTime)
	assert.Nil(t, started.Duration)
	assert.Equal(t, "2024-01-01", started.Date)
	assert.Equal(t, "late night", started.Notes)

	assert.True(t, repo.Tracking())
	active, ok := repo.Active()
	require.True(t, ok)
	assert.Equal(t, started, active)
	assert.Empty(t, repo.Sessions(), "active session must not be in the completed list")

	clk.Advance(7*time.Hour + 30*time.Minute)
	done, ok := repo.EndSleep()
	require.True(t, ok)

	assert.False(t, repo.Tracking())
	_, ok = repo.Active()
	assert.False(t, ok)

	sessions := repo.Sessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, done, sessions[0])
	assert.Equal(t, started.ID, done.ID)
	require.NotNil(t, done.EndTime)
	require.NotNil(t, done.Duration)
	assert.Equal(t, timecalc.CalculateDuration(done.StartTime, *done.EndTime), *done.Duration)
	assert.Equal(t, 450.0, *done.Duration)
	assert.Equal(t, "2024-01-01", done.Date, "date stays on the start day")
}

func TestEndSleepPrependsNewest(t *testing.T) {
	repo, clk := newRepo(t, storage.NewMemoryStore(), "")

	var ids []string
	for i := 0; i < 3; i++ {
		s, err := repo.StartSleep("")
		require.NoError(t, err)
		ids = append(ids, s.ID)
		clk.Advance(time.Hour)
		_, ok := repo.EndSleep()
		require.True(t, ok)
		clk.Advance(time.Hour)
	}

	sessions := repo.Sessions()
	require.Len(t, sessions, 3)
	assert.Equal(t, ids[2], sessions[0].ID)
	assert.Equal(t, ids[0], sessions[2].ID)
	assert.NotEqual(t, ids[0], ids[1])
}

func TestEndSleepWithoutActiveIsNoop(t *testing.T) {
	store := storage.NewMemoryStore()
	repo, _ := newRepo(t, store, "")

	_, ok := repo.EndSleep()
	assert.False(t, ok)
	assert.Empty(t, repo.Sessions())

	require.NoError(t, repo.Flush(context.Background()))
	_, err := store.Get(context.Background(), tracker.DefaultKey)
	assert.ErrorIs(t, err, storage.ErrNotFound, "a no-op must not write")
}

func TestStartSleepWhileTracking(t *testing.T) {
	t.Run("reject", func(t *testing.T) {
		repo, clk := newRepo(t, storage.NewMemoryStore(), tracker.PolicyReject)
		first, err := repo.StartSleep("first")
		require.NoError(t, err)
		clk.Advance(time.Hour)

		got, err := repo.StartSleep("second")
		assert.ErrorIs(t, err, tracker.ErrAlreadyTracking)
		assert.Equal(t, first.ID, got.ID)

		active, _ := repo.Active()
		assert.Equal(t, first.ID, active.ID)
		assert.Empty(t, repo.Sessions())
	})

	t.Run("overwrite", func(t *testing.T) {
		repo, clk := newRepo(t, storage.NewMemoryStore(), tracker.PolicyOverwrite)
		first, err := repo.StartSleep("first")
		require.NoError(t, err)
		clk.Advance(time.Hour)

		second, err := repo.StartSleep("second")
		require.NoError(t, err)
		assert.NotEqual(t, first.ID, second.ID)

		active, _ := repo.Active()
		assert.Equal(t, second.ID, active.ID)
		assert.Empty(t, repo.Sessions())
	})

	t.Run("complete", func(t *testing.T) {
		repo, clk := newRepo(t, storage.NewMemoryStore(), tracker.PolicyComplete)
		first, err := repo.StartSleep("first")
		require.NoError(t, err)
		clk.Advance(2 * time.Hour)

		second, err := repo.StartSleep("second")
		require.NoError(t, err)

		active, _ := repo.Active()
		assert.Equal(t, second.ID, active.ID)
		sessions := repo.Sessions()
		require.Len(t, sessions, 1)
		assert.Equal(t, first.ID, sessions[0].ID)
		assert.Equal(t, 120.0, *sessions[0].Duration)
	})
}

func TestParseStartPolicy(t *testing.T) {
	p, err := tracker.ParseStartPolicy("")
	require.NoError(t, err)
	assert.Equal(t, tracker.PolicyReject, p)

	p, err = tracker.ParseStartPolicy("complete")
	require.NoError(t, err)
	assert.Equal(t, tracker.PolicyComplete, p)

	_, err = tracker.ParseStartPolicy("ignore")
	assert.Error(t, err)
}

func TestNotesAreTruncated(t *testing.T) {
	repo, _ := newRepo(t, storage.NewMemoryStore(), "")
	long := strings.Repeat("z", 250)

	s, err := repo.StartSleep(long)
	require.NoError(t, err)
	assert.Len(t, s.Notes, model.MaxNotesLength)

	// Multi-byte runes count as one character.
	umlauts := strings.Repeat("ü", 201)
	manual := repo.NewSession(time.Now(), time.Now(), umlauts)
	assert.Equal(t, model.MaxNotesLength, len([]rune(manual.Notes)))
}

func TestAddSessionPrependsVerbatim(t *testing.T) {
	repo, _ := newRepo(t, storage.NewMemoryStore(), "")
	start := time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC)

	older := completed("older", start, 400, "2024-01-01")
	newer := completed("newer", start.AddDate(0, 0, 1), 420, "2024-01-02")
	repo.AddSession(older)
	repo.AddSession(newer)

	sessions := repo.Sessions()
	require.Len(t, sessions, 2)
	assert.Equal(t, newer, sessions[0])
	assert.Equal(t, older, sessions[1])
}

func TestNewSession(t *testing.T) {
	repo, _ := newRepo(t, storage.NewMemoryStore(), "")
	start := time.Date(2024, 2, 10, 23, 15, 0, 0, time.UTC)
	end := start.Add(8 * time.Hour)

	s := repo.NewSession(start, end, "manual")
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, "2024-02-10", s.Date)
	require.NotNil(t, s.Duration)
	assert.Equal(t, 480.0, *s.Duration)
	assert.Equal(t, "manual", s.Notes)
}

func TestUpdateSession(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 22, 0, 0, 0, time.UTC)
	t1 := t0.Add(8 * time.Hour)

	setup := func(t *testing.T) *tracker.Repository {
		repo, _ := newRepo(t, storage.NewMemoryStore(), "")
		repo.AddSession(completed("s1", t0, 480, "2024-01-01"))
		return repo
	}

	t.Run("end recomputes duration", func(t *testing.T) {
		repo := setup(t)
		t2 := t1.Add(45 * time.Minute)
		require.True(t, repo.UpdateSession("s1", model.SessionUpdate{EndTime: &t2}))

		s, ok := repo.Session("s1")
		require.True(t, ok)
		assert.Equal(t, timecalc.CalculateDuration(t0, t2), *s.Duration)
		assert.True(t, t2.Equal(*s.EndTime))
	})

	t.Run("notes leave duration unchanged", func(t *testing.T) {
		repo := setup(t)
		notes := "x"
		require.True(t, repo.UpdateSession("s1", model.SessionUpdate{Notes: &notes}))

		s, _ := repo.Session("s1")
		assert.Equal(t, "x", s.Notes)
		assert.Equal(t, 480.0, *s.Duration)
	})

	t.Run("start recomputes duration and date", func(t *testing.T) {
		repo := setup(t)
		newStart := time.Date(2024, 1, 2, 0, 30, 0, 0, time.UTC)
		require.True(t, repo.UpdateSession("s1", model.SessionUpdate{StartTime: &newStart}))

		s, _ := repo.Session("s1")
		assert.Equal(t, timecalc.CalculateDuration(newStart, t1), *s.Duration)
		assert.Equal(t, "2024-01-02", s.Date)
	})

	t.Run("explicit date wins", func(t *testing.T) {
		repo := setup(t)
		newStart := time.Date(2024, 1, 2, 0, 30, 0, 0, time.UTC)
		date := "2024-01-01"
		require.True(t, repo.UpdateSession("s1", model.SessionUpdate{StartTime: &newStart, Date: &date}))

		s, _ := repo.Session("s1")
		assert.Equal(t, "2024-01-01", s.Date)
	})

	t.Run("inverted range yields negative duration", func(t *testing.T) {
		repo := setup(t)
		before := t0.Add(-time.Hour)
		require.True(t, repo.UpdateSession("s1", model.SessionUpdate{EndTime: &before}))

		s, _ := repo.Session("s1")
		assert.Equal(t, -60.0, *s.Duration)
	})

	t.Run("missing end keeps duration", func(t *testing.T) {
		repo, _ := newRepo(t, storage.NewMemoryStore(), "")
		dur := 30.0
		repo.AddSession(model.SleepSession{ID: "open", StartTime: t0, Duration: &dur, Date: "2024-01-01"})

		newStart := t0.Add(time.Hour)
		require.True(t, repo.UpdateSession("open", model.SessionUpdate{StartTime: &newStart}))

		s, _ := repo.Session("open")
		require.NotNil(t, s.Duration)
		assert.Equal(t, 30.0, *s.Duration)
		assert.Nil(t, s.EndTime)
	})

	t.Run("unknown id is a no-op", func(t *testing.T) {
		repo := setup(t)
		before := repo.Sessions()
		notes := "x"
		assert.False(t, repo.UpdateSession("nope", model.SessionUpdate{Notes: &notes}))
		assert.Equal(t, before, repo.Sessions())
	})
}

func TestDeleteSession(t *testing.T) {
	repo, _ := newRepo(t, storage.NewMemoryStore(), "")
	start := time.Date(2024, 1, 1, 22, 0, 0, 0, time.UTC)
	repo.AddSession(completed("a", start, 400, "2024-01-01"))
	repo.AddSession(completed("b", start.AddDate(0, 0, 1), 410, "2024-01-02"))
	repo.AddSession(completed("c", start.AddDate(0, 0, 2), 420, "2024-01-03"))

	before := repo.Sessions()
	assert.False(t, repo.DeleteSession("missing"))
	assert.Equal(t, before, repo.Sessions())

	assert.True(t, repo.DeleteSession("b"))
	once := repo.Sessions()
	assert.False(t, repo.DeleteSession("b"))
	assert.Equal(t, once, repo.Sessions())

	require.Len(t, once, 2)
	assert.Equal(t, "c", once[0].ID)
	assert.Equal(t, "a", once[1].ID)
}

func TestReadersReturnCopies(t *testing.T) {
	repo, _ := newRepo(t, storage.NewMemoryStore(), "")
	repo.AddSession(completed("a", time.Date(2024, 1, 1, 22, 0, 0, 0, time.UTC), 400, "2024-01-01"))

	got := repo.Sessions()
	*got[0].Duration = 1
	got[0].Notes = "mutated"

	s, _ := repo.Session("a")
	assert.Equal(t, 400.0, *s.Duration)
	assert.Empty(t, s.Notes)
}

func TestStatePersistsAndReloads(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()
	repo, clk := newRepo(t, store, "")

	repo.AddSession(completed("old", time.Date(2023, 12, 30, 22, 0, 0, 0, time.UTC), 455.5, "2023-12-30"))
	_, err := repo.StartSleep("first")
	require.NoError(t, err)
	clk.Advance(8 * time.Hour)
	_, ok := repo.EndSleep()
	require.True(t, ok)
	_, err = repo.StartSleep("second")
	require.NoError(t, err)

	want := repo.Snapshot()
	require.NoError(t, repo.Close(ctx))

	reopened := tracker.Open(ctx, store, tracker.Options{Location: time.UTC})
	defer reopened.Close(ctx)

	got := reopened.Snapshot()
	assert.Equal(t, want.Sessions, got.Sessions)
	assert.Equal(t, want.Active, got.Active)
	assert.Equal(t, want.Tracking, got.Tracking)
	assert.True(t, got.Tracking)
}

func TestOpenCorruptBlob(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, tracker.DefaultKey, []byte("{bad json")))

	repo, _ := newRepo(t, store, "")
	assert.Empty(t, repo.Sessions())
	assert.False(t, repo.Tracking())

	backup, err := store.Get(ctx, tracker.DefaultKey+".corrupt")
	require.NoError(t, err)
	assert.Equal(t, "{bad json", string(backup))
}

func TestOpenReadFailure(t *testing.T) {
	store := &failingStore{Store: storage.NewMemoryStore(), getErr: errors.New("disk on fire")}

	repo, _ := newRepo(t, store, "")
	assert.Empty(t, repo.Sessions())
	assert.False(t, repo.Tracking())
}

func TestPersistFailureKeepsMemory(t *testing.T) {
	boom := errors.New("disk full")
	store := &failingStore{Store: storage.NewMemoryStore(), setErr: boom}
	repo, _ := newRepo(t, store, "")

	_, err := repo.StartSleep("")
	require.NoError(t, err)

	assert.ErrorIs(t, repo.Flush(context.Background()), boom)
	select {
	case err := <-repo.Errors():
		assert.ErrorIs(t, err, boom)
	case <-time.After(time.Second):
		t.Fatal("expected a persistence error")
	}

	assert.True(t, repo.Tracking(), "in-memory state must survive a failed write")
	_, ok := repo.EndSleep()
	assert.True(t, ok)
	assert.Len(t, repo.Sessions(), 1)
}

func TestFlushWritesLatestState(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()
	repo, _ := newRepo(t, store, "")

	start := time.Date(2024, 1, 1, 22, 0, 0, 0, time.UTC)
	for i := 0; i < 50; i++ {
		repo.AddSession(completed(fmt.Sprintf("s%d", i), start, float64(i), "2024-01-01"))
	}
	require.NoError(t, repo.Flush(ctx))

	data, err := store.Get(ctx, tracker.DefaultKey)
	require.NoError(t, err)
	st, err := tracker.Decode(data)
	require.NoError(t, err)
	assert.Len(t, st.Sessions, 50)
}

func TestFlushHonoursContext(t *testing.T) {
	repo, _ := newRepo(t, storage.NewMemoryStore(), "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Nothing pending: returns immediately even with a cancelled context.
	assert.NoError(t, repo.Flush(ctx))
}

func TestMutationsAfterCloseStayInMemory(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()
	repo, _ := newRepo(t, store, "")
	require.NoError(t, repo.Close(ctx))

	_, err := repo.StartSleep("")
	require.NoError(t, err)
	assert.True(t, repo.Tracking())
	assert.NoError(t, repo.Flush(ctx))
	assert.NoError(t, repo.Close(ctx))

	_, err = store.Get(ctx, tracker.DefaultKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestWindowedReaders(t *testing.T) {
	repo, clk := newRepo(t, storage.NewMemoryStore(), "")
	// Today is 2024-01-01 in the test clock.
	repo.AddSession(completed("d0", time.Date(2024, 1, 1, 0, 30, 0, 0, time.UTC), 420, "2024-01-01"))
	repo.AddSession(completed("d0b", time.Date(2024, 1, 1, 14, 0, 0, 0, time.UTC), 60, "2024-01-01"))
	repo.AddSession(completed("d6", time.Date(2023, 12, 26, 23, 0, 0, 0, time.UTC), 500, "2023-12-26"))
	repo.AddSession(completed("d10", time.Date(2023, 12, 22, 23, 0, 0, 0, time.UTC), 300, "2023-12-22"))
	repo.AddSession(completed("d40", time.Date(2023, 11, 22, 23, 0, 0, 0, time.UTC), 100, "2023-11-22"))

	week := repo.WeeklyStats()
	assert.Equal(t, 3, week.TotalSessions)
	assert.Equal(t, 500.0, week.LongestSession)
	assert.Equal(t, 60.0, week.ShortestSession)

	month := repo.MonthlyStats()
	assert.Equal(t, 4, month.TotalSessions)

	series := repo.WeeklySeries()
	require.Len(t, series, 7)
	assert.Equal(t, "2023-12-26", series[0].Date)
	assert.Equal(t, 500.0, series[0].Duration)
	assert.Equal(t, "2024-01-01", series[6].Date)
	assert.Equal(t, 480.0, series[6].Duration)

	assert.Len(t, repo.MonthlySeries(), 30)

	overall := repo.Overall()
	assert.Equal(t, 5, overall.Sessions)
	assert.Equal(t, 1380.0, overall.TotalDuration)

	// Moving the clock forward shifts the window.
	clk.Advance(7 * 24 * time.Hour)
	assert.Equal(t, 0, repo.WeeklyStats().TotalSessions)
}
