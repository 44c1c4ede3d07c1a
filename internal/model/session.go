package model

import "time"

// MaxNotesLength is the maximum number of characters kept in SleepSession.Notes.
const MaxNotesLength = 200

// SleepSession represents one sleep interval. EndTime and Duration are nil
// while the session is in progress.
type SleepSession struct {
	ID        string     `json:"id"`
	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime"`
	Duration  *float64   `json:"duration"` // in minutes
	Notes     string     `json:"notes"`
	Date      string     `json:"date"` // YYYY-MM-DD of StartTime, local time
}

// Completed reports whether the session has an end time.
func (s SleepSession) Completed() bool {
	return s.EndTime != nil
}

// Clone returns a deep copy of s.
func (s SleepSession) Clone() SleepSession {
	out := s
	if s.EndTime != nil {
		end := *s.EndTime
		out.EndTime = &end
	}
	if s.Duration != nil {
		d := *s.Duration
		out.Duration = &d
	}
	return out
}

// SessionUpdate holds the partial field overrides accepted by an update.
// Nil fields are left unchanged.
type SessionUpdate struct {
	StartTime *time.Time
	EndTime   *time.Time
	Notes     *string
	Date      *string
}

// Empty reports whether the update carries no overrides.
func (u SessionUpdate) Empty() bool {
	return u.StartTime == nil && u.EndTime == nil && u.Notes == nil && u.Date == nil
}

// State is the repository content persisted to the blob store.
type State struct {
	Sessions []SleepSession `json:"sessions"`
	Active   *SleepSession  `json:"activeSleepSession"`
	Tracking bool           `json:"isTracking"`
}

// Clone returns a deep copy of st.
func (st State) Clone() State {
	out := State{
		Sessions: make([]SleepSession, len(st.Sessions)),
		Tracking: st.Tracking,
	}
	for i, s := range st.Sessions {
		out.Sessions[i] = s.Clone()
	}
	if st.Active != nil {
		a := st.Active.Clone()
		out.Active = &a
	}
	return out
}
