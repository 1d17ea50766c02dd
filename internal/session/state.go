package session

import (
	"sync/atomic"
	"time"

	"osdashboard/internal/domain"
)

const NoDataYet = "no data yet"

// Snapshot is the data held only for the lifetime of the process: every
// header of the latest successful fetch plus the detail lines of orders that
// are not persisted.
type Snapshot struct {
	Headers   []domain.WorkOrder
	Details   []domain.DetailGroup
	FetchedAt time.Time
}

// Outcome is the result of one sync cycle as shown to users.
type Outcome struct {
	RunID   string    `json:"run_id"`
	OK      bool      `json:"ok"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`

	// Rejected marks a run refused because another cycle was in progress.
	Rejected bool `json:"rejected,omitempty"`
}

type Status struct {
	HasData     bool       `json:"has_data"`
	LastUpdate  *time.Time `json:"last_update,omitempty"`
	LogLine     string     `json:"log_line"`
	NextRun     *time.Time `json:"next_run,omitempty"`
	LastOutcome *Outcome   `json:"last_outcome,omitempty"`
}

// State is shared between the background refresh loop and foreground
// readers. Every field is replaced atomically; readers never observe a
// partially written snapshot.
type State struct {
	snapshot   atomic.Pointer[Snapshot]
	lastUpdate atomic.Pointer[time.Time]
	nextRun    atomic.Pointer[time.Time]
	outcome    atomic.Pointer[Outcome]
	logLine    atomic.Value
}

func New() *State {
	s := &State{}
	s.logLine.Store(NoDataYet)
	return s
}

// Snapshot returns the latest session data, or the zero Snapshot when no
// cycle has succeeded yet.
func (s *State) Snapshot() Snapshot {
	if snap := s.snapshot.Load(); snap != nil {
		return *snap
	}
	return Snapshot{}
}

func (s *State) SetSnapshot(snap Snapshot) {
	s.snapshot.Store(&snap)
}

func (s *State) MarkUpdated(at time.Time) {
	s.lastUpdate.Store(&at)
}

func (s *State) LastUpdate() (time.Time, bool) {
	if t := s.lastUpdate.Load(); t != nil {
		return *t, true
	}
	return time.Time{}, false
}

func (s *State) SetLogLine(line string) {
	s.logLine.Store(line)
}

func (s *State) LogLine() string {
	line, _ := s.logLine.Load().(string)
	return line
}

func (s *State) SetNextRun(at time.Time) {
	s.nextRun.Store(&at)
}

func (s *State) ClearNextRun() {
	s.nextRun.Store(nil)
}

func (s *State) NextRun() (time.Time, bool) {
	if t := s.nextRun.Load(); t != nil {
		return *t, true
	}
	return time.Time{}, false
}

// RecordOutcome stores the cycle outcome and makes its message the current
// log line.
func (s *State) RecordOutcome(o Outcome) {
	s.outcome.Store(&o)
	s.logLine.Store(o.Message)
}

func (s *State) LastOutcome() (Outcome, bool) {
	if o := s.outcome.Load(); o != nil {
		return *o, true
	}
	return Outcome{}, false
}

func (s *State) Status() Status {
	st := Status{LogLine: s.LogLine()}
	if t, ok := s.LastUpdate(); ok {
		st.HasData = true
		st.LastUpdate = &t
	}
	if t, ok := s.NextRun(); ok {
		st.NextRun = &t
	}
	if o, ok := s.LastOutcome(); ok {
		st.LastOutcome = &o
	}
	return st
}
