package scheduler

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"osdashboard/internal/session"
)

const (
	DefaultStep        = time.Second
	DefaultJoinTimeout = 2 * time.Second
)

// Scheduler runs one background refresh loop: run the job, publish the next
// run time, then wait in fixed steps until it is due, checking the stop flag
// at every step.
type Scheduler struct {
	schedule cron.Schedule
	job      func(context.Context)
	state    *session.State

	step        time.Duration
	joinTimeout time.Duration
	now         func() time.Time
	sleep       func(time.Duration)

	mu      sync.Mutex
	running bool
	stop    *atomic.Bool
	done    chan struct{}
}

func New(schedule cron.Schedule, job func(context.Context), state *session.State) *Scheduler {
	return &Scheduler{
		schedule:    schedule,
		job:         job,
		state:       state,
		step:        DefaultStep,
		joinTimeout: DefaultJoinTimeout,
		now:         time.Now,
		sleep:       time.Sleep,
	}
}

// Start spawns the loop. It returns false when a loop is already running or a
// previously stopped loop has not exited yet.
func (s *Scheduler) Start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return false
	}
	if s.done != nil {
		select {
		case <-s.done:
		default:
			log.Println("scheduler start refused: previous loop still exiting")
			return false
		}
	}

	stop := &atomic.Bool{}
	done := make(chan struct{})
	s.stop = stop
	s.done = done
	s.running = true
	log.Println("scheduler started")
	go s.loop(stop, done)
	return true
}

// Stop sets the stop flag and waits up to the join timeout for the loop to
// exit. It returns whether the loop exited in time; the loop is never
// forced to terminate.
func (s *Scheduler) Stop() bool {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return false
	}
	s.stop.Store(true)
	s.running = false
	done := s.done
	s.mu.Unlock()

	select {
	case <-done:
		log.Println("scheduler stopped")
		return true
	case <-time.After(s.joinTimeout):
		log.Printf("scheduler stop: loop did not exit within %s", s.joinTimeout)
		return false
	}
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) loop(stop *atomic.Bool, done chan struct{}) {
	defer close(done)
	defer s.state.ClearNextRun()

	for !stop.Load() {
		s.job(context.Background())
		if stop.Load() {
			return
		}

		next := s.schedule.Next(s.now())
		s.state.SetNextRun(next)
		log.Printf("scheduler next run at %s", next.Format("Mon Jan 2 15:04:05"))

		for s.now().Before(next) {
			if stop.Load() {
				return
			}
			s.sleep(s.step)
		}
	}
}
