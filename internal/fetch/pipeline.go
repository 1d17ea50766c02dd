package fetch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"osdashboard/internal/config"
	"osdashboard/internal/domain"
	"osdashboard/internal/integrations/osapi"
	"osdashboard/internal/session"
	"osdashboard/internal/storage"
)

var ErrSyncInProgress = errors.New("a sync is already in progress")

// API is the remote work-order service.
type API interface {
	Authenticate(ctx context.Context, login, password string) (string, error)
	FetchAllSince(ctx context.Context, epochDate, token string) ([]domain.WorkOrder, int, error)
	FetchDetails(ctx context.Context, orderNumbers []int64, token string, onProgress func(done, total int)) osapi.DetailBatch
}

// SyncResult tracks the counters of one sync cycle.
type SyncResult struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time

	Fetched    int
	Dropped    int
	Qualifying int
	Transient  int
	Upserted   int

	DetailRequested  int
	DetailFetched    int
	DetailSkipped    int
	DetailFailed     int
	DetailsPersisted int

	PersistenceErrors []string
}

// Pipeline runs the sync: authenticate, fetch headers, persist qualifying
// orders, fetch details, publish the session snapshot.
type Pipeline struct {
	cfg   config.Config
	api   API
	store storage.Gateway
	state *session.State

	mu    sync.Mutex
	now   func() time.Time
	runID func() string
}

func NewPipeline(cfg config.Config, api API, store storage.Gateway, state *session.State) *Pipeline {
	return &Pipeline{
		cfg:   cfg,
		api:   api,
		store: store,
		state: state,
		now:   time.Now,
		runID: uuid.NewString,
	}
}

// Sync runs one cycle. Auth and header fetch errors abort before any state
// changes. Persistence errors are returned after the session snapshot has
// been refreshed, so the in-memory view stays current.
func (p *Pipeline) Sync(ctx context.Context) (SyncResult, error) {
	if !p.mu.TryLock() {
		return SyncResult{}, ErrSyncInProgress
	}
	defer p.mu.Unlock()

	result := SyncResult{RunID: p.runID(), StartedAt: p.now()}
	err := p.sync(ctx, &result)
	result.FinishedAt = p.now()
	return result, err
}

func (p *Pipeline) sync(ctx context.Context, result *SyncResult) error {
	if !p.cfg.CredentialsConfigured() {
		return fmt.Errorf("login and password must be configured")
	}

	p.state.SetLogLine("authenticating")
	token, err := p.api.Authenticate(ctx, p.cfg.Login, p.cfg.Password)
	if err != nil {
		return err
	}

	p.state.SetLogLine("fetching work orders")
	orders, dropped, err := p.api.FetchAllSince(ctx, p.cfg.EpochDate, token)
	if err != nil {
		return err
	}
	orders = domain.DedupeOrders(orders)
	result.Fetched = len(orders)
	result.Dropped = dropped

	qualifying, transient := domain.Partition(orders)
	result.Qualifying = len(qualifying)
	result.Transient = len(transient)
	log.Printf("sync run=%s fetched=%d dropped=%d qualifying=%d transient=%d",
		result.RunID, result.Fetched, dropped, result.Qualifying, result.Transient)

	var persistErrs []error
	persistHealthy := true
	upserted, err := p.store.UpsertQualifying(ctx, qualifying)
	if err != nil {
		log.Printf("sync run=%s upsert error: %v", result.RunID, err)
		persistErrs = append(persistErrs, err)
		persistHealthy = false
	}
	result.Upserted = upserted

	targets := make([]int64, 0, len(transient))
	seen := make(map[int64]bool, len(transient))
	for _, wo := range transient {
		if !seen[wo.Number] {
			seen[wo.Number] = true
			targets = append(targets, wo.Number)
		}
	}

	// Without a healthy store the qualifying orders are valued from the
	// session only, so their details are fetched like transient ones.
	if !persistHealthy {
		for _, wo := range qualifying {
			if !seen[wo.Number] {
				seen[wo.Number] = true
				targets = append(targets, wo.Number)
			}
		}
	}

	persistTargets := make(map[int64]bool)
	if p.cfg.ShouldPersistDetails() && persistHealthy {
		missing, err := p.store.FindOrdersMissingDetails(ctx)
		if err != nil {
			log.Printf("sync run=%s find missing details error: %v", result.RunID, err)
			persistErrs = append(persistErrs, err)
		}
		for _, n := range missing {
			if seen[n] {
				continue
			}
			seen[n] = true
			persistTargets[n] = true
			targets = append(targets, n)
		}
	}

	result.DetailRequested = len(targets)
	var sessionDetails []domain.DetailGroup
	if len(targets) > 0 {
		batch := p.api.FetchDetails(ctx, targets, token, func(done, total int) {
			line := fmt.Sprintf("fetching details %d/%d", done, total)
			p.state.SetLogLine(line)
			log.Printf("sync run=%s %s", result.RunID, line)
		})
		result.DetailFetched = batch.Fetched
		result.DetailSkipped = batch.Skipped
		result.DetailFailed = batch.Failed
		for _, detailErr := range batch.Errors() {
			log.Printf("sync run=%s detail error: %v", result.RunID, detailErr)
		}

		for _, group := range batch.Groups() {
			if !persistTargets[group.OrderNumber] {
				sessionDetails = append(sessionDetails, group)
				continue
			}
			if err := p.store.ReplaceDetails(ctx, group.OrderNumber, group.Lines); err != nil {
				log.Printf("sync run=%s replace details order=%d error: %v", result.RunID, group.OrderNumber, err)
				persistErrs = append(persistErrs, err)
				sessionDetails = append(sessionDetails, group)
				continue
			}
			result.DetailsPersisted++
		}
	}

	fetchedAt := p.now()
	p.state.SetSnapshot(session.Snapshot{
		Headers:   orders,
		Details:   sessionDetails,
		FetchedAt: fetchedAt,
	})
	p.state.MarkUpdated(fetchedAt)

	for _, e := range persistErrs {
		result.PersistenceErrors = append(result.PersistenceErrors, e.Error())
	}
	if len(persistErrs) > 0 {
		return errors.Join(persistErrs...)
	}
	return nil
}

// Run executes one cycle and converts every failure, panics included, into
// an Outcome recorded in session state.
func (p *Pipeline) Run(ctx context.Context) (out session.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("sync panic: %v", r)
			out = session.Outcome{OK: false, Message: fmt.Sprintf("sync failed unexpectedly: %v", r), At: p.now()}
			p.state.RecordOutcome(out)
		}
	}()

	result, err := p.Sync(ctx)
	if errors.Is(err, ErrSyncInProgress) {
		// The running cycle owns the log line and outcome.
		return session.Outcome{Message: err.Error(), At: p.now(), Rejected: true}
	}

	out = session.Outcome{RunID: result.RunID, At: p.now()}
	if err != nil {
		out.Message = DescribeError(result, err)
		log.Printf("sync run=%s failed: %s", result.RunID, out.Message)
	} else {
		out.OK = true
		out.Message = FormatSyncSummary(result)
		log.Printf("sync run=%s complete: %s", result.RunID, out.Message)
	}
	p.state.RecordOutcome(out)
	return out
}

// DescribeError renders a failed cycle for display. Persistence failures
// still carry the counters of the cycle.
func DescribeError(result SyncResult, err error) string {
	var persistErr *storage.PersistenceError
	if errors.As(err, &persistErr) {
		return FormatSyncSummary(result)
	}
	return err.Error()
}
