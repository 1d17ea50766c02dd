package report

import (
	"context"
	"errors"
	"time"

	"osdashboard/internal/domain"
	"osdashboard/internal/session"
)

// ErrNoData is returned while neither a sync has succeeded nor anything is
// persisted.
var ErrNoData = errors.New(session.NoDataYet)

// Reader is the read side of the persistence gateway.
type Reader interface {
	ReadAllWorkOrders(ctx context.Context) ([]domain.WorkOrder, error)
	ReadAllDetails(ctx context.Context) ([]domain.DetailLine, error)
}

// Service builds the merged view from the session snapshot and the store on
// every call; nothing is cached.
type Service struct {
	state *session.State
	store Reader
	loc   *time.Location
	now   func() time.Time
}

func NewService(state *session.State, store Reader, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{state: state, store: store, loc: loc, now: time.Now}
}

func (s *Service) Rows(ctx context.Context) ([]MergedRow, error) {
	snap, persistedHeaders, persistedDetails, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return BuildMergedView(snap.Headers, domain.FlattenGroups(snap.Details), persistedHeaders, persistedDetails, s.loc), nil
}

func (s *Service) Filtered(ctx context.Context, f Filter) ([]MergedRow, error) {
	rows, err := s.Rows(ctx)
	if err != nil {
		return nil, err
	}
	return f.Apply(rows), nil
}

func (s *Service) Summary(ctx context.Context, f Filter) (Summary, error) {
	rows, err := s.Filtered(ctx, f)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(rows), nil
}

func (s *Service) Options(ctx context.Context) (Options, error) {
	rows, err := s.Rows(ctx)
	if err != nil {
		return Options{}, err
	}
	return FilterOptions(rows), nil
}

func (s *Service) InProgress(ctx context.Context) ([]InProgressRow, error) {
	rows, err := s.Rows(ctx)
	if err != nil {
		return nil, err
	}
	return InProgress(rows, s.now().In(s.loc)), nil
}

func (s *Service) Details(ctx context.Context, orderNumber int64) ([]domain.DetailLine, error) {
	snap, _, persistedDetails, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return DetailsFor(orderNumber, domain.FlattenGroups(snap.Details), persistedDetails), nil
}

func (s *Service) load(ctx context.Context) (session.Snapshot, []domain.WorkOrder, []domain.DetailLine, error) {
	snap := s.state.Snapshot()
	headers, err := s.store.ReadAllWorkOrders(ctx)
	if err != nil {
		return snap, nil, nil, err
	}
	if len(snap.Headers) == 0 && len(headers) == 0 {
		if _, ok := s.state.LastUpdate(); !ok {
			return snap, nil, nil, ErrNoData
		}
	}
	details, err := s.store.ReadAllDetails(ctx)
	if err != nil {
		return snap, nil, nil, err
	}
	return snap, headers, details, nil
}
