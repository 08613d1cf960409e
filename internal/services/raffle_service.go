package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/logger"

	"raffle/internal/metrics"
	"raffle/internal/models"
	"raffle/internal/storage"
)

// RaffleSession caches the raffle of a single tenant.
type RaffleSession struct {
	Raffle       *models.Raffle // nil until the tenant creates one
	LastActivity time.Time
}

// RaffleService manages one raffle per tenant. Every mutation runs under a
// single lock and is written to the store before the cached snapshot is
// replaced, so a failed operation never leaves a half-applied state.
type RaffleService struct {
	mu       sync.Mutex
	sessions map[string]*RaffleSession // Key: tenantID
	store    storage.Store
	drawer   *Drawer
	ttl      time.Duration
	now      func() time.Time
}

// NewRaffleService creates a service persisting through store. Sessions idle
// for longer than ttl are dropped from memory by CleanUpInactiveSessions.
func NewRaffleService(store storage.Store, drawer *Drawer, ttl time.Duration) *RaffleService {
	if drawer == nil {
		drawer = NewDrawer(nil)
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RaffleService{
		sessions: make(map[string]*RaffleSession),
		store:    store,
		drawer:   drawer,
		ttl:      ttl,
		now:      time.Now,
	}
}

// getSession returns the session for a tenant, loading it from the store on
// first use. Callers must hold s.mu.
func (s *RaffleService) getSession(ctx context.Context, tenantID string) (*RaffleSession, error) {
	session, exists := s.sessions[tenantID]
	if !exists {
		session = &RaffleSession{}
		r, err := s.store.Load(ctx, tenantID)
		switch {
		case err == nil:
			session.Raffle = &r
		case errors.Is(err, storage.ErrNotFound):
		default:
			return nil, fmt.Errorf("load raffle: %w", err)
		}
		s.sessions[tenantID] = session
		metrics.SetActiveSessions(len(s.sessions))
	}
	session.LastActivity = s.now()
	return session, nil
}

// view runs fn against the current snapshot without changing it.
func (s *RaffleService) view(ctx context.Context, tenantID string) (models.Raffle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.getSession(ctx, tenantID)
	if err != nil {
		return models.Raffle{}, err
	}
	if session.Raffle == nil {
		return models.Raffle{}, ErrRaffleNotFound
	}
	return session.Raffle.Clone(), nil
}

// mutate applies fn to the tenant's raffle and persists the result.
func (s *RaffleService) mutate(ctx context.Context, tenantID, op string, fn func(models.Raffle) (models.Raffle, error)) (models.Raffle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.getSession(ctx, tenantID)
	if err != nil {
		return models.Raffle{}, err
	}
	if session.Raffle == nil {
		return models.Raffle{}, ErrRaffleNotFound
	}

	next, err := fn(*session.Raffle)
	metrics.RecordOperation(op, err)
	if err != nil {
		return models.Raffle{}, err
	}
	if err := s.store.Save(ctx, tenantID, next); err != nil {
		logger.Errorf("persisting %s for tenant %s: %v", op, tenantID, err)
		return models.Raffle{}, fmt.Errorf("persist raffle: %w", err)
	}

	session.Raffle = &next
	return next.Clone(), nil
}

// Create sets up a new raffle for the tenant. A tenant holds at most one
// raffle; Reset discards it.
func (s *RaffleService) Create(ctx context.Context, tenantID string, cfg models.RaffleConfig, prizes []string) (models.Raffle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.getSession(ctx, tenantID)
	if err != nil {
		return models.Raffle{}, err
	}
	if session.Raffle != nil {
		return models.Raffle{}, fmt.Errorf("tenant already has a raffle: %w", ErrIllegalLifecycleTransition)
	}

	cfg.CreatedAt = s.now().UTC()
	r, err := NewRaffle(cfg, prizes)
	metrics.RecordOperation("create", err)
	if err != nil {
		return models.Raffle{}, err
	}
	if err := s.store.Save(ctx, tenantID, r); err != nil {
		return models.Raffle{}, fmt.Errorf("persist raffle: %w", err)
	}

	session.Raffle = &r
	logger.Infof("Created raffle %q with %d numbers for tenant: %s", r.Config.Name, r.Config.TotalNumbers, tenantID)
	return r.Clone(), nil
}

// Get returns a copy of the tenant's raffle.
func (s *RaffleService) Get(ctx context.Context, tenantID string) (models.Raffle, error) {
	return s.view(ctx, tenantID)
}

func (s *RaffleService) EditConfig(ctx context.Context, tenantID string, edit ConfigEdit) (models.Raffle, error) {
	return s.mutate(ctx, tenantID, "edit_config", func(r models.Raffle) (models.Raffle, error) {
		return EditConfig(r, edit)
	})
}

func (s *RaffleService) Finalize(ctx context.Context, tenantID string) (models.Raffle, error) {
	r, err := s.mutate(ctx, tenantID, "finalize", Finalize)
	if err == nil {
		logger.Infof("Finalized raffle for tenant %s: %d sold, %d unsold", tenantID, len(r.State.Sales), r.State.Unsold.Len())
	}
	return r, err
}

// Reset discards the tenant's raffle entirely.
func (s *RaffleService) Reset(ctx context.Context, tenantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(ctx, tenantID); err != nil {
		return fmt.Errorf("delete raffle: %w", err)
	}
	delete(s.sessions, tenantID)
	metrics.SetActiveSessions(len(s.sessions))
	metrics.RecordOperation("reset", nil)
	logger.Infof("Cleared raffle for tenant: %s", tenantID)
	return nil
}

func (s *RaffleService) AddPrize(ctx context.Context, tenantID, name string) (models.Raffle, error) {
	return s.mutate(ctx, tenantID, "add_prize", func(r models.Raffle) (models.Raffle, error) {
		return AddPrize(r, name)
	})
}

func (s *RaffleService) RemovePrize(ctx context.Context, tenantID, name string) (models.Raffle, error) {
	return s.mutate(ctx, tenantID, "remove_prize", func(r models.Raffle) (models.Raffle, error) {
		return RemovePrize(r, name)
	})
}

// AssignSale sells numbers to one buyer, stamping the sale with the current time.
func (s *RaffleService) AssignSale(ctx context.Context, tenantID string, numbers []int, name, phone string) (models.Raffle, error) {
	return s.mutate(ctx, tenantID, "assign_sale", func(r models.Raffle) (models.Raffle, error) {
		return AssignSale(r, numbers, models.Sale{Name: name, Phone: phone, Date: s.now().UTC()})
	})
}

func (s *RaffleService) RemoveSale(ctx context.Context, tenantID string, number int) (models.Raffle, error) {
	return s.mutate(ctx, tenantID, "remove_sale", func(r models.Raffle) (models.Raffle, error) {
		return RemoveSale(r, number)
	})
}

func (s *RaffleService) SetMarkingMode(ctx context.Context, tenantID string, on bool) (models.Raffle, error) {
	return s.mutate(ctx, tenantID, "marking_mode", func(r models.Raffle) (models.Raffle, error) {
		return SetMarkingMode(r, on)
	})
}

// ToggleUnsold flips a number's unsold mark. Marking mode must be on.
func (s *RaffleService) ToggleUnsold(ctx context.Context, tenantID string, number int) (models.Raffle, error) {
	return s.mutate(ctx, tenantID, "toggle_unsold", func(r models.Raffle) (models.Raffle, error) {
		if !r.Finalized() && !r.State.MarkingMode {
			return r, fmt.Errorf("marking mode is off: %w", ErrInvalidInput)
		}
		return ToggleUnsold(r, number)
	})
}

// ImportParticipants replaces the participant directory from a JSON document.
func (s *RaffleService) ImportParticipants(ctx context.Context, tenantID string, document []byte) (models.Raffle, error) {
	participants, err := ParseParticipants(document)
	if err != nil {
		return models.Raffle{}, err
	}
	r, err := s.mutate(ctx, tenantID, "import_participants", func(r models.Raffle) (models.Raffle, error) {
		return ImportParticipants(r, participants), nil
	})
	if err == nil {
		logger.Infof("Imported %d participants for tenant: %s", len(participants), tenantID)
	}
	return r, err
}

// DrawWinner draws a number and a prize for the tenant's raffle.
func (s *RaffleService) DrawWinner(ctx context.Context, tenantID string) (models.Winner, error) {
	var winner models.Winner
	_, err := s.mutate(ctx, tenantID, "draw_winner", func(r models.Raffle) (models.Raffle, error) {
		next, w, err := s.drawer.DrawRaffleWinner(r)
		winner = w
		return next, err
	})
	metrics.RecordDraw("winner", drawOutcome(err))
	if err != nil {
		return models.Winner{}, err
	}

	logger.Infof("Drew winner %d (%s) for prize %q, tenant: %s", winner.Number, winner.Name, winner.Prize, tenantID)
	return winner, nil
}

// LoserResult describes an eliminated number.
type LoserResult struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
}

// DrawLoser eliminates one number from the tenant's raffle.
func (s *RaffleService) DrawLoser(ctx context.Context, tenantID string) (LoserResult, error) {
	var result LoserResult
	_, err := s.mutate(ctx, tenantID, "draw_loser", func(r models.Raffle) (models.Raffle, error) {
		next, n, err := s.drawer.DrawRaffleLoser(r)
		result = LoserResult{Number: n, Name: resolveName(RaffleNames(r), n)}
		return next, err
	})
	metrics.RecordDraw("loser", drawOutcome(err))
	if err != nil {
		return LoserResult{}, err
	}

	logger.Infof("Eliminated number %d (%s), tenant: %s", result.Number, result.Name, tenantID)
	return result, nil
}

func (s *RaffleService) RemoveWinner(ctx context.Context, tenantID string, number int) (models.Raffle, error) {
	return s.mutate(ctx, tenantID, "remove_winner", func(r models.Raffle) (models.Raffle, error) {
		return RemoveWinner(r, number)
	})
}

func (s *RaffleService) RemoveLoser(ctx context.Context, tenantID string, number int) (models.Raffle, error) {
	return s.mutate(ctx, tenantID, "remove_loser", func(r models.Raffle) (models.Raffle, error) {
		return RemoveLoser(r, number)
	})
}

// Available returns the numbers eligible for the next draw.
func (s *RaffleService) Available(ctx context.Context, tenantID string) ([]int, error) {
	r, err := s.view(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return AvailableNumbers(r), nil
}

func (s *RaffleService) Summary(ctx context.Context, tenantID string) (Summary, error) {
	r, err := s.view(ctx, tenantID)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(r), nil
}

// CleanUpInactiveSessions drops cached sessions idle for longer than the
// configured TTL. Raffles stay in the store and are reloaded on demand.
func (s *RaffleService) CleanUpInactiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for tenantID, session := range s.sessions {
		if s.now().Sub(session.LastActivity) > s.ttl {
			delete(s.sessions, tenantID)
			removed++
		}
	}
	metrics.SetActiveSessions(len(s.sessions))
	if removed > 0 {
		logger.Infof("Evicted %d inactive sessions", removed)
	}
	return removed
}

func drawOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNoNumbersAvailable):
		return "no_numbers"
	case errors.Is(err, ErrNoPrizesAvailable):
		return "no_prizes"
	default:
		return "error"
	}
}
