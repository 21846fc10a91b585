package repository

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/sasha-s/go-deadlock"

	"github.com/rocketscienceinc/tictactoe-gateway/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-gateway/internal/entity"
)

// MatchRegistry is the in-memory store of live matches, kept in creation order.
type MatchRegistry struct {
	logger *slog.Logger
	policy EvictionPolicy
	now    func() time.Time

	mu      deadlock.RWMutex
	matches map[string]*entity.Match
	order   []string
}

func NewMatchRegistry(logger *slog.Logger, policy EvictionPolicy) *MatchRegistry {
	if policy == nil {
		policy = NeverEvict{}
	}

	return &MatchRegistry{
		logger:  logger.With("component", "registry"),
		policy:  policy,
		now:     time.Now,
		matches: make(map[string]*entity.Match),
	}
}

func (that *MatchRegistry) Policy() EvictionPolicy {
	return that.policy
}

// CreateMatch - stores a new match with player seated first and returns its id.
func (that *MatchRegistry) CreateMatch(player string) string {
	id := uuid.NewString()
	match := entity.NewMatch(id, player, that.now())

	that.mu.Lock()
	that.matches[id] = match
	that.order = append(that.order, id)
	that.mu.Unlock()

	that.logger.Debug("match created", "matchID", id, "playerID", player)

	return id
}

func (that *MatchRegistry) GetMatch(id string) (*entity.Match, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	match, ok := that.matches[id]
	if !ok {
		return nil, apperror.MatchNotFound(id)
	}

	return match, nil
}

// JoinMatch - seats player in match id. A player already seated there is not an error.
func (that *MatchRegistry) JoinMatch(id, player string) error {
	match, err := that.GetMatch(id)
	if err != nil {
		return err
	}

	match.Lock()
	defer match.Unlock()

	err = match.Join(player, that.now())
	if errors.Is(err, apperror.ErrDuplicatePlayer) {
		return nil
	}

	return err
}

// ListMatches - snapshots of every match in creation order.
func (that *MatchRegistry) ListMatches() []entity.MatchSnapshot {
	that.mu.RLock()
	matches := make([]*entity.Match, 0, len(that.order))
	for _, id := range that.order {
		matches = append(matches, that.matches[id])
	}
	that.mu.RUnlock()

	snapshots := make([]entity.MatchSnapshot, 0, len(matches))
	for _, match := range matches {
		snapshots = append(snapshots, snapshotOf(match))
	}

	return snapshots
}

func (that *MatchRegistry) Snapshot(id string) (entity.MatchSnapshot, error) {
	match, err := that.GetMatch(id)
	if err != nil {
		return entity.MatchSnapshot{}, err
	}

	return snapshotOf(match), nil
}

func (that *MatchRegistry) Len() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.matches)
}

// Sweep - removes the matches the policy considers expired at now and returns their ids.
func (that *MatchRegistry) Sweep(now time.Time) []string {
	that.mu.Lock()
	defer that.mu.Unlock()

	var evicted []string

	that.order = slices.DeleteFunc(that.order, func(id string) bool {
		match := that.matches[id]

		match.Lock()
		expired := that.policy.Expired(match, now)
		match.Unlock()

		if expired {
			delete(that.matches, id)
			evicted = append(evicted, id)
		}

		return expired
	})

	return evicted
}

// Run - sweeps every interval until ctx is done.
func (that *MatchRegistry) Run(ctx context.Context, interval time.Duration) {
	log := that.logger.With("method", "Run")

	if _, ok := that.policy.(NeverEvict); ok {
		log.Info("match eviction disabled, matches are kept until restart")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info("match janitor started", "policy", that.policy.String(), "interval", interval)

	for {
		select {
		case <-ctx.Done():
			log.Info("match janitor stopped")
			return
		case now := <-ticker.C:
			if evicted := that.Sweep(now); len(evicted) > 0 {
				log.Info("matches evicted", "count", len(evicted), "remaining", that.Len())
			}
		}
	}
}

func snapshotOf(match *entity.Match) entity.MatchSnapshot {
	match.Lock()
	defer match.Unlock()

	return match.Snapshot()
}
