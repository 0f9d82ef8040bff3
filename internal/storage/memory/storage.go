package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/mcoot/tourneygate/internal/model"
	"github.com/mcoot/tourneygate/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// Values are copied on the way in and out so callers never share mutable state.
type Storage struct {
	mu sync.RWMutex

	tournaments map[model.TournamentID]*model.Tournament
	lotteries   map[model.TournamentID]*model.LotteryState
	queues      map[model.TournamentID]*model.RegistrationQueue
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		tournaments: make(map[model.TournamentID]*model.Tournament),
		lotteries:   make(map[model.TournamentID]*model.LotteryState),
		queues:      make(map[model.TournamentID]*model.RegistrationQueue),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Tournament operations

func (s *Storage) GetTournament(ctx context.Context, id model.TournamentID) (*model.Tournament, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tournaments[id]
	if !ok {
		return nil, model.ErrTournamentNotFound
	}
	return copyTournament(t), nil
}

func (s *Storage) SaveTournament(ctx context.Context, tournament *model.Tournament) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tournaments[tournament.ID] = copyTournament(tournament)
	return nil
}

func (s *Storage) ListTournaments(ctx context.Context) ([]*model.Tournament, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*model.Tournament, 0, len(s.tournaments))
	for _, t := range s.tournaments {
		result = append(result, copyTournament(t))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// Lottery operations

func (s *Storage) GetLotteryState(ctx context.Context, id model.TournamentID) (*model.LotteryState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.lotteries[id]
	if !ok {
		return model.NewLotteryState(id), nil
	}
	return copyLotteryState(state), nil
}

func (s *Storage) SaveLotteryState(ctx context.Context, state *model.LotteryState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lotteries[state.TournamentID] = copyLotteryState(state)
	return nil
}

// Queue operations

func (s *Storage) GetQueue(ctx context.Context, id model.TournamentID) (*model.RegistrationQueue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.queues[id]
	if !ok {
		return model.NewRegistrationQueue(id), nil
	}
	return &model.RegistrationQueue{TournamentID: q.TournamentID, Entries: slices.Clone(q.Entries)}, nil
}

func (s *Storage) SaveQueue(ctx context.Context, queue *model.RegistrationQueue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queues[queue.TournamentID] = &model.RegistrationQueue{
		TournamentID: queue.TournamentID,
		Entries:      slices.Clone(queue.Entries),
	}
	return nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return nil
}

func copyTournament(t *model.Tournament) *model.Tournament {
	c := *t
	c.PriorityGroups = make([]model.PriorityGroup, len(t.PriorityGroups))
	for i, g := range t.PriorityGroups {
		g.Criteria = slices.Clone(g.Criteria)
		c.PriorityGroups[i] = g
	}
	return &c
}

func copyLotteryState(s *model.LotteryState) *model.LotteryState {
	c := *s
	c.Entries = slices.Clone(s.Entries)
	c.Winners = slices.Clone(s.Winners)
	c.Waitlist = slices.Clone(s.Waitlist)
	if s.DrawnAt != nil {
		at := *s.DrawnAt
		c.DrawnAt = &at
	}
	if s.Statistics.GroupWinners != nil {
		c.Statistics.GroupWinners = make(map[string]int, len(s.Statistics.GroupWinners))
		for k, v := range s.Statistics.GroupWinners {
			c.Statistics.GroupWinners[k] = v
		}
	}
	return &c
}
