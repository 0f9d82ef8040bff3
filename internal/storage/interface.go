package storage

import (
	"context"

	"github.com/mcoot/tourneygate/internal/model"
)

// TournamentRepository is the external tournament store
type TournamentRepository interface {
	GetTournament(ctx context.Context, id model.TournamentID) (*model.Tournament, error)
	SaveTournament(ctx context.Context, tournament *model.Tournament) error
	ListTournaments(ctx context.Context) ([]*model.Tournament, error)
}

// StateStore persists per-tournament admission state.
// Get methods return a fresh empty value when nothing has been saved yet.
type StateStore interface {
	// Lottery operations
	GetLotteryState(ctx context.Context, id model.TournamentID) (*model.LotteryState, error)
	SaveLotteryState(ctx context.Context, state *model.LotteryState) error

	// Queue operations
	GetQueue(ctx context.Context, id model.TournamentID) (*model.RegistrationQueue, error)
	SaveQueue(ctx context.Context, queue *model.RegistrationQueue) error

	// Ping checks the backend is reachable
	Ping(ctx context.Context) error
}

// Storage defines the interface for data persistence
type Storage interface {
	TournamentRepository
	StateStore
}

type composite struct {
	TournamentRepository
	StateStore
}

// WithTournaments returns a Storage that reads and writes tournaments through repo
// and keeps admission state in state
func WithTournaments(state StateStore, repo TournamentRepository) Storage {
	return composite{TournamentRepository: repo, StateStore: state}
}
