package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/tourneygate/internal/model"
	"github.com/mcoot/tourneygate/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Client exposes the underlying client so other components can share the pool
func (s *Storage) Client() *redis.Client {
	return s.client
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Tournament operations

func (s *Storage) GetTournament(ctx context.Context, id model.TournamentID) (*model.Tournament, error) {
	data, err := s.client.Get(ctx, tournamentKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrTournamentNotFound
		}
		return nil, err
	}

	var t model.Tournament
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Storage) SaveTournament(ctx context.Context, tournament *model.Tournament) error {
	data, err := json.Marshal(tournament)
	if err != nil {
		return err
	}

	key := tournamentKey(tournament.ID)

	// Use pipeline for atomic save + index update
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, key, data, 0)
	pipe.SAdd(ctx, tournamentIndexKey(), key)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) ListTournaments(ctx context.Context) ([]*model.Tournament, error) {
	keys, err := s.client.SMembers(ctx, tournamentIndexKey()).Result()
	if err != nil {
		return nil, err
	}

	if len(keys) == 0 {
		return []*model.Tournament{}, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	tournaments := make([]*model.Tournament, 0, len(values))
	for _, val := range values {
		str, ok := val.(string)
		if !ok {
			continue // Deleted out of band
		}
		var t model.Tournament
		if err := json.Unmarshal([]byte(str), &t); err != nil {
			continue // Skip invalid data
		}
		tournaments = append(tournaments, &t)
	}

	return tournaments, nil
}

// Lottery operations

func (s *Storage) GetLotteryState(ctx context.Context, id model.TournamentID) (*model.LotteryState, error) {
	data, err := s.client.Get(ctx, lotteryKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.NewLotteryState(id), nil
		}
		return nil, err
	}

	var state model.LotteryState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *Storage) SaveLotteryState(ctx context.Context, state *model.LotteryState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, lotteryKey(state.TournamentID), data, 0).Err()
}

// Queue operations

func (s *Storage) GetQueue(ctx context.Context, id model.TournamentID) (*model.RegistrationQueue, error) {
	data, err := s.client.Get(ctx, queueKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.NewRegistrationQueue(id), nil
		}
		return nil, err
	}

	var q model.RegistrationQueue
	if err := json.Unmarshal(data, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

func (s *Storage) SaveQueue(ctx context.Context, queue *model.RegistrationQueue) error {
	data, err := json.Marshal(queue)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, queueKey(queue.TournamentID), data, 0).Err()
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
