package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/chess-relay/internal/entity"
)

var ErrMatchNotFound = errors.New("match not found")

const (
	matchKeyPrefix = "match:"
	matchIndexKey  = "matches"

	// finished matches are kept for a day
	finishedMatchTTL = 24 * time.Hour
)

// MatchRepository - ledger of the matches paired by the relay.
type MatchRepository interface {
	CreateOrUpdate(ctx context.Context, match *entity.Match) error
	GetByID(ctx context.Context, id string) (*entity.Match, error)
	DeleteByID(ctx context.Context, id string) error
	ListIDs(ctx context.Context) ([]string, error)
}

type dbMatch struct {
	logger *slog.Logger
	client *redis.Client
}

func NewMatchRepository(logger *slog.Logger, client *redis.Client) MatchRepository {
	return &dbMatch{
		logger: logger.With("component", "match_repository"),
		client: client,
	}
}

func (that *dbMatch) CreateOrUpdate(ctx context.Context, match *entity.Match) error {
	matchJSON, err := json.Marshal(match)
	if err != nil {
		return fmt.Errorf("could not marshal match: %w", err)
	}

	var ttl time.Duration
	if !match.IsOngoing() {
		ttl = finishedMatchTTL
	}

	matchKey := matchKeyPrefix + match.ID

	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, matchKey, matchJSON, ttl)
		pipe.SAdd(ctx, matchIndexKey, match.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set match: %w", err)
	}

	return nil
}

func (that *dbMatch) GetByID(ctx context.Context, id string) (*entity.Match, error) {
	matchKey := matchKeyPrefix + id

	response, err := that.client.Get(ctx, matchKey).Result()

	if errors.Is(err, redis.Nil) {
		return &entity.Match{}, ErrMatchNotFound
	}

	if err != nil {
		return &entity.Match{}, fmt.Errorf("failed to get match by ID: %w", err)
	}

	var existingMatch entity.Match
	if err = json.Unmarshal([]byte(response), &existingMatch); err != nil {
		return &entity.Match{}, fmt.Errorf("failed to unmarshal match: %w", err)
	}

	return &existingMatch, nil
}

func (that *dbMatch) DeleteByID(ctx context.Context, id string) error {
	matchKey := matchKeyPrefix + id

	var deleted *redis.IntCmd
	_, err := that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, matchKey)
		pipe.SRem(ctx, matchIndexKey, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete match by ID: %w", err)
	}

	if deleted.Val() == 0 {
		return ErrMatchNotFound
	}

	return nil
}

// ListIDs - ids of the stored matches. Entries whose record expired are
// dropped from the index on the way.
func (that *dbMatch) ListIDs(ctx context.Context) ([]string, error) {
	ids, err := that.client.SMembers(ctx, matchIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}

	alive := make([]string, 0, len(ids))
	for _, id := range ids {
		exists, err := that.client.Exists(ctx, matchKeyPrefix+id).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to check match %s: %w", id, err)
		}

		if exists == 0 {
			if err = that.client.SRem(ctx, matchIndexKey, id).Err(); err != nil {
				that.logger.Error("failed to prune expired match from index", "match", id, "error", err)
			}
			continue
		}

		alive = append(alive, id)
	}

	return alive, nil
}
