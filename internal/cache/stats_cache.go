// Package cache keeps the season rollup in redis so aggregate reads skip
// sqlite entirely between rollup runs.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/courtside-data/pointlog/internal/stats"
)

const (
	// SeasonStatsTTL outlives the hourly rollup interval so a slow or
	// failed run serves slightly stale data instead of none.
	SeasonStatsTTL = 3 * time.Hour

	seasonIndexKey = "seasons:players"
)

// ErrMiss is returned when the requested player has no cached seasons.
var ErrMiss = errors.New("cache miss")

// StatsCache stores per-player season aggregates keyed by player name.
type StatsCache struct {
	client *redis.Client
}

func NewStatsCache(client *redis.Client) *StatsCache {
	return &StatsCache{client: client}
}

func playerKey(name string) string {
	return fmt.Sprintf("seasons:player:%s", name)
}

// StoreSeasons replaces the cached rollup. Seasons are grouped per player
// so reads for a single player fetch one key.
func (c *StatsCache) StoreSeasons(ctx context.Context, seasons []stats.PlayerSeason) error {
	byPlayer := make(map[string][]stats.PlayerSeason)
	for _, s := range seasons {
		byPlayer[s.PlayerName] = append(byPlayer[s.PlayerName], s)
	}

	pipe := c.client.Pipeline()
	pipe.Del(ctx, seasonIndexKey)
	for name, playerSeasons := range byPlayer {
		data, err := json.Marshal(playerSeasons)
		if err != nil {
			return fmt.Errorf("marshaling seasons for %s: %w", name, err)
		}
		pipe.Set(ctx, playerKey(name), data, SeasonStatsTTL)
		pipe.RPush(ctx, seasonIndexKey, name)
	}
	pipe.Expire(ctx, seasonIndexKey, SeasonStatsTTL)

	_, err := pipe.Exec(ctx)
	return err
}

// GetSeasons retrieves the cached seasons for one player.
func (c *StatsCache) GetSeasons(ctx context.Context, playerName string) ([]stats.PlayerSeason, error) {
	data, err := c.client.Get(ctx, playerKey(playerName)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}

	var seasons []stats.PlayerSeason
	if err := json.Unmarshal([]byte(data), &seasons); err != nil {
		return nil, fmt.Errorf("unmarshaling seasons for %s: %w", playerName, err)
	}
	return seasons, nil
}

// ListPlayers returns every player name present in the cached rollup.
func (c *StatsCache) ListPlayers(ctx context.Context) ([]string, error) {
	names, err := c.client.LRange(ctx, seasonIndexKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	return names, nil
}

// Invalidate drops a player's cached seasons, forcing the next read back
// to sqlite. Used when a match is republished or adjusted mid-interval.
func (c *StatsCache) Invalidate(ctx context.Context, playerName string) error {
	return c.client.Del(ctx, playerKey(playerName)).Err()
}
