package cache

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Funnel milestones counted per session
const (
	MilestoneStarted   = "started"
	MilestoneContact   = "contact"
	MilestoneCompleted = "completed"
	MilestoneFailed    = "failed"
)

// StatsCache handles Redis counters for funnel conversion and answer tallies
type StatsCache interface {
	IncrMilestone(ctx context.Context, milestone string) error
	GetFunnel(ctx context.Context) (map[string]int64, error)
	IncrOptions(ctx context.Context, questionID string, options ...string) error
	GetTop(ctx context.Context, questionID string, limit int) ([]OptionCount, error)
}

// OptionCount is one ranked answer tally
type OptionCount struct {
	Option string `json:"option"`
	Count  int    `json:"count"`
	Rank   int    `json:"rank"`
}

type statsCache struct {
	client *redis.Client
}

// NewStatsCache creates a new stats cache
func NewStatsCache(client *redis.Client) StatsCache {
	return &statsCache{
		client: client,
	}
}

func (c *statsCache) funnelKey() string {
	return "stats:funnel"
}

func (c *statsCache) tallyKey(questionID string) string {
	return fmt.Sprintf("stats:q:%s", questionID)
}

func (c *statsCache) IncrMilestone(ctx context.Context, milestone string) error {
	return c.client.HIncrBy(ctx, c.funnelKey(), milestone, 1).Err()
}

func (c *statsCache) GetFunnel(ctx context.Context) (map[string]int64, error) {
	raw, err := c.client.HGetAll(ctx, c.funnelKey()).Result()
	if err != nil {
		return nil, err
	}
	out := map[string]int64{
		MilestoneStarted:   0,
		MilestoneContact:   0,
		MilestoneCompleted: 0,
		MilestoneFailed:    0,
	}
	for k, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad counter %s: %w", k, err)
		}
		out[k] = n
	}
	return out, nil
}

func (c *statsCache) IncrOptions(ctx context.Context, questionID string, options ...string) error {
	if len(options) == 0 {
		return nil
	}
	pipe := c.client.TxPipeline()
	for _, o := range options {
		pipe.ZIncrBy(ctx, c.tallyKey(questionID), 1, o)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (c *statsCache) GetTop(ctx context.Context, questionID string, limit int) ([]OptionCount, error) {
	results, err := c.client.ZRevRangeWithScores(ctx, c.tallyKey(questionID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]OptionCount, len(results))
	for i, z := range results {
		entries[i] = OptionCount{
			Option: z.Member.(string),
			Count:  int(z.Score),
			Rank:   i + 1,
		}
	}
	return entries, nil
}
