// Package cache holds the session cache for cram plans. Plans are regenerated
// on demand from mastery data, so the cache is an optimization only: a nil or
// unreachable cache degrades to recomputation, never to an error.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AliMusharafbaig/StudybuddyAI/internal/models"
)

var ErrNotFound = errors.New("plan not found in cache")

type PlanCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPlanCache connects to redis at redisURL. An empty URL returns a nil
// cache, which every method treats as a miss.
func NewPlanCache(redisURL string, ttl time.Duration) (*PlanCache, error) {
	if redisURL == "" {
		return nil, nil
	}
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &PlanCache{client: client, ttl: ttl}, nil
}

func planKey(userID, courseID string, totalMinutes int) string {
	return fmt.Sprintf("cramplan:%s:%s:%d", userID, courseID, totalMinutes)
}

func (c *PlanCache) Get(ctx context.Context, userID, courseID string, totalMinutes int) (models.CramPlan, error) {
	if c == nil {
		return models.CramPlan{}, ErrNotFound
	}
	val, err := c.client.Get(ctx, planKey(userID, courseID, totalMinutes)).Result()
	if errors.Is(err, redis.Nil) {
		return models.CramPlan{}, ErrNotFound
	}
	if err != nil {
		return models.CramPlan{}, fmt.Errorf("get cached plan: %w", err)
	}
	var plan models.CramPlan
	if err := json.Unmarshal([]byte(val), &plan); err != nil {
		return models.CramPlan{}, fmt.Errorf("decode cached plan: %w", err)
	}
	return plan, nil
}

func (c *PlanCache) Put(ctx context.Context, plan models.CramPlan) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}
	if err := c.client.Set(ctx, planKey(plan.UserID, plan.CourseID, plan.TotalMinutes), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache plan: %w", err)
	}
	return nil
}

// Invalidate drops all cached plans for a user and course, called after a
// mastery update makes them stale.
func (c *PlanCache) Invalidate(ctx context.Context, userID, courseID string) error {
	if c == nil {
		return nil
	}
	keys, err := c.client.Keys(ctx, fmt.Sprintf("cramplan:%s:%s:*", userID, courseID)).Result()
	if err != nil {
		return fmt.Errorf("list plan keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidate plans: %w", err)
	}
	return nil
}

func (c *PlanCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
