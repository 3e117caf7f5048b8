package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"stddocs/internal/model"
)

const (
	keyPrefix = "stddocs:session:" // stddocs:session:{workspace_id}
	// stagedDeadlines scores workspace ids holding a staged file by expiry (unix ms).
	stagedDeadlines = "stddocs:staged:deadlines"
	// stagedFiles maps those workspace ids to their staged file JSON.
	stagedFiles = "stddocs:staged:files"
)

// RedisStore keeps workspaces as JSON values with an idle TTL, so several
// API instances can serve the same client. Redis drops expired values on its
// own; staged files are tracked beside them so Sweep can still report them.
type RedisStore struct {
	client   *redis.Client
	ttl      time.Duration
	now      func() time.Time
	onExpire ExpireFunc
}

var _ Expirer = (*RedisStore)(nil)

// NewRedisStore builds a store on an existing client.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, now: time.Now}
}

// OnExpire registers fn for staged files found by Sweep. Set it before starting the janitor.
func (s *RedisStore) OnExpire(fn ExpireFunc) {
	s.onExpire = fn
}

func (s *RedisStore) Load(ctx context.Context, id string) (*Workspace, error) {
	data, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get workspace: %w", err)
	}

	var w Workspace
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to unmarshal workspace: %w", err)
	}
	return &w, nil
}

func (s *RedisStore) Save(ctx context.Context, w *Workspace) error {
	data, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("failed to marshal workspace: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, keyPrefix+w.ID, data, s.ttl)
	if f := stagedFile(w); f != nil && s.ttl > 0 {
		raw, err := json.Marshal(f)
		if err != nil {
			return fmt.Errorf("failed to marshal staged file: %w", err)
		}
		deadline := s.now().Add(s.ttl).UnixMilli()
		pipe.ZAdd(ctx, stagedDeadlines, redis.Z{Score: float64(deadline), Member: w.ID})
		pipe.HSet(ctx, stagedFiles, w.ID, raw)
	} else {
		pipe.ZRem(ctx, stagedDeadlines, w.ID)
		pipe.HDel(ctx, stagedFiles, w.ID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save workspace: %w", err)
	}
	return nil
}

// Delete removes the workspace and its staged-file tracking; the caller owns the file.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, keyPrefix+id)
	pipe.ZRem(ctx, stagedDeadlines, id)
	pipe.HDel(ctx, stagedFiles, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete workspace: %w", err)
	}
	return nil
}

// Sweep reports the staged files of workspaces whose deadline passed at now
// and whose value Redis has already expired. Removing the deadline entry
// claims it, so with several instances each file is reported once.
func (s *RedisStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	ids, err := s.client.ZRangeByScore(ctx, stagedDeadlines, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to list staged deadlines: %w", err)
	}

	n := 0
	for _, id := range ids {
		alive, err := s.client.Exists(ctx, keyPrefix+id).Result()
		if err != nil {
			return n, fmt.Errorf("failed to check workspace: %w", err)
		}
		if alive > 0 {
			continue
		}
		raw, err := s.client.HGet(ctx, stagedFiles, id).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return n, fmt.Errorf("failed to get staged file: %w", err)
		}
		claimed, err := s.client.ZRem(ctx, stagedDeadlines, id).Result()
		if err != nil {
			return n, fmt.Errorf("failed to claim staged file: %w", err)
		}
		if claimed == 0 {
			continue
		}
		if err := s.client.HDel(ctx, stagedFiles, id).Err(); err != nil {
			return n, fmt.Errorf("failed to drop staged file: %w", err)
		}
		n++

		var f model.StagedFile
		if len(raw) == 0 || json.Unmarshal(raw, &f) != nil || f.Key == "" {
			continue
		}
		if s.onExpire != nil {
			s.onExpire(ctx, id, f)
		}
	}
	return n, nil
}

// StartJanitor runs Sweep on the given cron schedule until stop is called.
func (s *RedisStore) StartJanitor(schedule string) (func(), error) {
	return startJanitor(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		n, err := s.Sweep(ctx, s.now())
		if err != nil {
			slog.Warn("session_sweep_failed", "error", err)
			return
		}
		if n > 0 {
			slog.Info("session_sweep", "removed", n)
		}
	})
}
