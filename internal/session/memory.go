package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"stddocs/internal/model"
)

type memoryEntry struct {
	data      []byte
	staged    *model.StagedFile
	expiresAt time.Time
}

type expiredEntry struct {
	id   string
	file model.StagedFile
}

// MemoryStore keeps JSON snapshots in process memory, so callers never share
// a live Workspace value. Entries expire after ttl without a Save.
type MemoryStore struct {
	mu       sync.Mutex
	entries  map[string]memoryEntry
	ttl      time.Duration
	now      func() time.Time
	onExpire ExpireFunc
}

var _ Expirer = (*MemoryStore)(nil)

// NewMemoryStore builds a store whose entries live for ttl after their last save.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// OnExpire registers fn for workspaces dropped by Sweep or found expired by Load.
func (s *MemoryStore) OnExpire(fn ExpireFunc) {
	s.mu.Lock()
	s.onExpire = fn
	s.mu.Unlock()
}

func (s *MemoryStore) Load(ctx context.Context, id string) (*Workspace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var gone []expiredEntry
	s.mu.Lock()
	e, ok := s.entries[id]
	if ok && s.expired(e, s.now()) {
		gone = s.evictLocked(id, e, gone)
		ok = false
	}
	hook := s.onExpire
	s.mu.Unlock()
	notify(ctx, hook, gone)
	if !ok {
		return nil, ErrNotFound
	}

	var w Workspace
	if err := json.Unmarshal(e.data, &w); err != nil {
		return nil, fmt.Errorf("decode workspace: %w", err)
	}
	return &w, nil
}

func (s *MemoryStore) Save(ctx context.Context, w *Workspace) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("encode workspace: %w", err)
	}
	s.mu.Lock()
	s.entries[w.ID] = memoryEntry{data: data, staged: stagedFile(w), expiresAt: s.now().Add(s.ttl)}
	s.mu.Unlock()
	return nil
}

// Delete removes the workspace without calling the expiry hook; the caller owns its file.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored workspaces, expired ones included until swept.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep drops every entry expired at now and returns how many were removed.
// The expiry hook runs after the lock is released.
func (s *MemoryStore) Sweep(now time.Time) int {
	var gone []expiredEntry
	n := 0
	s.mu.Lock()
	for id, e := range s.entries {
		if s.expired(e, now) {
			gone = s.evictLocked(id, e, gone)
			n++
		}
	}
	hook := s.onExpire
	s.mu.Unlock()
	notify(context.Background(), hook, gone)
	return n
}

func (s *MemoryStore) evictLocked(id string, e memoryEntry, gone []expiredEntry) []expiredEntry {
	delete(s.entries, id)
	if e.staged != nil {
		gone = append(gone, expiredEntry{id: id, file: *e.staged})
	}
	return gone
}

func notify(ctx context.Context, hook ExpireFunc, gone []expiredEntry) {
	if hook == nil {
		return
	}
	for _, g := range gone {
		hook(ctx, g.id, g.file)
	}
}

func (s *MemoryStore) expired(e memoryEntry, now time.Time) bool {
	return s.ttl > 0 && !now.Before(e.expiresAt)
}

// StartJanitor runs Sweep on the given cron schedule (e.g. "@every 1m") until
// the returned stop function is called.
func (s *MemoryStore) StartJanitor(schedule string) (func(), error) {
	return startJanitor(schedule, func() {
		if n := s.Sweep(s.now()); n > 0 {
			slog.Info("session_sweep", "removed", n)
		}
	})
}
