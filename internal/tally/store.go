// Package tally keeps the deduplicated count of recall reasons.
package tally

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/memohai/recallbot/internal/logger"
	"github.com/memohai/recallbot/internal/recall"
)

var (
	ErrEmptyReason    = errors.New("recall reason is required")
	ErrEmptyMessageID = errors.New("message id is required")
)

// Store maps normalized recall reasons to the number of distinct messages
// that produced them. Every message id is counted at most once. A Store is
// safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	persister Persister
	logger    *slog.Logger

	// order holds reasons by first insertion and breaks ranking ties.
	order     []string
	counts    map[string]int
	processed map[string]struct{}
	// processedOrder keeps snapshots reproducible.
	processedOrder []string
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for persistence warnings.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates an empty store. A nil persister keeps state in memory only.
func New(persister Persister, opts ...Option) *Store {
	s := &Store{
		persister: persister,
		logger:    logger.Discard(),
		counts:    map[string]int{},
		processed: map[string]struct{}{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the current state with the persisted snapshot.
// An absent or empty snapshot yields an empty store.
func (s *Store) Load(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	snap, err := s.persister.Load(ctx)
	if err != nil {
		return fmt.Errorf("load tally snapshot: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restoreLocked(snap)
	if total := s.totalLocked(); total != len(s.processedOrder) {
		s.logger.Warn("tally snapshot inconsistent",
			slog.Int("counts_total", total),
			slog.Int("processed", len(s.processedOrder)))
	}
	return nil
}

// Add records messageID and increments the count for reason. An already
// recorded messageID is a no-op and reports false, including one the backend
// already holds. The new state is persisted before it becomes visible; on a
// persistence error nothing changes.
func (s *Store) Add(ctx context.Context, reason, messageID string) (bool, error) {
	if strings.TrimSpace(reason) == "" {
		return false, ErrEmptyReason
	}
	if messageID == "" {
		return false, ErrEmptyMessageID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.processed[messageID]; ok {
		return false, nil
	}

	isNew := s.counts[reason] == 0
	s.processed[messageID] = struct{}{}
	s.processedOrder = append(s.processedOrder, messageID)
	if isNew {
		s.order = append(s.order, reason)
	}
	s.counts[reason]++

	if err := s.persistAddLocked(ctx, reason, messageID); err != nil {
		delete(s.processed, messageID)
		s.processedOrder = s.processedOrder[:len(s.processedOrder)-1]
		s.counts[reason]--
		if isNew {
			delete(s.counts, reason)
			s.order = s.order[:len(s.order)-1]
		}
		if errors.Is(err, ErrAlreadyRecorded) {
			// Counted elsewhere; remember the id so it is not retried.
			s.processed[messageID] = struct{}{}
			s.processedOrder = append(s.processedOrder, messageID)
			s.logger.Warn("message already recorded by backend", slog.String("message_id", messageID))
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// persistAddLocked writes one addition, incrementally when the persister
// supports it.
func (s *Store) persistAddLocked(ctx context.Context, reason, messageID string) error {
	if rec, ok := s.persister.(IncrementalPersister); ok {
		if err := rec.Record(ctx, reason, messageID); err != nil {
			return fmt.Errorf("record recall: %w", err)
		}
		return nil
	}
	return s.saveLocked(ctx)
}

// HasMessageBeenProcessed reports whether messageID was recorded by Add.
func (s *Store) HasMessageBeenProcessed(messageID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.processed[messageID]
	return ok
}

// Stats returns every reason ranked by count, highest first. Equal counts keep
// the order in which the reasons were first added.
func (s *Store) Stats() []recall.Entry {
	s.mu.RLock()
	entries := s.entriesLocked()
	s.mu.RUnlock()

	slices.SortStableFunc(entries, func(a, b recall.Entry) int {
		return b.Count - a.Count
	})
	return entries
}

// TotalRecalls returns the sum of all counts.
func (s *Store) TotalRecalls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalLocked()
}

func (s *Store) totalLocked() int {
	total := 0
	for _, count := range s.counts {
		total += count
	}
	return total
}

// Clear drops all counts and processed message ids.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.persister != nil {
		if err := s.persister.Save(ctx, Snapshot{}); err != nil {
			return fmt.Errorf("save tally snapshot: %w", err)
		}
	}
	s.order = nil
	s.counts = map[string]int{}
	s.processed = map[string]struct{}{}
	s.processedOrder = nil
	return nil
}

// Snapshot returns a copy of the current state in insertion order.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) saveLocked(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	if err := s.persister.Save(ctx, s.snapshotLocked()); err != nil {
		return fmt.Errorf("save tally snapshot: %w", err)
	}
	return nil
}

func (s *Store) entriesLocked() []recall.Entry {
	entries := make([]recall.Entry, 0, len(s.order))
	for _, reason := range s.order {
		entries = append(entries, recall.Entry{Reason: reason, Count: s.counts[reason]})
	}
	return entries
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Reasons:             s.entriesLocked(),
		ProcessedMessageIDs: slices.Clone(s.processedOrder),
	}
}

func (s *Store) restoreLocked(snap Snapshot) {
	s.order = nil
	s.counts = map[string]int{}
	s.processed = map[string]struct{}{}
	s.processedOrder = nil

	for _, entry := range snap.Reasons {
		if strings.TrimSpace(entry.Reason) == "" || entry.Count <= 0 {
			continue
		}
		if _, ok := s.counts[entry.Reason]; !ok {
			s.order = append(s.order, entry.Reason)
		}
		s.counts[entry.Reason] += entry.Count
	}
	for _, id := range snap.ProcessedMessageIDs {
		if id == "" {
			continue
		}
		if _, ok := s.processed[id]; ok {
			continue
		}
		s.processed[id] = struct{}{}
		s.processedOrder = append(s.processedOrder, id)
	}
}
