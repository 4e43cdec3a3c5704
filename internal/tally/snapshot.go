package tally

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"

	"github.com/memohai/recallbot/internal/recall"
)

// Snapshot is the persisted form of a Store. Reasons are kept in first
// insertion order so ranking ties survive a restore.
type Snapshot struct {
	Reasons             []recall.Entry `json:"reasons"`
	ProcessedMessageIDs []string       `json:"processed_message_ids"`
}

// IsEmpty reports whether the snapshot holds no reasons and no message ids.
func (s Snapshot) IsEmpty() bool {
	return len(s.Reasons) == 0 && len(s.ProcessedMessageIDs) == 0
}

// Persister loads and saves whole snapshots. Save is called while the store
// holds its write lock, so implementations see saves one at a time.
type Persister interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
}

// ErrAlreadyRecorded is returned by Record when the backend has already
// counted the message id, e.g. after another process recorded it.
var ErrAlreadyRecorded = errors.New("message already recorded")

// IncrementalPersister records a single added recall without rewriting the
// whole snapshot. Record must be atomic: either the message id is stored and
// the reason count incremented, or nothing changes.
type IncrementalPersister interface {
	Persister
	Record(ctx context.Context, reason, messageID string) error
}

// MemoryPersister keeps the last saved snapshot in process memory.
type MemoryPersister struct {
	mu   sync.Mutex
	snap Snapshot
}

// NewMemoryPersister creates a persister pre-seeded with snap.
func NewMemoryPersister(snap Snapshot) *MemoryPersister {
	return &MemoryPersister{snap: cloneSnapshot(snap)}
}

func (p *MemoryPersister) Load(_ context.Context) (Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return cloneSnapshot(p.snap), nil
}

func (p *MemoryPersister) Save(_ context.Context, snap Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snap = cloneSnapshot(snap)
	return nil
}

func cloneSnapshot(snap Snapshot) Snapshot {
	return Snapshot{
		Reasons:             slices.Clone(snap.Reasons),
		ProcessedMessageIDs: slices.Clone(snap.ProcessedMessageIDs),
	}
}

// snapshotFromCounts orders a bare reason->count map by reason, since the map
// carries no insertion order.
func snapshotFromCounts(counts map[string]int, ids []string) Snapshot {
	reasons := make([]string, 0, len(counts))
	for reason := range counts {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	snap := Snapshot{ProcessedMessageIDs: ids}
	for _, reason := range reasons {
		snap.Reasons = append(snap.Reasons, recall.Entry{Reason: reason, Count: counts[reason]})
	}
	return snap
}
