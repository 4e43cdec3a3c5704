package tracker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memohai/recallbot/internal/logger"
	"github.com/memohai/recallbot/internal/recall"
	"github.com/memohai/recallbot/internal/tally"
)

func newTracker() (*Tracker, *tally.Store) {
	store := tally.New(nil)
	return New(logger.Discard(), store), store
}

func TestProcessRecordsNormalizedReason(t *testing.T) {
	t.Parallel()
	tr, store := newTracker()

	res, err := tr.Process(context.Background(), Message{ID: "1", Text: "Smoked salmon recalled due to listeria MONOCYTOGENES"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeRecorded, res.Outcome)
	assert.Equal(t, "Listeria Monocytogenes", res.Reason)
	assert.Equal(t, "Top recall reasons:\n1. Listeria Monocytogenes (1)", res.Report)
	assert.True(t, store.HasMessageBeenProcessed("1"))
}

func TestProcessIgnoresOrdinaryMessages(t *testing.T) {
	t.Parallel()
	tr, store := newTracker()

	res, err := tr.Process(context.Background(), Message{ID: "1", Text: "lunch?"})
	require.NoError(t, err)
	assert.Equal(t, Result{Outcome: OutcomeIgnored}, res)
	assert.False(t, store.HasMessageBeenProcessed("1"))
}

func TestProcessInvalidIsNotMarkedProcessed(t *testing.T) {
	t.Parallel()
	tr, store := newTracker()
	ctx := context.Background()

	res, err := tr.Process(ctx, Message{ID: "1", Text: "Bread recalled due to   "})
	require.NoError(t, err)
	assert.Equal(t, OutcomeInvalid, res.Outcome)
	assert.Empty(t, res.Report)
	assert.False(t, store.HasMessageBeenProcessed("1"))

	// An edited message with the same id still counts.
	res, err = tr.Process(ctx, Message{ID: "1", Text: "Bread recalled due to glass"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeRecorded, res.Outcome)
}

func TestProcessDuplicateProducesNoReport(t *testing.T) {
	t.Parallel()
	tr, store := newTracker()
	ctx := context.Background()
	msg := Message{ID: "1", Text: "Tuna recalled due to histamine"}

	_, err := tr.Process(ctx, msg)
	require.NoError(t, err)
	res, err := tr.Process(ctx, msg)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, res.Outcome)
	assert.Empty(t, res.Report)
	assert.Equal(t, 1, store.TotalRecalls())
}

func TestProcessRejectsEmptyID(t *testing.T) {
	t.Parallel()
	tr, _ := newTracker()
	_, err := tr.Process(context.Background(), Message{Text: "Tuna recalled due to histamine"})
	assert.ErrorIs(t, err, tally.ErrEmptyMessageID)
}

type brokenPersister struct{}

func (brokenPersister) Load(context.Context) (tally.Snapshot, error) { return tally.Snapshot{}, nil }
func (brokenPersister) Save(context.Context, tally.Snapshot) error   { return errors.New("read-only") }

func TestProcessStoreFailureDoesNotAffectLaterMessages(t *testing.T) {
	t.Parallel()
	tr := New(logger.Discard(), tally.New(brokenPersister{}))
	ctx := context.Background()

	_, err := tr.Process(ctx, Message{ID: "1", Text: "Tuna recalled due to histamine"})
	require.Error(t, err)

	res, err := tr.Process(ctx, Message{ID: "2", Text: "nothing here"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, res.Outcome)
}

func TestBackfill(t *testing.T) {
	t.Parallel()
	tr, _ := newTracker()

	res, err := tr.Backfill(context.Background(), []Message{
		{ID: "1", Text: "Tuna recalled due to histamine"},
		{ID: "2", Text: "Cheese recalled due to listeria"},
		{ID: "3", Text: "hello"},
		{ID: "4", Text: "Mackerel recalled due to HISTAMINE"},
		{ID: "1", Text: "Tuna recalled due to histamine"},
		{ID: "5", Text: "Milk recalled due to"},
	})
	require.NoError(t, err)
	assert.Equal(t, BackfillResult{
		Scanned:   6,
		Recorded:  3,
		Duplicate: 1,
		Invalid:   1,
		Report:    "Top recall reasons:\n1. Histamine (2)\n2. Listeria (1)",
	}, res)
}

func TestBackfillHonoursCancellation(t *testing.T) {
	t.Parallel()
	tr, store := newTracker()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tr.Backfill(ctx, []Message{{ID: "1", Text: "Tuna recalled due to histamine"}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, store.TotalRecalls())
}

func TestClearAndReport(t *testing.T) {
	t.Parallel()
	tr, _ := newTracker()
	ctx := context.Background()
	_, err := tr.Process(ctx, Message{ID: "1", Text: "Tuna recalled due to histamine"})
	require.NoError(t, err)
	assert.Equal(t, []recall.Entry{{Reason: "Histamine", Count: 1}}, tr.Stats())
	assert.Equal(t, 1, tr.Total())

	require.NoError(t, tr.Clear(ctx))
	assert.Equal(t, "Top recall reasons:\nNo recalls recorded yet.", tr.Report())
	assert.Zero(t, tr.Total())
}
