// Package tracker runs the recall pipeline: classify, extract, normalize,
// tally and render.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/memohai/recallbot/internal/recall"
	"github.com/memohai/recallbot/internal/tally"
)

// Outcome describes what happened to one message.
type Outcome string

const (
	// OutcomeIgnored: the message is not a recall announcement.
	OutcomeIgnored Outcome = "ignored"
	// OutcomeInvalid: the trigger phrase is present but no reason follows it.
	// The message id is not marked as processed.
	OutcomeInvalid Outcome = "invalid"
	// OutcomeDuplicate: the message id was already counted.
	OutcomeDuplicate Outcome = "duplicate"
	// OutcomeRecorded: the reason was counted and a report rendered.
	OutcomeRecorded Outcome = "recorded"
)

// Message is the text of one chat message and its unique id.
type Message struct {
	ID   string
	Text string
}

// Result is the outcome of processing one message. Report is only set for
// OutcomeRecorded.
type Result struct {
	Outcome Outcome
	Reason  string
	Report  string
}

// BackfillResult summarizes a batch run.
type BackfillResult struct {
	Scanned   int
	Recorded  int
	Duplicate int
	Invalid   int
	Report    string
}

// Tracker owns no state of its own; the tally store is shared with whoever
// else reports on it.
type Tracker struct {
	store  *tally.Store
	logger *slog.Logger
}

func New(log *slog.Logger, store *tally.Store) *Tracker {
	if log == nil {
		log = slog.Default()
	}
	return &Tracker{
		store:  store,
		logger: log.With(slog.String("component", "tracker")),
	}
}

// Process runs one message through the pipeline. An error is only returned
// when the store could not record the reason; extraction problems are
// reported through OutcomeInvalid.
func (t *Tracker) Process(ctx context.Context, msg Message) (Result, error) {
	if !recall.IsRecallMessage(msg.Text) {
		return Result{Outcome: OutcomeIgnored}, nil
	}
	raw, err := recall.ParseRecallReason(msg.Text)
	if err != nil {
		if errors.Is(err, recall.ErrNoRecallReasonFound) {
			t.logger.Debug("recall without reason", slog.String("message_id", msg.ID))
			return Result{Outcome: OutcomeInvalid}, nil
		}
		return Result{}, err
	}
	reason := recall.ToTitleCase(raw)

	added, err := t.store.Add(ctx, reason, msg.ID)
	if err != nil {
		return Result{Reason: reason}, fmt.Errorf("record %q: %w", reason, err)
	}
	if !added {
		return Result{Outcome: OutcomeDuplicate, Reason: reason}, nil
	}
	t.logger.Info("recall recorded", slog.String("message_id", msg.ID), slog.String("reason", reason))
	return Result{Outcome: OutcomeRecorded, Reason: reason, Report: t.Report()}, nil
}

// Backfill processes messages in the given order, oldest first, and renders a
// single report at the end. A store error stops the batch.
func (t *Tracker) Backfill(ctx context.Context, msgs []Message) (BackfillResult, error) {
	var res BackfillResult
	for _, msg := range msgs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		r, err := t.Process(ctx, msg)
		if err != nil {
			return res, err
		}
		res.Scanned++
		switch r.Outcome {
		case OutcomeRecorded:
			res.Recorded++
		case OutcomeDuplicate:
			res.Duplicate++
		case OutcomeInvalid:
			res.Invalid++
		}
	}
	res.Report = t.Report()
	t.logger.Info("backfill complete",
		slog.Int("scanned", res.Scanned),
		slog.Int("recorded", res.Recorded),
		slog.Int("duplicate", res.Duplicate),
		slog.Int("invalid", res.Invalid),
	)
	return res, nil
}

// Report renders the current ranking.
func (t *Tracker) Report() string {
	return recall.FormatStats(t.store.Stats())
}

// Stats returns the current ranking.
func (t *Tracker) Stats() []recall.Entry {
	return t.store.Stats()
}

// Total returns the number of counted announcements.
func (t *Tracker) Total() int {
	return t.store.TotalRecalls()
}

// Clear resets the tally.
func (t *Tracker) Clear(ctx context.Context) error {
	if err := t.store.Clear(ctx); err != nil {
		return err
	}
	t.logger.Info("tally cleared")
	return nil
}
