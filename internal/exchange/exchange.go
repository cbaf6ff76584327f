// Package exchange implements the distribution run: pair every stored
// letter with a recipient other than its author and deliver the text
// anonymously, best-effort per pair.
//
// The run is a standalone batch over a snapshot of the store. It has no
// state machine beyond computing and done, never mutates the store, and
// always completes with a summary even if every delivery fails.
package exchange

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/snowpost/snowpost/internal/metrics"
	"github.com/snowpost/snowpost/internal/store"
)

// ErrUnsatisfiable is returned when exactly one letter exists: there is no
// assignment that avoids self-pairing, and no delivery is attempted.
var ErrUnsatisfiable = errors.New("exchange: a single letter cannot be assigned to anyone else")

// Lister is the slice of the store the engine reads.
type Lister interface {
	ListAll(ctx context.Context) ([]store.Letter, error)
}

// Deliverer sends one letter text to a recipient's private channel.
type Deliverer interface {
	SendMessage(ctx context.Context, chatID int64, text string, markup any) error
}

// Failure records one recipient the run could not deliver to.
type Failure struct {
	RecipientID int64  `json:"recipient_id"`
	Reason      string `json:"reason"`
}

// Report summarizes one distribution run.
type Report struct {
	RunID     string    `json:"run_id"`
	Letters   int       `json:"letters"`
	Attempted int       `json:"attempted"`
	Delivered int       `json:"delivered"`
	Failed    int       `json:"failed"`
	Failures  []Failure `json:"failures,omitempty"`
}

// Engine computes the assignment and performs the fan-out.
type Engine struct {
	letters   Lister
	deliverer Deliverer
	rng       *rand.Rand
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand injects a seeded source for deterministic tests.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) {
		e.rng = rng
	}
}

// New creates a distribution engine over the given store snapshot reader
// and transport.
func New(letters Lister, deliverer Deliverer, opts ...Option) *Engine {
	e := &Engine{
		letters:   letters,
		deliverer: deliverer,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes one distribution pass over the current snapshot.
//
// Every participant with a letter is both a sender and exactly one
// recipient, and nobody receives their own letter. Delivery is independent
// per pair: a failure is counted and logged, never propagated to the other
// pairs. The returned Report is valid even when err is non-nil.
func (e *Engine) Run(ctx context.Context) (Report, error) {
	report := Report{RunID: uuid.NewString()}

	letters, err := e.letters.ListAll(ctx)
	if err != nil {
		return report, fmt.Errorf("load letters: %w", err)
	}
	report.Letters = len(letters)

	slog.Info("distribution run starting", "run", report.RunID, "letters", report.Letters)

	switch len(letters) {
	case 0:
		slog.Info("distribution run done: nothing to distribute", "run", report.RunID)
		return report, nil
	case 1:
		slog.Warn("distribution run unsatisfiable: only one letter", "run", report.RunID)
		return report, ErrUnsatisfiable
	}

	assignment := derangement(e.rng, len(letters))

	for i, sender := range letters {
		recipient := letters[assignment[i]]
		report.Attempted++

		// Anonymous by construction: only the letter text is sent, never the
		// sender's identity.
		err := e.deliverer.SendMessage(ctx, recipient.ParticipantID, sender.Text, nil)
		if err != nil {
			report.Failed++
			report.Failures = append(report.Failures, Failure{
				RecipientID: recipient.ParticipantID,
				Reason:      err.Error(),
			})
			metrics.DeliveriesFailed.Inc()
			slog.Warn("delivery failed",
				"run", report.RunID,
				"recipient", recipient.ParticipantID,
				"error", err,
			)
			continue
		}

		report.Delivered++
		metrics.DeliveriesOK.Inc()
		slog.Debug("delivered",
			"run", report.RunID,
			"recipient", recipient.ParticipantID,
		)
	}

	slog.Info("distribution run done",
		"run", report.RunID,
		"attempted", report.Attempted,
		"delivered", report.Delivered,
		"failed", report.Failed,
	)

	return report, nil
}
