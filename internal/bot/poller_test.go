package bot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/snowpost/snowpost/internal/telegram"
)

type scriptedSource struct {
	mu      sync.Mutex
	batches [][]telegram.Update
	errs    []error
	offsets []int64
	cancel  context.CancelFunc // fired when the script runs out
}

func (s *scriptedSource) GetUpdates(ctx context.Context, offset int64, _ int) ([]telegram.Update, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.offsets = append(s.offsets, offset)

	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return nil, err
		}
	}

	if len(s.batches) == 0 {
		s.cancel()
		return nil, ctx.Err()
	}
	batch := s.batches[0]
	s.batches = s.batches[1:]
	return batch, nil
}

func TestPoller_AdvancesOffsetAndDispatches(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := &scriptedSource{
		batches: [][]telegram.Update{
			{
				{UpdateID: 10, Message: upd(1, "a").Message},
				{UpdateID: 11, Message: upd(1, "b").Message},
			},
			{
				{UpdateID: 12, Message: upd(2, "c").Message},
			},
		},
		cancel: cancel,
	}

	h := newRecordingHandler()
	p := NewPoller(src, NewDispatcher(h), 1)

	done := make(chan struct{})
	go func() {
		_ = p.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("poller did not stop")
	}

	assert.Equal(t, []string{"a", "b"}, h.recorded(1))
	assert.Equal(t, []string{"c"}, h.recorded(2))
	// First poll from zero, then past each seen batch.
	assert.Equal(t, []int64{0, 12, 13}, src.offsets)
}

func TestPoller_RetriesAfterTransportError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := &scriptedSource{
		errs: []error{errors.New("gateway timeout")},
		batches: [][]telegram.Update{
			{{UpdateID: 1, Message: upd(1, "after retry").Message}},
		},
		cancel: cancel,
	}

	h := newRecordingHandler()
	p := NewPoller(src, NewDispatcher(h), 1)
	p.retryDelay = time.Millisecond

	done := make(chan struct{})
	go func() {
		_ = p.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("poller did not stop")
	}

	assert.Equal(t, []string{"after retry"}, h.recorded(1))
}
