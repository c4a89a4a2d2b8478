package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/collecta-cloud/collecta/internal/domain"
)

type fakeStore struct {
	pending    []domain.OutboxEvent
	claimErr   error
	markErr    error
	claimCalls int
	marked     []int64
}

func (f *fakeStore) ClaimPending(_ context.Context, batchSize int) ([]domain.OutboxEvent, error) {
	f.claimCalls++
	if f.claimErr != nil {
		return nil, f.claimErr
	}
	if len(f.pending) <= batchSize {
		out := f.pending
		f.pending = nil
		return out, nil
	}
	out := f.pending[:batchSize]
	f.pending = f.pending[batchSize:]
	return out, nil
}

func (f *fakeStore) MarkPublished(_ context.Context, id int64) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.marked = append(f.marked, id)
	return nil
}

type fakeStream struct {
	appended []int64
	failIDs  map[int64]bool
	calls    int
}

func (f *fakeStream) AppendEvent(_ context.Context, _ string, eventID int64, _ string, _ []byte) error {
	f.calls++
	if f.failIDs[eventID] {
		return errors.New("stream unavailable")
	}
	f.appended = append(f.appended, eventID)
	return nil
}

func events(ids ...int64) []domain.OutboxEvent {
	out := make([]domain.OutboxEvent, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.OutboxEvent{
			ID:        id,
			EventType: domain.EventResourceUpserted,
			Payload:   []byte(`{}`),
			CreatedAt: time.Now(),
		})
	}
	return out
}

func newPublisher(store Store, stream Stream) *Publisher {
	return New(store, stream, zap.NewNop(), "test:stream", 100, time.Second)
}

func TestPublishPendingPublishesAll(t *testing.T) {
	store := &fakeStore{pending: events(1, 2, 3)}
	stream := &fakeStream{}

	n := newPublisher(store, stream).PublishPending(context.Background())

	if n != 3 {
		t.Fatalf("expected 3 published, got %d", n)
	}
	if len(stream.appended) != 3 {
		t.Errorf("expected 3 stream appends, got %d", len(stream.appended))
	}
	for i, id := range []int64{1, 2, 3} {
		if store.marked[i] != id {
			t.Errorf("expected event %d marked in id order, got %d", id, store.marked[i])
		}
	}
}

func TestPublishPendingEmptyBatchSkipsStream(t *testing.T) {
	store := &fakeStore{}
	stream := &fakeStream{}

	n := newPublisher(store, stream).PublishPending(context.Background())

	if n != 0 {
		t.Fatalf("expected 0 published, got %d", n)
	}
	if stream.calls != 0 {
		t.Errorf("expected no stream calls on an empty batch, got %d", stream.calls)
	}
}

func TestPublishPendingAppendFailureLeavesEventUnmarked(t *testing.T) {
	store := &fakeStore{pending: events(1, 2, 3)}
	stream := &fakeStream{failIDs: map[int64]bool{2: true}}

	n := newPublisher(store, stream).PublishPending(context.Background())

	if n != 2 {
		t.Fatalf("expected 2 published, got %d", n)
	}
	for _, id := range store.marked {
		if id == 2 {
			t.Errorf("event 2 must stay unpublished after its append failed")
		}
	}
	if len(store.marked) != 2 {
		t.Errorf("expected events 1 and 3 marked, got %v", store.marked)
	}
}

func TestPublishPendingMarkFailureStillCountsAsUnpublished(t *testing.T) {
	store := &fakeStore{pending: events(1), markErr: errors.New("db gone")}
	stream := &fakeStream{}

	n := newPublisher(store, stream).PublishPending(context.Background())

	// Appended but not marked: the event will be redelivered, so the cycle
	// must not count it as settled.
	if n != 0 {
		t.Fatalf("expected 0 settled, got %d", n)
	}
	if len(stream.appended) != 1 {
		t.Errorf("expected the append to have happened, got %d", len(stream.appended))
	}
}

func TestPublishPendingClaimFailureIsANoop(t *testing.T) {
	store := &fakeStore{claimErr: errors.New("db gone")}
	stream := &fakeStream{}

	n := newPublisher(store, stream).PublishPending(context.Background())

	if n != 0 || stream.calls != 0 {
		t.Fatalf("expected nothing published after claim failure, got n=%d appends=%d", n, stream.calls)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	store := &fakeStore{}
	stream := &fakeStream{}
	p := New(store, stream, zap.NewNop(), "test:stream", 10, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	time.Sleep(25 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publisher did not stop after cancel")
	}
	if store.claimCalls == 0 {
		t.Error("expected at least one poll cycle before cancel")
	}
}
