package outbox

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/segmentio/kafka-go"
)

type fakeTx struct{ committed bool }

func (f *fakeTx) InTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	if err := fn(nil); err != nil {
		return err
	}
	f.committed = true
	return nil
}

type fakeStore struct {
	records []Record
	marked  []int64
}

func (s *fakeStore) FetchUnpublished(ctx context.Context, tx pgx.Tx, limit int) ([]Record, error) {
	if len(s.records) > limit {
		return s.records[:limit], nil
	}
	return s.records, nil
}

func (s *fakeStore) MarkPublished(ctx context.Context, tx pgx.Tx, ids []int64) error {
	s.marked = append(s.marked, ids...)
	return nil
}

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublishBatch(t *testing.T) {
	store := &fakeStore{records: []Record{
		{ID: 1, EventID: "e1", AggregateType: AggregateBooking, AggregateID: "b1", EventType: TypeBookingCreated, Payload: []byte(`{}`)},
		{ID: 2, EventID: "e2", AggregateType: AggregateBooking, AggregateID: "b1", EventType: TypeBookingStatusChanged, Payload: []byte(`{}`)},
		{ID: 3, EventID: "e3", AggregateType: AggregateBooking, AggregateID: "b2", EventType: TypeBookingCreated, Payload: []byte(`{}`)},
	}}
	writer := &fakeWriter{}
	db := &fakeTx{}
	p := NewPublisher(db, store, writer, discardLogger(), PublisherConfig{BatchSize: 2})

	n, err := p.PublishBatch(context.Background())
	if err != nil {
		t.Fatalf("PublishBatch: %v", err)
	}
	if n != 2 || len(writer.msgs) != 2 {
		t.Fatalf("expected 2 messages, got n=%d msgs=%d", n, len(writer.msgs))
	}
	if writer.msgs[0].Topic != TypeBookingCreated || string(writer.msgs[0].Key) != "b1" {
		t.Fatalf("unexpected message %+v", writer.msgs[0])
	}
	if len(store.marked) != 2 || store.marked[0] != 1 || store.marked[1] != 2 {
		t.Fatalf("unexpected marked ids %v", store.marked)
	}
	if !db.committed {
		t.Fatal("expected commit")
	}
}

func TestPublishBatchLeavesRowsOnKafkaError(t *testing.T) {
	store := &fakeStore{records: []Record{{ID: 9, EventType: TypeBookingCreated}}}
	writer := &fakeWriter{err: errors.New("leader not available")}
	db := &fakeTx{}
	p := NewPublisher(db, store, writer, discardLogger(), PublisherConfig{})

	if _, err := p.PublishBatch(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if len(store.marked) != 0 || db.committed {
		t.Fatal("rows must stay unpublished when kafka rejects the batch")
	}
}
