package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/cutroom/cutroom-media-service/infra/produce"
	"github.com/cutroom/cutroom-media-service/infra/storage"
	"github.com/cutroom/cutroom-media-service/media"
)

// recordingAcknowledger captures the broker-facing calls in order.
type recordingAcknowledger struct {
	events  []string
	requeue bool
}

func (a *recordingAcknowledger) Ack(tag uint64, multiple bool) error {
	a.events = append(a.events, "ack")
	return nil
}

func (a *recordingAcknowledger) Nack(tag uint64, multiple bool, requeue bool) error {
	a.events = append(a.events, "nack")
	a.requeue = requeue
	return nil
}

func (a *recordingAcknowledger) Reject(tag uint64, requeue bool) error {
	a.events = append(a.events, "reject")
	return nil
}

func TestRedeliverPublishesBeforeAck(t *testing.T) {
	acker := &recordingAcknowledger{}
	msg := amqp.Delivery{Acknowledger: acker, DeliveryTag: 1}

	var published []produce.ThumbnailJobMessage
	publish := func(ctx context.Context, m produce.ThumbnailJobMessage) error {
		acker.events = append(acker.events, "publish")
		published = append(published, m)
		return nil
	}

	next := produce.ThumbnailJobMessage{JobID: "j", Attempt: 2}
	if err := redeliver(context.Background(), time.Millisecond, msg, next, publish); err != nil {
		t.Fatalf("redeliver returned error: %v", err)
	}

	if len(acker.events) != 2 || acker.events[0] != "publish" || acker.events[1] != "ack" {
		t.Fatalf("expected publish then ack, got %v", acker.events)
	}
	if len(published) != 1 || published[0].Attempt != 2 {
		t.Fatalf("unexpected published messages: %+v", published)
	}
}

func TestRedeliverPublishFailureReturnsDeliveryToBroker(t *testing.T) {
	acker := &recordingAcknowledger{}
	msg := amqp.Delivery{Acknowledger: acker, DeliveryTag: 1}

	publish := func(ctx context.Context, m produce.ThumbnailJobMessage) error {
		return errors.New("channel closed")
	}

	err := redeliver(context.Background(), time.Millisecond, msg, produce.ThumbnailJobMessage{}, publish)
	if err == nil {
		t.Fatal("expected the publish error to surface")
	}
	if len(acker.events) != 1 || acker.events[0] != "nack" {
		t.Fatalf("expected a single nack, got %v", acker.events)
	}
	if !acker.requeue {
		t.Fatal("failed retry must be nacked with requeue")
	}
}

func TestRedeliverCancelledDuringBackoff(t *testing.T) {
	acker := &recordingAcknowledger{}
	msg := amqp.Delivery{Acknowledger: acker, DeliveryTag: 1}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	publishCalled := false
	publish := func(ctx context.Context, m produce.ThumbnailJobMessage) error {
		publishCalled = true
		return nil
	}

	err := redeliver(ctx, time.Hour, msg, produce.ThumbnailJobMessage{}, publish)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if publishCalled {
		t.Fatal("cancelled redeliver must not publish")
	}
	if len(acker.events) != 1 || acker.events[0] != "nack" || !acker.requeue {
		t.Fatalf("cancelled redeliver must nack with requeue, got %v", acker.events)
	}
}

func TestVideoSeekWithoutProbeUsesDefault(t *testing.T) {
	seek, duration, resolution := videoSeek(nil, nil, 10)
	if seek != 3 {
		t.Fatalf("unknown duration: got seek %v, want 3", seek)
	}
	if duration != nil || resolution != nil {
		t.Fatal("unknown probe must not backfill metadata")
	}
}

func TestVideoSeekBackfillsMetadata(t *testing.T) {
	probed := &media.ProbeResult{DurationSeconds: 120, Width: 1920, Height: 1080}

	seek, duration, resolution := videoSeek(probed, nil, 10)
	if seek != 10 {
		t.Fatalf("120s file: got seek %v, want maxSeek 10", seek)
	}
	if duration == nil || *duration != 120 {
		t.Fatalf("got duration %v, want 120", duration)
	}
	if resolution == nil || *resolution != "1920x1080" {
		t.Fatalf("got resolution %v, want 1920x1080", resolution)
	}
}

func TestVideoSeekHonorsHint(t *testing.T) {
	hint := 42.0
	seek, _, _ := videoSeek(&media.ProbeResult{DurationSeconds: 120}, &hint, 10)
	if seek != 42 {
		t.Fatalf("got seek %v, want the hint 42", seek)
	}
}

func TestThumbnailResultCarriesProbeMetadata(t *testing.T) {
	put := storage.PutResult{Key: "t/p/a/thumb.jpg", URL: "http://localhost:8080/media/t/p/a/thumb.jpg"}
	probed := &media.ProbeResult{DurationSeconds: 87.5, Width: 1280, Height: 720}

	result := thumbnailResult(put, probed)
	if result.Key != put.Key || result.URL != put.URL {
		t.Fatalf("result must carry the stored object: %+v", result)
	}
	if result.Duration != 87.5 || result.Width != 1280 || result.Height != 720 {
		t.Fatalf("result must carry the probed metadata: %+v", result)
	}
}

func TestThumbnailResultWithoutProbe(t *testing.T) {
	put := storage.PutResult{Key: "t/p/a/thumb.jpg", URL: "http://localhost:8080/media/t/p/a/thumb.jpg"}

	result := thumbnailResult(put, nil)
	if result.Key != put.Key {
		t.Fatalf("unexpected key: %s", result.Key)
	}
	if result.Duration != 0 || result.Width != 0 || result.Height != 0 {
		t.Fatalf("image thumbnails carry no probe metadata: %+v", result)
	}
}
