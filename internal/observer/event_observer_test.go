package observer

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

type panickingObserver struct{}

func (panickingObserver) OnEvent(ctx context.Context, event ProcessingEvent) {
	panic("boom")
}

func (panickingObserver) GetObserverName() string { return "panicking" }

func TestMetricsObserver_Counts(t *testing.T) {
	metrics := NewMetricsObserver()
	pub := NewEventPublisher()
	pub.Subscribe(metrics)

	ctx := context.Background()
	pub.NotifyObservers(ctx, ProcessingEvent{EventType: ProcessingStarted})
	pub.NotifyObservers(ctx, ProcessingEvent{EventType: ProcessingCompleted, ProcessingTime: 200 * time.Millisecond})
	pub.NotifyObservers(ctx, ProcessingEvent{EventType: ProcessingStarted})
	pub.NotifyObservers(ctx, ProcessingEvent{EventType: ProcessingCompleted, ProcessingTime: 400 * time.Millisecond, Degraded: true})
	pub.NotifyObservers(ctx, ProcessingEvent{EventType: ProcessingStarted})
	pub.NotifyObservers(ctx, ProcessingEvent{EventType: ProcessingFailed})
	pub.NotifyObservers(ctx, ProcessingEvent{EventType: UploadFailed})

	assert.Equal(t, Stats{
		Total:               3,
		Successful:          2,
		Failed:              1,
		Degraded:            1,
		UploadFailures:      1,
		AvgProcessingTimeMS: 300,
	}, metrics.GetStats())
}

func TestEventPublisher_SurvivesPanickingObserver(t *testing.T) {
	metrics := NewMetricsObserver()
	pub := NewEventPublisher()
	pub.Subscribe(panickingObserver{})
	pub.Subscribe(metrics)

	pub.NotifyObservers(context.Background(), ProcessingEvent{EventType: ProcessingStarted})

	assert.Equal(t, int64(1), metrics.GetStats().Total)
}

func TestEventPublisher_Unsubscribe(t *testing.T) {
	metrics := NewMetricsObserver()
	pub := NewEventPublisher()
	pub.Subscribe(metrics)
	pub.Unsubscribe(metrics)

	pub.NotifyObservers(context.Background(), ProcessingEvent{EventType: ProcessingStarted})

	assert.Equal(t, int64(0), metrics.GetStats().Total)
}

func TestLoggingObserver(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetFormatter(&logrus.JSONFormatter{})

	obs := NewLoggingObserver(log)
	obs.OnEvent(context.Background(), ProcessingEvent{
		EventType:    ProcessingFailed,
		RequestID:    "req-1",
		Source:       "a.pdf",
		ErrorMessage: "unreadable",
	})

	out := buf.String()
	assert.Contains(t, out, `"request_id":"req-1"`)
	assert.Contains(t, out, `"error":"unreadable"`)
	assert.Contains(t, out, `"level":"error"`)
	assert.Contains(t, out, "Processing failed")
}
