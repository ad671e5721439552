package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ProcessingEvent represents one step in the life of a processed script
type ProcessingEvent struct {
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	RequestID      string                 `json:"request_id"`
	Source         string                 `json:"source"`
	ProcessingTime time.Duration          `json:"processing_time"`
	Success        bool                   `json:"success"`
	Degraded       bool                   `json:"degraded,omitempty"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of processing event
type EventType string

const (
	// ProcessingStarted when a file is accepted
	ProcessingStarted EventType = "processing_started"
	// ProcessingCompleted when a record was produced
	ProcessingCompleted EventType = "processing_completed"
	// ProcessingFailed when processing stopped with an error
	ProcessingFailed EventType = "processing_failed"
	// UploadFailed when the archive copy could not be stored; processing still succeeds
	UploadFailed EventType = "upload_failed"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event ProcessingEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event ProcessingEvent)
}

// LoggingObserver logs processing events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles processing events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event ProcessingEvent) {
	fields := logrus.Fields{
		"event_type": event.EventType,
		"request_id": event.RequestID,
		"source":     event.Source,
	}
	if event.EventType != ProcessingStarted {
		fields["processing_time"] = event.ProcessingTime.String()
		fields["success"] = event.Success
	}
	if event.Degraded {
		fields["degraded"] = true
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	switch event.EventType {
	case ProcessingStarted:
		o.logger.WithFields(fields).Info("Processing started")
	case ProcessingCompleted:
		o.logger.WithFields(fields).Info("Processing completed")
	case ProcessingFailed:
		o.logger.WithFields(fields).Error("Processing failed")
	case UploadFailed:
		o.logger.WithFields(fields).Warn("Archive upload failed")
	default:
		o.logger.WithFields(fields).Info("Processing event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsObserver collects counters from processing events
type MetricsObserver struct {
	mu                  sync.RWMutex
	total               int64
	successful          int64
	failed              int64
	degraded            int64
	uploadFailures      int64
	totalProcessingTime time.Duration
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{}
}

// OnEvent handles processing events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event ProcessingEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case ProcessingStarted:
		o.total++
	case ProcessingCompleted:
		o.successful++
		o.totalProcessingTime += event.ProcessingTime
		if event.Degraded {
			o.degraded++
		}
	case ProcessingFailed:
		o.failed++
	case UploadFailed:
		o.uploadFailures++
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// Stats is a snapshot of the counters
type Stats struct {
	Total               int64   `json:"total_processed"`
	Successful          int64   `json:"successful"`
	Failed              int64   `json:"failed"`
	Degraded            int64   `json:"degraded"`
	UploadFailures      int64   `json:"upload_failures"`
	AvgProcessingTimeMS float64 `json:"avg_processing_time_ms"`
}

// GetStats returns current metrics
func (o *MetricsObserver) GetStats() Stats {
	o.mu.RLock()
	defer o.mu.RUnlock()

	var avg time.Duration
	if o.successful > 0 {
		avg = o.totalProcessingTime / time.Duration(o.successful)
	}

	return Stats{
		Total:               o.total,
		Successful:          o.successful,
		Failed:              o.failed,
		Degraded:            o.degraded,
		UploadFailures:      o.uploadFailures,
		AvgProcessingTimeMS: float64(avg) / float64(time.Millisecond),
	}
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers delivers event to every observer in subscription order, so counters are
// current once Process returns
func (p *EventPublisher) NotifyObservers(ctx context.Context, event ProcessingEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, observer := range observers {
		notify(ctx, observer, event)
	}
}

func notify(ctx context.Context, obs Observer, event ProcessingEvent) {
	defer func() {
		if r := recover(); r != nil {
			// Log panic but don't crash the application
			logrus.WithField("observer", obs.GetObserverName()).
				WithField("panic", r).
				Error("Observer panicked while handling event")
		}
	}()
	obs.OnEvent(ctx, event)
}
