package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/firms-wildfire-service/internal/config"
	"github.com/couchcryptid/firms-wildfire-service/internal/domain"
)

const (
	maxPublishAttempts = 3
	initialBackoff     = 200 * time.Millisecond
	maxBackoff         = 2 * time.Second
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes fire detections to a Kafka topic, one message per detection.
// It implements pipeline.DetectionPublisher.
type Writer struct {
	writer  messageWriter
	topic   string
	logger  *slog.Logger
	backoff time.Duration
}

// NewWriter creates a Kafka producer for the configured detections topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaDetectionsTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, topic: cfg.KafkaDetectionsTopic, logger: logger, backoff: initialBackoff}
}

// PublishDetections writes a snapshot of detections in a single batch. The
// batch is retried with exponential backoff until the context ends or the
// attempts run out.
func (w *Writer) PublishDetections(ctx context.Context, dataset domain.Dataset, detections []domain.FireDetection) error {
	if len(detections) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(detections))
	for i := range detections {
		msg, err := serializeToMessage(dataset, detections[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}

	backoff := w.backoff
	var err error
	for attempt := 1; attempt <= maxPublishAttempts; attempt++ {
		if err = w.writer.WriteMessages(ctx, msgs...); err == nil {
			return nil
		}
		if attempt == maxPublishAttempts {
			break
		}
		w.logger.Warn("kafka write failed, retrying",
			"topic", w.topic,
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)
		if !retry.SleepWithContext(ctx, backoff) {
			return fmt.Errorf("publish detections: %w", ctx.Err())
		}
		backoff = retry.NextBackoff(backoff, maxBackoff)
	}
	return fmt.Errorf("publish %d detections after %d attempts: %w", len(msgs), maxPublishAttempts, err)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a FireDetection into a Kafka message keyed by
// detection ID.
func serializeToMessage(dataset domain.Dataset, d domain.FireDetection) (kafkago.Message, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize fire detection: %w", err)
	}
	headers := []kafkago.Header{
		{Key: "dataset", Value: []byte(dataset)},
		{Key: "brightness_category", Value: []byte(d.BrightnessCategory)},
		{Key: "predictable", Value: []byte(strconv.FormatBool(d.Predictable))},
	}
	if !d.Timestamp.IsZero() {
		headers = append(headers, kafkago.Header{Key: "acquired_at", Value: []byte(d.Timestamp.Format(time.RFC3339))})
	}
	return kafkago.Message{
		Key:     []byte(d.ID),
		Value:   data,
		Headers: headers,
		Time:    d.Timestamp,
	}, nil
}
