package kafka

import (
	"context"
	"log/slog"
	"slices"

	"github.com/couchcryptid/storm-radar-regrid/internal/config"
	"github.com/couchcryptid/storm-radar-regrid/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces grid messages to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic. Grid
// planes are large and compress well, so batches are zstd compressed.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
		Compression:  kafkago.Zstd,
		BatchBytes:   int64(maxBytes(cfg)),
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch encodes and publishes a batch of grids in a single
// WriteMessages call.
func (w *Writer) LoadBatch(ctx context.Context, grids []*domain.Grid) error {
	if len(grids) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(grids))
	for i, g := range grids {
		msg, err := serializeToMessage(g)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return err
	}
	w.logger.Debug("grids published", "count", len(msgs), "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage encodes a grid into a Kafka message with sorted headers.
func serializeToMessage(g *domain.Grid) (kafkago.Message, error) {
	out, err := domain.EncodeGrid(g)
	if err != nil {
		return kafkago.Message{}, err
	}

	keys := make([]string, 0, len(out.Headers))
	for k := range out.Headers {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	headers := make([]kafkago.Header, len(keys))
	for i, k := range keys {
		headers[i] = kafkago.Header{Key: k, Value: []byte(out.Headers[k])}
	}
	return kafkago.Message{Key: out.Key, Value: out.Value, Headers: headers}, nil
}
