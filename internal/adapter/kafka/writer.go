// Package kafka publishes the monthly exposure feed.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/warning-exposure-etl/internal/adapter/report"
	"github.com/couchcryptid/warning-exposure-etl/internal/config"
	"github.com/couchcryptid/warning-exposure-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes country-month exposure rows to a Kafka topic, one message
// per row, so alerting consumers react to fresh summaries without polling the
// report files. It implements pipeline.Emitter.
type Writer struct {
	writer *kafkago.Writer
	layout report.Layout
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured exposure topic.
func NewWriter(cfg *config.Config, layout report.Layout, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, layout: layout, logger: logger}
}

// Emit serializes and publishes all rows in a single WriteMessages call.
func (w *Writer) Emit(ctx context.Context, rows []domain.CountryMonthExposure) error {
	if len(rows) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(rows))
	for i := range rows {
		msg, err := serializeToMessage(w.layout, rows[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish exposure rows: %w", err)
	}

	w.logger.Info("exposure rows published", "topic", w.writer.Topic, "rows", len(rows))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals one exposure row into a Kafka message. The key
// is "<country>|<year_month>" so a rerun of the same month replaces rather
// than duplicates on compacted topics.
func serializeToMessage(layout report.Layout, row domain.CountryMonthExposure) (kafkago.Message, error) {
	columns := layout.Columns()
	payload := make(map[string]any, len(columns)+2)
	payload["country"] = row.Country
	payload["year_month"] = row.Period.String()
	for _, c := range columns {
		payload[c.Name] = c.Value(row)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize exposure row: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(row.Country + "|" + row.Period.String()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "country", Value: []byte(row.Country)},
			{Key: "generated_at", Value: []byte(clock.Now().UTC().Format(time.RFC3339))},
		},
	}, nil
}
