package alert

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"github.com/claritycheck/claritycheck/internal/config"
	"github.com/claritycheck/claritycheck/internal/detect"
	"github.com/claritycheck/claritycheck/internal/report"
)

// Publisher pushes low-score and high-severity findings to Kafka so the
// notification pipeline can act on them. Writes are async and best
// effort; analysis never blocks on the broker.
type Publisher struct {
	writer   *kafka.Writer
	minScore int
}

// Alert is the message shape consumed by the notification pipeline.
type Alert struct {
	ReportID       string    `json:"report_id"`
	URL            string    `json:"url"`
	OverallScore   float64   `json:"overall_score"`
	Grade          string    `json:"grade"`
	HighIssueCount int       `json:"high_issue_count"`
	PublishedAt    time.Time `json:"published_at"`
}

// NewPublisher returns nil when brokers or the topic are not
// configured; callers treat a nil publisher as alerting disabled.
func NewPublisher(cfg config.KafkaConfig, alerts config.AlertsConfig) *Publisher {
	topic := cfg.Topics["alerts"]
	if len(cfg.Brokers) == 0 || topic == "" {
		return nil
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		BatchSize:              1,
		Async:                  true,
		AllowAutoTopicCreation: true,
	}
	return &Publisher{writer: writer, minScore: alerts.MinScore}
}

// Publish emits an alert when the combined report scores below the
// configured floor or carries any high-severity issue.
func (p *Publisher) Publish(ctx context.Context, c *report.Combined) {
	if p == nil {
		return
	}

	high := 0
	for _, is := range c.VisualIssues {
		if is.Severity == detect.SeverityHigh {
			high++
		}
	}
	if high == 0 && c.OverallScore >= float64(p.minScore) {
		return
	}

	a := Alert{
		ReportID:       c.ReportID,
		URL:            c.URL,
		OverallScore:   c.OverallScore,
		Grade:          c.Grade,
		HighIssueCount: high,
		PublishedAt:    time.Now().UTC(),
	}
	data, err := json.Marshal(a)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal alert")
		return
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(c.URL),
		Value: data,
	}); err != nil {
		log.Error().Err(err).Str("url", c.URL).Msg("Failed to publish alert")
		return
	}

	log.Info().
		Str("report_id", c.ReportID).
		Str("url", c.URL).
		Float64("score", c.OverallScore).
		Int("high_issues", high).
		Msg("Alert published")
}

// Close flushes pending async writes.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}
