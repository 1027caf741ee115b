package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/your-org/faceid/internal/models"
)

const (
	PhotosStreamName    = "PHOTOS"
	PhotosSubjectBase   = "photos"
	UploadedSubjectBase = PhotosSubjectBase + ".uploaded"
	DeletedSubjectBase  = PhotosSubjectBase + ".deleted"

	EventsStreamName    = "EVENTS"
	EventsSubjectBase   = "events"
	AnalyzedSubjectBase = EventsSubjectBase + ".analyzed"
	ReindexSubjectBase  = EventsSubjectBase + ".reindex"
)

type Producer struct {
	nc *nats.Conn
	js jetstream.JetStream
}

func NewProducer(natsURL string) (*Producer, error) {
	nc, err := nats.Connect(natsURL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("create jetstream context: %w", err)
	}

	return &Producer{nc: nc, js: js}, nil
}

// EnsureStreams creates JetStream streams if they don't exist. Retries up to
// 30 times (1s apart) to handle NATS startup delay.
func (p *Producer) EnsureStreams(ctx context.Context) error {
	streams := []jetstream.StreamConfig{
		{
			Name:        PhotosStreamName,
			Subjects:    []string{PhotosSubjectBase + ".>"},
			Retention:   jetstream.WorkQueuePolicy,
			MaxAge:      24 * time.Hour,
			MaxMsgs:     1000000,
			Storage:     jetstream.FileStorage,
			Discard:     jetstream.DiscardOld,
			Duplicates:  30 * time.Second,
			Description: "Photo lifecycle tasks for analysis workers",
		},
		{
			Name:        EventsStreamName,
			Subjects:    []string{EventsSubjectBase + ".>"},
			Retention:   jetstream.InterestPolicy,
			MaxAge:      24 * time.Hour,
			MaxMsgs:     1000000,
			Storage:     jetstream.FileStorage,
			Description: "Analysis completion and reindex notifications",
		},
	}

	const maxAttempts = 30
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		allOK := true
		for _, cfg := range streams {
			opCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			_, err := p.js.CreateOrUpdateStream(opCtx, cfg)
			cancel()
			if err != nil {
				allOK = false
				if attempt == maxAttempts {
					return fmt.Errorf("create stream %s: %w (after %d attempts)", cfg.Name, err, maxAttempts)
				}
				slog.Warn("ensure NATS stream (retrying...)", "name", cfg.Name, "attempt", attempt, "error", err)
				break
			}
			slog.Info("ensured NATS stream", "name", cfg.Name)
		}
		if allOK {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(1 * time.Second):
		}
	}
	return nil
}

// PublishUploaded enqueues a photo for analysis.
func (p *Producer) PublishUploaded(ctx context.Context, ev models.UploadedEvent) error {
	return p.publish(ctx, fmt.Sprintf("%s.%s", UploadedSubjectBase, ev.PhotoID), ev)
}

// PublishDeleted enqueues cleanup for a removed photo.
func (p *Producer) PublishDeleted(ctx context.Context, ev models.DeletedEvent) error {
	return p.publish(ctx, fmt.Sprintf("%s.%s", DeletedSubjectBase, ev.PhotoID), ev)
}

// PublishAnalyzed announces a finished analysis to downstream consumers.
func (p *Producer) PublishAnalyzed(ctx context.Context, ev models.AnalyzedEvent) error {
	return p.publish(ctx, fmt.Sprintf("%s.%s", AnalyzedSubjectBase, ev.PhotoID), ev)
}

// PublishReindex asks search indexers to refresh a photo.
func (p *Producer) PublishReindex(ctx context.Context, ev models.ReindexEvent) error {
	return p.publish(ctx, fmt.Sprintf("%s.%s", ReindexSubjectBase, ev.PhotoID), ev)
}

func (p *Producer) publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", subject, err)
	}
	if _, err := p.js.Publish(ctx, subject, payload); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// QueueDepth returns the number of pending messages in the PHOTOS stream.
func (p *Producer) QueueDepth(ctx context.Context) (uint64, error) {
	stream, err := p.js.Stream(ctx, PhotosStreamName)
	if err != nil {
		return 0, err
	}
	info, err := stream.Info(ctx)
	if err != nil {
		return 0, err
	}
	return info.State.Msgs, nil
}

func (p *Producer) Ping() error {
	if !p.nc.IsConnected() {
		return fmt.Errorf("nats not connected")
	}
	return nil
}

func (p *Producer) Close() {
	p.nc.Close()
}
