// Package pipeline drives a photo from upload event to completed analysis:
// claim, fetch, detect, match, persist, notify.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/faceid/internal/config"
	"github.com/your-org/faceid/internal/exif"
	"github.com/your-org/faceid/internal/matcher"
	"github.com/your-org/faceid/internal/models"
	"github.com/your-org/faceid/internal/observability"
	"github.com/your-org/faceid/internal/storage"
	"github.com/your-org/faceid/internal/vision"
)

// Store is the analysis state surface the pipeline drives.
type Store interface {
	UpsertPendingAnalysis(ctx context.Context, photoID, ownerID uuid.UUID, storageKey string) error
	ClaimForProcessing(ctx context.Context, photoID uuid.UUID, staleAfter time.Duration) (bool, error)
	RecordFaces(ctx context.Context, photoID uuid.UUID, faces []storage.NewFace, meta models.PhotoMetadata) error
	RecordFailure(ctx context.Context, photoID uuid.UUID, msg string) error
	ListStaleProcessing(ctx context.Context, staleAfter time.Duration) ([]storage.StaleClaim, error)
	DeletePhotoRecords(ctx context.Context, photoID uuid.UUID) (string, error)
}

// ObjectStore accesses stored photos by storage key.
type ObjectStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// Publisher emits downstream notifications.
type Publisher interface {
	PublishUploaded(ctx context.Context, ev models.UploadedEvent) error
	PublishAnalyzed(ctx context.Context, ev models.AnalyzedEvent) error
	PublishReindex(ctx context.Context, ev models.ReindexEvent) error
}

// FaceMatcher resolves one embedding to a known person.
type FaceMatcher interface {
	BestMatch(ctx context.Context, ownerID uuid.UUID, embedding []float32) (*matcher.Match, error)
}

type Pipeline struct {
	store     Store
	objects   ObjectStore
	extractor vision.Extractor
	matcher   FaceMatcher
	publisher Publisher
	cfg       config.PipelineConfig
}

func New(store Store, objects ObjectStore, extractor vision.Extractor, m FaceMatcher, publisher Publisher, cfg config.PipelineConfig) *Pipeline {
	return &Pipeline{
		store:     store,
		objects:   objects,
		extractor: extractor,
		matcher:   m,
		publisher: publisher,
		cfg:       cfg,
	}
}

// HandleUploaded processes one photo upload event. Delivery is at least
// once; the conditional claim makes reprocessing safe. A nil return acks the
// message, an error naks it for redelivery.
func (p *Pipeline) HandleUploaded(ctx context.Context, ev models.UploadedEvent) error {
	log := slog.With("photo", ev.PhotoID, "owner", ev.OwnerID)

	if err := p.store.UpsertPendingAnalysis(ctx, ev.PhotoID, ev.OwnerID, ev.StorageKey); err != nil {
		return fmt.Errorf("register analysis: %w", err)
	}

	claimed, err := p.store.ClaimForProcessing(ctx, ev.PhotoID, p.cfg.StaleClaimTimeout)
	if err != nil {
		return fmt.Errorf("claim analysis: %w", err)
	}
	if !claimed {
		// Another worker holds it, or the analysis already finished.
		log.Debug("claim not acquired, dropping event")
		return nil
	}

	imageBytes, err := p.fetchWithRetry(ctx, ev.StorageKey)
	if err != nil {
		return p.fail(ctx, log, ev.PhotoID, fmt.Sprintf("fetch photo: %v", err), err)
	}

	faces, err := p.extractWithRetry(ctx, imageBytes)
	if err != nil {
		if errors.Is(err, models.ErrImageDecode) {
			// Bad input never becomes good on redelivery.
			_ = p.fail(ctx, log, ev.PhotoID, fmt.Sprintf("decode photo: %v", err), err)
			return nil
		}
		return p.fail(ctx, log, ev.PhotoID, fmt.Sprintf("extract faces: %v", err), err)
	}
	observability.FacesDetected.Add(float64(len(faces)))

	newFaces := make([]storage.NewFace, 0, len(faces))
	for _, f := range faces {
		nf := storage.NewFace{
			BBox:       f.BBox,
			Confidence: f.Confidence,
			Embedding:  f.Embedding,
		}
		match, err := p.matchWithRetry(ctx, ev.OwnerID, f.Embedding)
		if err != nil {
			return p.fail(ctx, log, ev.PhotoID, fmt.Sprintf("match face: %v", err), err)
		}
		if match != nil {
			nf.MatchedPersonID = &match.PersonID
			nf.MatchScore = match.Score
			observability.FacesMatched.Inc()
		}
		newFaces = append(newFaces, nf)
	}

	meta := exif.Parse(imageBytes)

	start := time.Now()
	err = p.store.RecordFaces(ctx, ev.PhotoID, newFaces, meta)
	if err != nil && !errors.Is(err, models.ErrConflict) {
		// One in-process retry before surfacing to redelivery.
		log.Warn("persist faces failed, retrying", "error", err)
		err = p.store.RecordFaces(ctx, ev.PhotoID, newFaces, meta)
	}
	observability.StageDuration.WithLabelValues("persist").Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			// Lost the claim mid-flight; whoever took it owns the result.
			log.Warn("claim lost before persist, dropping event")
			return nil
		}
		return p.fail(ctx, log, ev.PhotoID, fmt.Sprintf("persist faces: %v", err), err)
	}

	observability.PhotosProcessed.WithLabelValues(string(models.StatusComplete)).Inc()
	log.Info("photo analyzed", "faces", len(faces))

	p.notify(ctx, log, models.AnalyzedEvent{
		PhotoID:   ev.PhotoID,
		FaceCount: len(faces),
		Status:    models.StatusComplete,
	})
	return nil
}

// HandleDeleted removes all analysis state for a photo that no longer
// exists, then the stored object itself. Object cleanup is best effort: the
// records are already gone and a leftover object hurts nothing.
func (p *Pipeline) HandleDeleted(ctx context.Context, ev models.DeletedEvent) error {
	storageKey, err := p.store.DeletePhotoRecords(ctx, ev.PhotoID)
	if err != nil {
		return fmt.Errorf("delete photo records: %w", err)
	}

	if storageKey != "" {
		if err := p.objects.Delete(ctx, storageKey); err != nil {
			slog.Warn("delete stored photo", "photo", ev.PhotoID, "key", storageKey, "error", err)
		}
	}

	slog.Info("photo records deleted", "photo", ev.PhotoID)
	return nil
}

// RecoverStale republishes upload events for PROCESSING rows whose worker
// died. The claim predicate lets the next consumer take them over.
func (p *Pipeline) RecoverStale(ctx context.Context) error {
	stale, err := p.store.ListStaleProcessing(ctx, p.cfg.StaleClaimTimeout)
	if err != nil {
		return fmt.Errorf("list stale claims: %w", err)
	}

	for _, c := range stale {
		ev := models.UploadedEvent{PhotoID: c.PhotoID, OwnerID: c.OwnerID, StorageKey: c.StorageKey}
		if err := p.publisher.PublishUploaded(ctx, ev); err != nil {
			slog.Warn("republish stale claim", "photo", c.PhotoID, "error", err)
			continue
		}
		observability.StaleClaimsRecovered.Inc()
		slog.Info("stale claim requeued", "photo", c.PhotoID)
	}
	return nil
}

func (p *Pipeline) fetchWithRetry(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := p.retryStep(ctx, "fetch", func(opCtx context.Context) error {
		var err error
		data, err = p.objects.Get(opCtx, key)
		return err
	})
	return data, err
}

func (p *Pipeline) extractWithRetry(ctx context.Context, imageBytes []byte) ([]vision.Face, error) {
	var faces []vision.Face
	err := p.retryStep(ctx, "extract", func(opCtx context.Context) error {
		var err error
		faces, err = p.extract(opCtx, imageBytes)
		return err
	})
	return faces, err
}

func (p *Pipeline) matchWithRetry(ctx context.Context, ownerID uuid.UUID, embedding []float32) (*matcher.Match, error) {
	var match *matcher.Match
	err := p.retryStep(ctx, "match", func(opCtx context.Context) error {
		var err error
		match, err = p.matcher.BestMatch(opCtx, ownerID, embedding)
		return err
	})
	return match, err
}

// retryStep runs one pipeline step with a per-attempt timeout and bounded
// exponential backoff. Undecodable input is terminal and short-circuits.
func (p *Pipeline) retryStep(ctx context.Context, stage string, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= p.cfg.StepRetries; attempt++ {
		if attempt > 0 {
			backoff := p.cfg.RetryBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		start := time.Now()
		opCtx, cancel := context.WithTimeout(ctx, p.cfg.StepTimeout)
		err := fn(opCtx)
		cancel()
		observability.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
		if err == nil {
			return nil
		}
		if errors.Is(err, models.ErrImageDecode) {
			return err
		}
		lastErr = err
		slog.Warn("pipeline step failed", "stage", stage, "attempt", attempt+1, "error", err)
	}
	return lastErr
}

func (p *Pipeline) extract(ctx context.Context, imageBytes []byte) ([]vision.Face, error) {
	// Inference has no context support; bound it from the outside.
	type result struct {
		faces []vision.Face
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		faces, err := p.extractor.Extract(imageBytes)
		ch <- result{faces, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		return r.faces, r.err
	}
}

// fail records the failure, announces it, and passes the original error back
// for redelivery accounting.
func (p *Pipeline) fail(ctx context.Context, log *slog.Logger, photoID uuid.UUID, msg string, cause error) error {
	observability.PhotosProcessed.WithLabelValues(string(models.StatusFailed)).Inc()
	log.Error("analysis failed", "reason", msg)

	if err := p.store.RecordFailure(ctx, photoID, msg); err != nil {
		log.Warn("record failure", "error", err)
	}
	p.notify(ctx, log, models.AnalyzedEvent{
		PhotoID:   photoID,
		FaceCount: 0,
		Status:    models.StatusFailed,
	})
	return cause
}

// notify publishes the analyzed event and, for completed analyses, the
// reindex request. Notification failures never undo a committed analysis.
func (p *Pipeline) notify(ctx context.Context, log *slog.Logger, ev models.AnalyzedEvent) {
	if err := p.publisher.PublishAnalyzed(ctx, ev); err != nil {
		log.Warn("publish analyzed event", "error", err)
	}
	if ev.Status != models.StatusComplete {
		return
	}
	if err := p.publisher.PublishReindex(ctx, models.ReindexEvent{PhotoID: ev.PhotoID}); err != nil {
		log.Warn("publish reindex event", "error", err)
		return
	}
	observability.ReindexPublished.Inc()
}
