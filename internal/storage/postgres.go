package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/your-org/faceid/internal/config"
	"github.com/your-org/faceid/internal/models"
)

// DB is the subset of pgxpool.Pool the store needs. Tests substitute a
// pgxmock pool.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
}

type PostgresStore struct {
	db   DB
	pool *pgxpool.Pool
}

func NewPostgresStore(cfg config.DatabaseConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresStore{db: pool, pool: pool}, nil
}

// NewPostgresStoreWithDB wraps an existing connection-like handle.
func NewPostgresStoreWithDB(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// --- Persons ---

func (s *PostgresStore) CreatePerson(ctx context.Context, ownerID uuid.UUID, name string, relationship, notes *string) (*models.Person, error) {
	p := &models.Person{
		ID:           uuid.New(),
		OwnerID:      ownerID,
		Name:         name,
		Relationship: relationship,
		Notes:        notes,
	}
	err := s.db.QueryRow(ctx,
		`INSERT INTO persons (id, owner_id, name, relationship, notes) VALUES ($1, $2, $3, $4, $5) RETURNING created_at, updated_at`,
		p.ID, p.OwnerID, p.Name, p.Relationship, p.Notes,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create person: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) GetPerson(ctx context.Context, id, ownerID uuid.UUID) (*models.Person, error) {
	p := &models.Person{}
	err := s.db.QueryRow(ctx,
		`SELECT id, owner_id, name, relationship, notes, created_at, updated_at FROM persons WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	).Scan(&p.ID, &p.OwnerID, &p.Name, &p.Relationship, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get person: %w", err)
	}
	return p, nil
}

// GetPersonByID fetches a person regardless of owner. The assignment service
// uses it to distinguish cross-owner attempts from unknown persons.
func (s *PostgresStore) GetPersonByID(ctx context.Context, id uuid.UUID) (*models.Person, error) {
	p := &models.Person{}
	err := s.db.QueryRow(ctx,
		`SELECT id, owner_id, name, relationship, notes, created_at, updated_at FROM persons WHERE id = $1`, id,
	).Scan(&p.ID, &p.OwnerID, &p.Name, &p.Relationship, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get person by id: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) ListPersons(ctx context.Context, ownerID uuid.UUID) ([]models.Person, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, owner_id, name, relationship, notes, created_at, updated_at FROM persons WHERE owner_id = $1 ORDER BY name`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("list persons: %w", err)
	}
	defer rows.Close()

	var persons []models.Person
	for rows.Next() {
		var p models.Person
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Relationship, &p.Notes, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		persons = append(persons, p)
	}
	return persons, rows.Err()
}

func (s *PostgresStore) UpdatePerson(ctx context.Context, id, ownerID uuid.UUID, name, relationship, notes *string) (*models.Person, error) {
	p := &models.Person{}
	err := s.db.QueryRow(ctx,
		`UPDATE persons
		 SET name = COALESCE($1, name),
		     relationship = COALESCE($2, relationship),
		     notes = COALESCE($3, notes),
		     updated_at = NOW()
		 WHERE id = $4 AND owner_id = $5
		 RETURNING id, owner_id, name, relationship, notes, created_at, updated_at`,
		name, relationship, notes, id, ownerID,
	).Scan(&p.ID, &p.OwnerID, &p.Name, &p.Relationship, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("update person: %w", err)
	}
	return p, nil
}

// DeletePerson removes a person. The schema nulls out face links and cascades
// assignment deletion.
func (s *PostgresStore) DeletePerson(ctx context.Context, id, ownerID uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM persons WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete person: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrPersonNotFound
	}
	return nil
}

func (s *PostgresStore) CountAssignments(ctx context.Context, personID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM assignments WHERE person_id = $1`, personID,
	).Scan(&count)
	return count, err
}

// --- Analysis lifecycle ---

// UpsertPendingAnalysis creates the per-photo analysis row in PENDING.
// Duplicate upload events hit the unique photo_id constraint and change
// nothing.
func (s *PostgresStore) UpsertPendingAnalysis(ctx context.Context, photoID, ownerID uuid.UUID, storageKey string) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO analysis_results (id, photo_id, owner_id, status, storage_key)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (photo_id) DO NOTHING`,
		uuid.New(), photoID, ownerID, models.StatusPending, storageKey)
	if err != nil {
		return fmt.Errorf("upsert pending analysis: %w", err)
	}
	return nil
}

// ClaimForProcessing is the pipeline's sole synchronization primitive: a
// single conditional update that moves PENDING/FAILED (or PROCESSING held
// longer than staleAfter) to PROCESSING. Exactly one of N concurrent callers
// sees true.
func (s *PostgresStore) ClaimForProcessing(ctx context.Context, photoID uuid.UUID, staleAfter time.Duration) (bool, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE analysis_results
		 SET status = $2, updated_at = NOW()
		 WHERE photo_id = $1
		   AND (status = $3 OR status = $4
		        OR (status = $2 AND updated_at < NOW() - make_interval(secs => $5)))`,
		photoID, models.StatusProcessing, models.StatusPending, models.StatusFailed, staleAfter.Seconds())
	if err != nil {
		return false, fmt.Errorf("claim for processing: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// NewFace is one detected face ready for persistence, with the matcher's
// verdict attached.
type NewFace struct {
	BBox            models.BoundingBox
	Confidence      float32
	Embedding       []float32
	MatchedPersonID *uuid.UUID
	MatchScore      float32
}

// RecordFaces persists all detections for a photo and completes the analysis
// in one transaction. A retried PROCESSING pass replaces that photo's prior
// detections instead of duplicating them. The photo must currently hold the
// PROCESSING claim.
func (s *PostgresStore) RecordFaces(ctx context.Context, photoID uuid.UUID, faces []NewFace, meta models.PhotoMetadata) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin record faces: %w", err)
	}
	defer tx.Rollback(ctx)

	var status models.AnalysisStatus
	err = tx.QueryRow(ctx,
		`SELECT status FROM analysis_results WHERE photo_id = $1 FOR UPDATE`, photoID,
	).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ErrAnalysisNotFound
		}
		return fmt.Errorf("lock analysis: %w", err)
	}
	if !models.CanTransition(status, models.StatusComplete) {
		return models.ErrConflict.WithError(fmt.Errorf("analysis for %s is %s, not %s", photoID, status, models.StatusProcessing))
	}

	if _, err := tx.Exec(ctx, `DELETE FROM face_detections WHERE photo_id = $1`, photoID); err != nil {
		return fmt.Errorf("clear prior detections: %w", err)
	}

	for _, f := range faces {
		vec := pgvector.NewVector(f.Embedding)
		faceID := uuid.New()
		_, err := tx.Exec(ctx,
			`INSERT INTO face_detections (id, photo_id, person_id, embedding, bbox_x, bbox_y, bbox_width, bbox_height, confidence)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			faceID, photoID, f.MatchedPersonID, vec,
			f.BBox.X, f.BBox.Y, f.BBox.Width, f.BBox.Height, f.Confidence)
		if err != nil {
			return fmt.Errorf("insert face detection: %w", err)
		}

		if f.MatchedPersonID != nil {
			_, err := tx.Exec(ctx,
				`INSERT INTO assignments (id, photo_id, person_id, face_detection_id, confirmed)
				 VALUES ($1, $2, $3, $4, false)
				 ON CONFLICT (photo_id, person_id) DO UPDATE
				 SET face_detection_id = EXCLUDED.face_detection_id, updated_at = NOW()`,
				uuid.New(), photoID, *f.MatchedPersonID, faceID)
			if err != nil {
				return fmt.Errorf("upsert auto assignment: %w", err)
			}
		}
	}

	_, err = tx.Exec(ctx,
		`UPDATE analysis_results
		 SET status = $2, face_count = $3,
		     taken_at = $4, latitude = $5, longitude = $6,
		     camera_make = $7, camera_model = $8,
		     error_message = NULL, analyzed_at = NOW(), updated_at = NOW()
		 WHERE photo_id = $1`,
		photoID, models.StatusComplete, len(faces),
		meta.TakenAt, meta.Latitude, meta.Longitude, meta.CameraMake, meta.CameraModel)
	if err != nil {
		return fmt.Errorf("complete analysis: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		if isUniqueViolation(err) {
			return models.ErrConflict.WithError(err)
		}
		return fmt.Errorf("commit record faces: %w", err)
	}
	return nil
}

// RecordFailure moves a PROCESSING analysis to FAILED with a human-readable
// message. Any other current status is a conflict.
func (s *PostgresStore) RecordFailure(ctx context.Context, photoID uuid.UUID, msg string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE analysis_results
		 SET status = $2, error_message = $3, updated_at = NOW()
		 WHERE photo_id = $1 AND status = $4`,
		photoID, models.StatusFailed, msg, models.StatusProcessing)
	if err != nil {
		return fmt.Errorf("record failure: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrConflict.WithError(fmt.Errorf("analysis for %s is not %s", photoID, models.StatusProcessing))
	}
	return nil
}

func (s *PostgresStore) GetAnalysisByPhoto(ctx context.Context, photoID, ownerID uuid.UUID) (*models.AnalysisResult, error) {
	ar := &models.AnalysisResult{}
	err := s.db.QueryRow(ctx,
		`SELECT id, photo_id, owner_id, status, face_count, taken_at, latitude, longitude,
		        camera_make, camera_model, error_message, analyzed_at, created_at, updated_at
		 FROM analysis_results WHERE photo_id = $1 AND owner_id = $2`,
		photoID, ownerID,
	).Scan(&ar.ID, &ar.PhotoID, &ar.OwnerID, &ar.Status, &ar.FaceCount,
		&ar.Metadata.TakenAt, &ar.Metadata.Latitude, &ar.Metadata.Longitude,
		&ar.Metadata.CameraMake, &ar.Metadata.CameraModel,
		&ar.ErrorMessage, &ar.AnalyzedAt, &ar.CreatedAt, &ar.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get analysis: %w", err)
	}
	return ar, nil
}

// StaleClaim identifies a PROCESSING row whose worker likely died.
type StaleClaim struct {
	PhotoID    uuid.UUID
	OwnerID    uuid.UUID
	StorageKey string
}

func (s *PostgresStore) ListStaleProcessing(ctx context.Context, staleAfter time.Duration) ([]StaleClaim, error) {
	rows, err := s.db.Query(ctx,
		`SELECT photo_id, owner_id, storage_key FROM analysis_results
		 WHERE status = $1 AND updated_at < NOW() - make_interval(secs => $2)`,
		models.StatusProcessing, staleAfter.Seconds())
	if err != nil {
		return nil, fmt.Errorf("list stale processing: %w", err)
	}
	defer rows.Close()

	var claims []StaleClaim
	for rows.Next() {
		var c StaleClaim
		if err := rows.Scan(&c.PhotoID, &c.OwnerID, &c.StorageKey); err != nil {
			return nil, fmt.Errorf("scan stale claim: %w", err)
		}
		claims = append(claims, c)
	}
	return claims, rows.Err()
}

// DeletePhotoRecords drops all analysis state for a deleted photo and
// returns its storage key so the caller can clean up the stored object.
// An unknown photo returns an empty key and no error.
func (s *PostgresStore) DeletePhotoRecords(ctx context.Context, photoID uuid.UUID) (string, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("begin delete photo records: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM assignments WHERE photo_id = $1`, photoID); err != nil {
		return "", fmt.Errorf("delete assignments: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM face_detections WHERE photo_id = $1`, photoID); err != nil {
		return "", fmt.Errorf("delete face detections: %w", err)
	}

	var storageKey string
	err = tx.QueryRow(ctx,
		`DELETE FROM analysis_results WHERE photo_id = $1 RETURNING storage_key`, photoID,
	).Scan(&storageKey)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("delete analysis: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("commit delete photo records: %w", err)
	}
	return storageKey, nil
}

// --- Similarity search ---

// MatchRow is the best hit from the vector index for one embedding.
type MatchRow struct {
	PersonID uuid.UUID
	Score    float32
}

// SearchBestMatch returns the closest owner-scoped assigned face for an
// embedding, or nil when the owner has no assigned faces. Ordering is
// deterministic: cosine distance, then detection age, then id. The threshold
// decision is the matcher's, not the query's.
func (s *PostgresStore) SearchBestMatch(ctx context.Context, ownerID uuid.UUID, embedding []float32) (*MatchRow, error) {
	vec := pgvector.NewVector(embedding)
	m := &MatchRow{}
	err := s.db.QueryRow(ctx,
		`SELECT fe.person_id, 1 - (fe.embedding <=> $1) AS score
		 FROM face_detections fe
		 JOIN persons p ON p.id = fe.person_id
		 WHERE p.owner_id = $2 AND fe.person_id IS NOT NULL
		 ORDER BY fe.embedding <=> $1, fe.created_at, fe.id
		 LIMIT 1`,
		vec, ownerID,
	).Scan(&m.PersonID, &m.Score)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, models.ErrMatchQuery.WithError(err)
	}
	return m, nil
}

// AssignedFace feeds the in-process suggestion index.
type AssignedFace struct {
	FaceID    uuid.UUID
	PersonID  uuid.UUID
	Embedding []float32
}

func (s *PostgresStore) ListAssignedFaces(ctx context.Context, ownerID uuid.UUID) ([]AssignedFace, error) {
	rows, err := s.db.Query(ctx,
		`SELECT fe.id, fe.person_id, fe.embedding
		 FROM face_detections fe
		 JOIN persons p ON p.id = fe.person_id
		 WHERE p.owner_id = $1 AND fe.person_id IS NOT NULL
		 ORDER BY fe.created_at, fe.id`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("list assigned faces: %w", err)
	}
	defer rows.Close()

	var faces []AssignedFace
	for rows.Next() {
		var f AssignedFace
		var vec pgvector.Vector
		if err := rows.Scan(&f.FaceID, &f.PersonID, &vec); err != nil {
			return nil, fmt.Errorf("scan assigned face: %w", err)
		}
		f.Embedding = vec.Slice()
		faces = append(faces, f)
	}
	return faces, rows.Err()
}

// --- Faces & assignments ---

// GetFaceWithOwner fetches a face detection and the owner of its photo.
func (s *PostgresStore) GetFaceWithOwner(ctx context.Context, faceID uuid.UUID) (*models.FaceDetection, uuid.UUID, error) {
	f := &models.FaceDetection{}
	var ownerID uuid.UUID
	var vec pgvector.Vector
	err := s.db.QueryRow(ctx,
		`SELECT fe.id, fe.photo_id, fe.person_id, fe.embedding, fe.bbox_x, fe.bbox_y, fe.bbox_width, fe.bbox_height,
		        fe.confidence, fe.created_at, ar.owner_id
		 FROM face_detections fe
		 JOIN analysis_results ar ON ar.photo_id = fe.photo_id
		 WHERE fe.id = $1`,
		faceID,
	).Scan(&f.ID, &f.PhotoID, &f.PersonID, &vec, &f.BBox.X, &f.BBox.Y, &f.BBox.Width, &f.BBox.Height,
		&f.Confidence, &f.CreatedAt, &ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, uuid.Nil, nil
		}
		return nil, uuid.Nil, fmt.Errorf("get face: %w", err)
	}
	f.Embedding = vec.Slice()
	return f, ownerID, nil
}

// GetConfirmedAssignmentForFace returns the confirmed assignment backed by
// this face, if any.
func (s *PostgresStore) GetConfirmedAssignmentForFace(ctx context.Context, faceID uuid.UUID) (*models.Assignment, error) {
	a := &models.Assignment{}
	err := s.db.QueryRow(ctx,
		`SELECT id, photo_id, person_id, face_detection_id, confirmed, created_at, updated_at
		 FROM assignments WHERE face_detection_id = $1 AND confirmed = true`,
		faceID,
	).Scan(&a.ID, &a.PhotoID, &a.PersonID, &a.FaceDetectionID, &a.Confirmed, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get confirmed assignment: %w", err)
	}
	return a, nil
}

// ConfirmAssignment binds a face to a person as a human decision: links the
// face, drops any ignore entry and automatic suggestions for it, and upserts
// the confirmed assignment. One transaction, so a failure leaves no partial
// mutation.
func (s *PostgresStore) ConfirmAssignment(ctx context.Context, ownerID, faceID, photoID, personID uuid.UUID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin confirm assignment: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE face_detections SET person_id = $2 WHERE id = $1`, faceID, personID); err != nil {
		return fmt.Errorf("link face: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM ignored_faces WHERE owner_id = $1 AND face_detection_id = $2`, ownerID, faceID); err != nil {
		return fmt.Errorf("unignore face: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM assignments WHERE face_detection_id = $1 AND confirmed = false`, faceID); err != nil {
		return fmt.Errorf("clear suggestions: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO assignments (id, photo_id, person_id, face_detection_id, confirmed)
		 VALUES ($1, $2, $3, $4, true)
		 ON CONFLICT (photo_id, person_id) DO UPDATE
		 SET face_detection_id = EXCLUDED.face_detection_id, confirmed = true, updated_at = NOW()`,
		uuid.New(), photoID, personID, faceID); err != nil {
		return fmt.Errorf("upsert assignment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit confirm assignment: %w", err)
	}
	return nil
}

// ClearFaceAssignment removes the face's person link. Assignment rows are
// history and stay untouched.
func (s *PostgresStore) ClearFaceAssignment(ctx context.Context, faceID uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE face_detections SET person_id = NULL WHERE id = $1`, faceID)
	if err != nil {
		return fmt.Errorf("clear face assignment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrFaceNotFound
	}
	return nil
}

// IgnoreFace hides a face from the unassigned listing and drops automatic
// suggestions for it.
func (s *PostgresStore) IgnoreFace(ctx context.Context, ownerID, faceID uuid.UUID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin ignore face: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO ignored_faces (id, owner_id, face_detection_id)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (owner_id, face_detection_id) DO NOTHING`,
		uuid.New(), ownerID, faceID); err != nil {
		return fmt.Errorf("insert ignore: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM assignments WHERE face_detection_id = $1 AND confirmed = false`, faceID); err != nil {
		return fmt.Errorf("clear suggestions: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit ignore face: %w", err)
	}
	return nil
}

// ListUnassignedFaces returns owner-scoped faces with no confirmed
// assignment and no ignore entry, newest first, with the latest automatic
// suggestion attached when present.
func (s *PostgresStore) ListUnassignedFaces(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]models.UnassignedFace, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}

	var total int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*)
		 FROM face_detections fe
		 JOIN analysis_results ar ON ar.photo_id = fe.photo_id
		 LEFT JOIN assignments ca ON ca.face_detection_id = fe.id AND ca.confirmed = true
		 LEFT JOIN ignored_faces ig ON ig.face_detection_id = fe.id AND ig.owner_id = ar.owner_id
		 WHERE ar.owner_id = $1 AND ca.id IS NULL AND ig.id IS NULL`,
		ownerID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count unassigned faces: %w", err)
	}

	rows, err := s.db.Query(ctx,
		`SELECT fe.id, fe.photo_id, fe.bbox_x, fe.bbox_y, fe.bbox_width, fe.bbox_height, fe.created_at,
		        sa.person_id, sp.name
		 FROM face_detections fe
		 JOIN analysis_results ar ON ar.photo_id = fe.photo_id
		 LEFT JOIN assignments ca ON ca.face_detection_id = fe.id AND ca.confirmed = true
		 LEFT JOIN ignored_faces ig ON ig.face_detection_id = fe.id AND ig.owner_id = ar.owner_id
		 LEFT JOIN LATERAL (
		   SELECT a.person_id
		   FROM assignments a
		   WHERE a.face_detection_id = fe.id AND a.confirmed = false
		   ORDER BY a.created_at DESC
		   LIMIT 1
		 ) sa ON true
		 LEFT JOIN persons sp ON sp.id = sa.person_id
		 WHERE ar.owner_id = $1 AND ca.id IS NULL AND ig.id IS NULL
		 ORDER BY fe.created_at DESC
		 LIMIT $2 OFFSET $3`,
		ownerID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list unassigned faces: %w", err)
	}
	defer rows.Close()

	var faces []models.UnassignedFace
	for rows.Next() {
		var f models.UnassignedFace
		if err := rows.Scan(&f.ID, &f.PhotoID, &f.BBox.X, &f.BBox.Y, &f.BBox.Width, &f.BBox.Height,
			&f.CreatedAt, &f.SuggestedPersonID, &f.SuggestedPersonName); err != nil {
			return nil, 0, fmt.Errorf("scan unassigned face: %w", err)
		}
		faces = append(faces, f)
	}
	return faces, total, rows.Err()
}
