package lesson

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/hanweng/lingtutor/internal/db"
)

// SessionStore persists lesson records keyed by user.
type SessionStore interface {
	// UpsertProgress writes or overwrites the most recent in-progress
	// record for the user. Idempotent: the controller always sends the
	// full current record, never a delta.
	UpsertProgress(ctx context.Context, userID string, rec Record) error
	// CreateFinal creates (or promotes the in-progress row to) the
	// durable lesson record and returns its identifier.
	CreateFinal(ctx context.Context, userID string, rec Record) (string, error)
}

// Store implements SessionStore on SQLite.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// ensureUser creates the user row if it does not exist yet.
func (s *Store) ensureUser(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id) VALUES (?) ON CONFLICT(id) DO NOTHING`, userID)
	return err
}

// latestInProgressID returns the id of the user's most recent
// in-progress lesson row, or "" if there is none. Which row is "the
// most recent" is this store's choice; callers never track row ids for
// progress writes.
func (s *Store) latestInProgressID(ctx context.Context, userID string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM lessons
		 WHERE user_id = ? AND status = 'in_progress'
		 ORDER BY created_at DESC LIMIT 1`, userID,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) UpsertProgress(ctx context.Context, userID string, rec Record) error {
	if err := s.ensureUser(ctx, userID); err != nil {
		return NewPersistenceError("ensuring user record", err)
	}

	id, err := s.latestInProgressID(ctx, userID)
	if err != nil {
		return NewPersistenceError("finding in-progress lesson", err)
	}

	now := time.Now().UTC().Format(time.DateTime)
	if id == "" {
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO lessons (
				id, user_id, context, stated_intent, interpreted_intent,
				user_confirmed, user_clarification, clarification_applied,
				corrected, corrected_notes,
				alternative1, alternative1_notes, alternative2, alternative2_notes,
				rating, status, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'in_progress', ?, ?)`,
			uuid.New().String(), userID,
			rec.Context, rec.StatedIntent, rec.InterpretedIntent,
			nullBool(rec.UserConfirmed), rec.UserClarification, rec.ClarificationApplied,
			rec.Corrected, rec.CorrectedNotes,
			rec.Alternative1, rec.Alternative1Notes, rec.Alternative2, rec.Alternative2Notes,
			nullRating(rec.Rating), now, now,
		)
	} else {
		_, err = s.db.ExecContext(ctx,
			`UPDATE lessons SET
				context = ?, stated_intent = ?, interpreted_intent = ?,
				user_confirmed = ?, user_clarification = ?, clarification_applied = ?,
				corrected = ?, corrected_notes = ?,
				alternative1 = ?, alternative1_notes = ?, alternative2 = ?, alternative2_notes = ?,
				rating = ?, updated_at = ?
			 WHERE id = ?`,
			rec.Context, rec.StatedIntent, rec.InterpretedIntent,
			nullBool(rec.UserConfirmed), rec.UserClarification, rec.ClarificationApplied,
			rec.Corrected, rec.CorrectedNotes,
			rec.Alternative1, rec.Alternative1Notes, rec.Alternative2, rec.Alternative2Notes,
			nullRating(rec.Rating), now, id,
		)
	}
	if err != nil {
		return NewPersistenceError("writing lesson progress", err)
	}
	return nil
}

func (s *Store) CreateFinal(ctx context.Context, userID string, rec Record) (string, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return "", NewPersistenceError("ensuring user record", err)
	}

	id, err := s.latestInProgressID(ctx, userID)
	if err != nil {
		return "", NewPersistenceError("finding in-progress lesson", err)
	}

	now := time.Now().UTC().Format(time.DateTime)
	if id == "" {
		id = uuid.New().String()
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO lessons (
				id, user_id, context, stated_intent, interpreted_intent,
				user_confirmed, user_clarification, clarification_applied,
				corrected, corrected_notes,
				alternative1, alternative1_notes, alternative2, alternative2_notes,
				rating, status, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'final', ?, ?)`,
			id, userID,
			rec.Context, rec.StatedIntent, rec.InterpretedIntent,
			nullBool(rec.UserConfirmed), rec.UserClarification, rec.ClarificationApplied,
			rec.Corrected, rec.CorrectedNotes,
			rec.Alternative1, rec.Alternative1Notes, rec.Alternative2, rec.Alternative2Notes,
			nullRating(rec.Rating), now, now,
		)
	} else {
		_, err = s.db.ExecContext(ctx,
			`UPDATE lessons SET
				context = ?, stated_intent = ?, interpreted_intent = ?,
				user_confirmed = ?, user_clarification = ?, clarification_applied = ?,
				corrected = ?, corrected_notes = ?,
				alternative1 = ?, alternative1_notes = ?, alternative2 = ?, alternative2_notes = ?,
				rating = ?, status = 'final', updated_at = ?
			 WHERE id = ?`,
			rec.Context, rec.StatedIntent, rec.InterpretedIntent,
			nullBool(rec.UserConfirmed), rec.UserClarification, rec.ClarificationApplied,
			rec.Corrected, rec.CorrectedNotes,
			rec.Alternative1, rec.Alternative1Notes, rec.Alternative2, rec.Alternative2Notes,
			nullRating(rec.Rating), now, id,
		)
	}
	if err != nil {
		return "", NewPersistenceError("saving final lesson", err)
	}
	return id, nil
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

func nullRating(r int) sql.NullInt64 {
	if r == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(r), Valid: true}
}
