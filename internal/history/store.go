package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/hanweng/lingtutor/internal/db"
)

// Lesson is a finalized lesson as read back from storage.
type Lesson struct {
	ID                   string    `json:"id"`
	UserID               string    `json:"user_id"`
	Context              string    `json:"context"`
	StatedIntent         string    `json:"stated_intent"`
	InterpretedIntent    string    `json:"interpreted_intent"`
	UserConfirmed        *bool     `json:"user_confirmed,omitempty"`
	UserClarification    string    `json:"user_clarification,omitempty"`
	ClarificationApplied bool      `json:"clarification_applied"`
	Corrected            string    `json:"corrected"`
	CorrectedNotes       string    `json:"corrected_notes"`
	Alternative1         string    `json:"alternative1,omitempty"`
	Alternative1Notes    string    `json:"alternative1_notes,omitempty"`
	Alternative2         string    `json:"alternative2,omitempty"`
	Alternative2Notes    string    `json:"alternative2_notes,omitempty"`
	Rating               int       `json:"rating,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
}

// Stats summarizes a user's saved lessons.
type Stats struct {
	TotalLessons  int     `json:"total_lessons"`
	RatedLessons  int     `json:"rated_lessons"`
	AverageRating float64 `json:"average_rating"`
	ClarifiedPct  float64 `json:"clarified_pct"`
}

// Store reads finalized lessons. Writes go through the session store;
// history is a read-only view.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// QueryFilter controls which lessons List returns.
type QueryFilter struct {
	UserID    string
	MinRating int
	Since     *time.Time
	Limit     int
	Offset    int
}

const lessonColumns = `id, user_id, context, stated_intent, interpreted_intent,
	user_confirmed, user_clarification, clarification_applied,
	corrected, corrected_notes,
	alternative1, alternative1_notes, alternative2, alternative2_notes,
	rating, created_at`

// List returns finalized lessons matching the filter, newest first.
func (s *Store) List(ctx context.Context, filter QueryFilter) ([]Lesson, error) {
	clauses := []string{"status = 'final'"}
	var args []any

	if filter.UserID != "" {
		clauses = append(clauses, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.MinRating > 0 {
		clauses = append(clauses, "rating >= ?")
		args = append(args, filter.MinRating)
	}
	if filter.Since != nil {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, filter.Since.UTC().Format(time.DateTime))
	}

	query := "SELECT " + lessonColumns + " FROM lessons WHERE " +
		strings.Join(clauses, " AND ") + " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying lessons: %w", err)
	}
	defer rows.Close()

	var lessons []Lesson
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, err
		}
		lessons = append(lessons, *l)
	}
	return lessons, rows.Err()
}

// GetByID retrieves a single finalized lesson.
func (s *Store) GetByID(ctx context.Context, id string) (*Lesson, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+lessonColumns+" FROM lessons WHERE id = ? AND status = 'final'", id)
	return scanLesson(row)
}

// UserStats aggregates the user's saved lessons.
func (s *Store) UserStats(ctx context.Context, userID string) (*Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(rating),
		       COALESCE(AVG(rating), 0),
		       COALESCE(AVG(clarification_applied) * 100, 0)
		FROM lessons WHERE user_id = ? AND status = 'final'`, userID,
	).Scan(&st.TotalLessons, &st.RatedLessons, &st.AverageRating, &st.ClarifiedPct)
	if err != nil {
		return nil, fmt.Errorf("aggregating lesson stats: %w", err)
	}
	return &st, nil
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanLesson(sc scanner) (*Lesson, error) {
	var (
		l         Lesson
		confirmed sql.NullBool
		rating    sql.NullInt64
		ts        string
	)

	err := sc.Scan(
		&l.ID, &l.UserID, &l.Context, &l.StatedIntent, &l.InterpretedIntent,
		&confirmed, &l.UserClarification, &l.ClarificationApplied,
		&l.Corrected, &l.CorrectedNotes,
		&l.Alternative1, &l.Alternative1Notes, &l.Alternative2, &l.Alternative2Notes,
		&rating, &ts,
	)
	if err != nil {
		return nil, err
	}

	if confirmed.Valid {
		v := confirmed.Bool
		l.UserConfirmed = &v
	}
	if rating.Valid {
		l.Rating = int(rating.Int64)
	}
	if t, parseErr := time.Parse(time.DateTime, ts); parseErr == nil {
		l.CreatedAt = t
	} else if t, parseErr := time.Parse(time.RFC3339, ts); parseErr == nil {
		l.CreatedAt = t
	}

	return &l, nil
}
