package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Letter is the single stored message owned by one participant.
// Display fields are captured at submission time for auditing only.
type Letter struct {
	ParticipantID int64
	Username      string
	FirstName     string
	LastName      string
	Text          string
	UpdatedAt     time.Time
}

// ErrNotFound is returned by Get when no letter exists for the participant.
var ErrNotFound = errors.New("letter not found")

// Upsert inserts a letter or replaces the existing one for the same
// participant, atomically. Uses ON CONFLICT(participant_id) DO UPDATE so a
// resubmission replaces the whole row - no partial overwrite is ever visible.
//
// Idempotent under retry with identical content: re-applying the same letter
// leaves the stored record unchanged in effect.
func (s *Store) Upsert(ctx context.Context, l Letter) error {
	updatedAt := l.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO letters
		(participant_id, username, first_name, last_name, letter_text, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(participant_id) DO UPDATE SET
			username    = excluded.username,
			first_name  = excluded.first_name,
			last_name   = excluded.last_name,
			letter_text = excluded.letter_text,
			updated_at  = excluded.updated_at
	`,
		l.ParticipantID,
		l.Username,
		l.FirstName,
		l.LastName,
		l.Text,
		updatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert letter: %w", err)
	}

	return nil
}

// Get returns the current letter for a participant.
// Returns ErrNotFound if the participant has never submitted.
func (s *Store) Get(ctx context.Context, participantID int64) (Letter, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT participant_id, username, first_name, last_name, letter_text, updated_at
		FROM letters
		WHERE participant_id = ?
	`, participantID)

	l, err := scanLetter(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Letter{}, ErrNotFound
	}
	if err != nil {
		return Letter{}, fmt.Errorf("get letter: %w", err)
	}

	return l, nil
}

// Exists reports whether a letter is stored for the participant.
// Consistent with Get: true implies a retrievable record.
func (s *Store) Exists(ctx context.Context, participantID int64) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM letters WHERE participant_id = ?`, participantID,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check letter exists: %w", err)
	}
	return true, nil
}

// Delete removes a participant's letter if present.
// Returns whether a record was actually removed.
func (s *Store) Delete(ctx context.Context, participantID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM letters WHERE participant_id = ?`, participantID,
	)
	if err != nil {
		return false, fmt.Errorf("delete letter: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete letter: rows affected: %w", err)
	}
	return affected > 0, nil
}

// ListAll returns every stored letter in deterministic order
// (participant id ascending). Used by the distribution run, which needs a
// consistent snapshot of the full set.
//
// Returns an empty slice (not nil) when no letters exist.
func (s *Store) ListAll(ctx context.Context) ([]Letter, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT participant_id, username, first_name, last_name, letter_text, updated_at
		FROM letters
		ORDER BY participant_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list letters: %w", err)
	}
	defer rows.Close()

	letters := []Letter{}
	for rows.Next() {
		l, err := scanLetter(rows)
		if err != nil {
			return nil, fmt.Errorf("list letters: %w", err)
		}
		letters = append(letters, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate letters: %w", err)
	}

	return letters, nil
}

// Count returns the number of stored letters.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM letters`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count letters: %w", err)
	}
	return n, nil
}

// scanner abstracts sql.Row and sql.Rows for scanLetter.
type scanner interface {
	Scan(dest ...any) error
}

func scanLetter(sc scanner) (Letter, error) {
	var l Letter
	var updatedAt string

	if err := sc.Scan(
		&l.ParticipantID,
		&l.Username,
		&l.FirstName,
		&l.LastName,
		&l.Text,
		&updatedAt,
	); err != nil {
		return Letter{}, err
	}

	ts, err := time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return Letter{}, fmt.Errorf("parse updated_at %q: %w", updatedAt, err)
	}
	l.UpdatedAt = ts

	return l, nil
}
