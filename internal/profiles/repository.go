package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/clogkeeper/internal/dbx"
)

// Profile is one registered container.
type Profile struct {
	Username     string
	Path         string
	CreatedAt    time.Time
	LastOpenedAt time.Time // zero if never unlocked after registration
}

type Repository interface {
	Put(ctx context.Context, p Profile) error
	Get(ctx context.Context, username string) (*Profile, error)
	List(ctx context.Context) ([]Profile, error)
	TouchOpened(ctx context.Context, username string, at time.Time) error
	Delete(ctx context.Context, username string) error
}

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Put inserts a profile or replaces the one with the same username.
func (r *SQLiteRepository) Put(ctx context.Context, p Profile) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (username, path, created_at, last_opened_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(username) DO UPDATE SET
			path = excluded.path,
			created_at = excluded.created_at,
			last_opened_at = excluded.last_opened_at
	`, p.Username, p.Path, p.CreatedAt.Unix(), nullUnix(p.LastOpenedAt))
	if err != nil {
		return fmt.Errorf("failed to put profile[%s]: %w", p.Username, err)
	}
	return nil
}

// Get returns (nil, nil) when no profile exists for username.
func (r *SQLiteRepository) Get(ctx context.Context, username string) (*Profile, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT username, path, created_at, last_opened_at FROM profiles WHERE username = ?
	`, username)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile[%s]: %w", username, err)
	}
	return p, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]Profile, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT username, path, created_at, last_opened_at FROM profiles ORDER BY username
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var result []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile row: %w", err)
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate profile rows: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) TouchOpened(ctx context.Context, username string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE profiles SET last_opened_at = ? WHERE username = ?`, at.Unix(), username)
	if err != nil {
		return fmt.Errorf("failed to touch profile[%s]: %w", username, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, username string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM profiles WHERE username = ?`, username)
	if err != nil {
		return fmt.Errorf("failed to delete profile[%s]: %w", username, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(s scanner) (*Profile, error) {
	var (
		p        Profile
		created  int64
		lastOpen sql.NullInt64
	)
	if err := s.Scan(&p.Username, &p.Path, &created, &lastOpen); err != nil {
		return nil, err
	}
	p.CreatedAt = time.Unix(created, 0).UTC()
	if lastOpen.Valid {
		p.LastOpenedAt = time.Unix(lastOpen.Int64, 0).UTC()
	}
	return &p, nil
}

func nullUnix(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}
