package profiles

import (
	"context"
	"database/sql"
	"time"

	"github.com/dmitrijs2005/clogkeeper/internal/dbx"
)

// Entry is a container found on disk together with what the registry
// knows about it.
type Entry struct {
	Username string
	Profile  *Profile // nil when the container was not registered here
}

// Registry matches containers found on disk against stored profiles.
type Registry struct {
	db *sql.DB
}

func NewRegistry(db *sql.DB) *Registry {
	return &Registry{db: db}
}

func (r *Registry) repo(db dbx.DBTX) Repository {
	return NewSQLiteRepository(db)
}

// Registered records a freshly registered container.
func (r *Registry) Registered(ctx context.Context, username, path string, createdAt time.Time) error {
	return r.repo(r.db).Put(ctx, Profile{Username: username, Path: path, CreatedAt: createdAt})
}

// Opened records a successful unlock.
func (r *Registry) Opened(ctx context.Context, username string, at time.Time) error {
	return r.repo(r.db).TouchOpened(ctx, username, at)
}

// Reconcile pairs the usernames found on disk with their profiles and, in
// one transaction, drops profiles whose container no longer exists.
func (r *Registry) Reconcile(ctx context.Context, onDisk []string) ([]Entry, error) {
	var entries []Entry
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := r.repo(tx)
		all, err := repo.List(ctx)
		if err != nil {
			return err
		}
		known := make(map[string]*Profile, len(all))
		for i := range all {
			known[all[i].Username] = &all[i]
		}

		present := make(map[string]bool, len(onDisk))
		entries = make([]Entry, 0, len(onDisk))
		for _, u := range onDisk {
			present[u] = true
			entries = append(entries, Entry{Username: u, Profile: known[u]})
		}
		for u := range known {
			if !present[u] {
				if err := repo.Delete(ctx, u); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
