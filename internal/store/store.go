// Package store implements the durable per-instance state store. Every
// mutation goes through Update, which runs a read-mutate-write cycle inside
// one SQL transaction, serialized per instance id. Concurrent updates to the
// same id therefore observe no lost updates; different ids never block each
// other beyond the underlying connection.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"

	"github.com/snapvault/widgetsync/internal/dbx"
	"github.com/snapvault/widgetsync/internal/logging"
	"github.com/snapvault/widgetsync/internal/models"
	"github.com/snapvault/widgetsync/internal/repositories/widgetstate"
)

// Mutator transforms one state document into the next. It must treat its
// argument as a fresh private copy (the store decodes a new value for every
// call) and return the complete replacement document.
type Mutator func(models.InstanceState) models.InstanceState

type Store struct {
	db     *sql.DB
	logger logging.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(db *sql.DB, logger logging.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger.With("component", "statestore"),
		locks:  make(map[string]*sync.Mutex),
	}
}

// lockFor returns the mutex guarding one instance id, creating it on first use.
func (s *Store) lockFor(instanceID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[instanceID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[instanceID] = l
	}
	return l
}

// decode turns raw document bytes into a state. A missing document or
// unreadable bytes both come back as the default document; corruption is
// logged and swallowed, never surfaced to callers.
func (s *Store) decode(ctx context.Context, instanceID string, raw []byte) models.InstanceState {
	if len(raw) == 0 {
		return models.DefaultInstanceState()
	}
	var state models.InstanceState
	if err := json.Unmarshal(raw, &state); err != nil {
		s.logger.Warn(ctx, "unreadable state document, resetting to default",
			"instance", instanceID, "error", err)
		return models.DefaultInstanceState()
	}
	if state.RemindItems == nil {
		state.RemindItems = []models.RemindItem{}
	}
	state.Normalize()
	return state
}

// Get returns the current document for an instance id, or the default
// document if none exists or it cannot be read.
func (s *Store) Get(ctx context.Context, instanceID string) models.InstanceState {
	repo := widgetstate.NewSQLiteRepository(s.db)
	raw, err := repo.Get(ctx, instanceID)
	if err != nil {
		s.logger.Warn(ctx, "failed to read state document", "instance", instanceID, "error", err)
		return models.DefaultInstanceState()
	}
	return s.decode(ctx, instanceID, raw)
}

// Update applies mutator to the current document and persists the result
// before returning it. Calls for the same instance id are serialized;
// interleavings across ids are unrestricted.
func (s *Store) Update(ctx context.Context, instanceID string, mutator Mutator) (models.InstanceState, error) {
	l := s.lockFor(instanceID)
	l.Lock()
	defer l.Unlock()

	var next models.InstanceState
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := widgetstate.NewSQLiteRepository(tx)

		raw, err := repo.Get(ctx, instanceID)
		if err != nil {
			return err
		}

		next = mutator(s.decode(ctx, instanceID, raw))
		next.Normalize()

		encoded, err := json.Marshal(next)
		if err != nil {
			return err
		}
		return repo.Save(ctx, instanceID, encoded)
	})
	if err != nil {
		return models.InstanceState{}, err
	}
	return next, nil
}

// Delete removes the document for an instance id (invoked when the host
// reports the instance gone). Unknown ids are ignored.
func (s *Store) Delete(ctx context.Context, instanceID string) error {
	l := s.lockFor(instanceID)
	l.Lock()
	defer l.Unlock()

	repo := widgetstate.NewSQLiteRepository(s.db)
	return repo.Delete(ctx, instanceID)
}
