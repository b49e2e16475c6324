package widgetstate

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/snapvault/widgetsync/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, instanceID string) ([]byte, error) {
	var document []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT document FROM widget_states WHERE instance_id = ?`, instanceID).Scan(&document)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get widget state[%s]: %w", instanceID, err)
	}
	return document, nil
}

func (r *SQLiteRepository) Save(ctx context.Context, instanceID string, document []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO widget_states (instance_id, document) VALUES (?, ?)
		ON CONFLICT(instance_id) DO UPDATE SET document = excluded.document
	`, instanceID, document)
	if err != nil {
		return fmt.Errorf("failed to save widget state[%s]: %w", instanceID, err)
	}
	return nil
}

// Delete removes the document for an instance id. Deleting an id without a
// document is not an error: the host may remove instances we never wrote.
func (r *SQLiteRepository) Delete(ctx context.Context, instanceID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM widget_states WHERE instance_id = ?`, instanceID)
	if err != nil {
		return fmt.Errorf("failed to delete widget state[%s]: %w", instanceID, err)
	}
	return nil
}
