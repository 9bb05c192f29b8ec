package fleet

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/camhub/camhub/pkg/models"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Sentinel errors returned by node stores.
var (
	ErrNotFound    = errors.New("node not found")
	ErrDuplicateID = errors.New("node id already exists")
)

// Store is the persistence contract for node records. The registry is
// the sole owner of node lifetime; probes never write through this
// interface. Implementations must serialize mutations and survive
// process restarts. SQLNodeStore (shared SQLite) and FileStore
// (atomic-rename JSON) both satisfy it.
type Store interface {
	Create(ctx context.Context, n *models.Node) error
	Get(ctx context.Context, id string) (*models.Node, error)
	List(ctx context.Context) ([]models.Node, error)
	Update(ctx context.Context, n *models.Node) error
	Delete(ctx context.Context, id string) error
}

// Compile-time interface guard.
var _ Store = (*SQLNodeStore)(nil)

// SQLNodeStore persists nodes in the shared SQLite database.
// The store's single write connection serializes mutations.
type SQLNodeStore struct {
	db *sql.DB
}

// NewSQLNodeStore creates a node store backed by the given database.
func NewSQLNodeStore(db *sql.DB) *SQLNodeStore {
	return &SQLNodeStore{db: db}
}

// Create inserts a new node. Returns ErrDuplicateID when the id is
// taken. The PRIMARY KEY constraint is the duplicate check, so two
// concurrent creates of the same id cannot race past it.
func (s *SQLNodeStore) Create(ctx context.Context, n *models.Node) error {
	labels, caps, err := encodeJSONFields(n)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO fleet_nodes (
			id, name, base_url, auth_type, auth_token,
			labels, capabilities, transport, created_at, last_seen
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.Name, n.BaseURL, string(n.Auth.Type), n.Auth.Token,
		labels, caps, string(n.Transport), n.CreatedAt, n.LastSeen,
	)
	if err != nil {
		if isConstraintErr(err) {
			return ErrDuplicateID
		}
		return fmt.Errorf("insert node: %w", err)
	}
	return nil
}

// isConstraintErr reports whether err is a SQLite constraint violation.
// Extended result codes carry the primary code in the low byte.
func isConstraintErr(err error) bool {
	var se *sqlite.Error
	return errors.As(err, &se) && se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
}

// Get returns a node by id. Returns ErrNotFound when missing.
func (s *SQLNodeStore) Get(ctx context.Context, id string) (*models.Node, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, base_url, auth_type, auth_token,
			labels, capabilities, transport, created_at, last_seen
		FROM fleet_nodes WHERE id = ?`, id,
	)
	n, err := scanNode(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get node: %w", err)
	}
	return n, nil
}

// List returns all nodes in stable insertion order.
func (s *SQLNodeStore) List(ctx context.Context) ([]models.Node, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, base_url, auth_type, auth_token,
			labels, capabilities, transport, created_at, last_seen
		FROM fleet_nodes ORDER BY rowid`,
	)
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	defer rows.Close()

	var nodes []models.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan node row: %w", err)
		}
		nodes = append(nodes, *n)
	}
	return nodes, rows.Err()
}

// Update replaces an existing node. Returns ErrNotFound when missing.
func (s *SQLNodeStore) Update(ctx context.Context, n *models.Node) error {
	labels, caps, err := encodeJSONFields(n)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE fleet_nodes SET
			name = ?, base_url = ?, auth_type = ?, auth_token = ?,
			labels = ?, capabilities = ?, transport = ?, last_seen = ?
		WHERE id = ?`,
		n.Name, n.BaseURL, string(n.Auth.Type), n.Auth.Token,
		labels, caps, string(n.Transport), n.LastSeen, n.ID,
	)
	if err != nil {
		return fmt.Errorf("update node: %w", err)
	}
	if count, _ := res.RowsAffected(); count == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a node by id. Returns ErrNotFound when missing.
func (s *SQLNodeStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM fleet_nodes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete node: %w", err)
	}
	if count, _ := res.RowsAffected(); count == 0 {
		return ErrNotFound
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanNode(s scanner) (*models.Node, error) {
	var (
		n            models.Node
		authType     string
		labels, caps string
		transport    string
	)
	if err := s.Scan(
		&n.ID, &n.Name, &n.BaseURL, &authType, &n.Auth.Token,
		&labels, &caps, &transport, &n.CreatedAt, &n.LastSeen,
	); err != nil {
		return nil, err
	}
	n.Auth.Type = models.AuthType(authType)
	n.Transport = models.Transport(transport)
	if labels != "" {
		if err := json.Unmarshal([]byte(labels), &n.Labels); err != nil {
			return nil, fmt.Errorf("decode labels: %w", err)
		}
	}
	if caps != "" {
		if err := json.Unmarshal([]byte(caps), &n.Capabilities); err != nil {
			return nil, fmt.Errorf("decode capabilities: %w", err)
		}
	}
	return &n, nil
}

func encodeJSONFields(n *models.Node) (labels, caps string, err error) {
	lb, err := json.Marshal(n.Labels)
	if err != nil {
		return "", "", fmt.Errorf("encode labels: %w", err)
	}
	cp, err := json.Marshal(n.Capabilities)
	if err != nil {
		return "", "", fmt.Errorf("encode capabilities: %w", err)
	}
	return string(lb), string(cp), nil
}
