package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Tree collections. The grocery data lives in two flat collections of
// opaque-key → JSON record.
const (
	CollectionItems   = "items"
	CollectionHistory = "history"
)

// TreeStore persists the grocery tree. Records are written and read as raw
// JSON; shape coercion belongs to the normalize package, not here.
type TreeStore struct {
	db *sql.DB
}

func NewTreeStore(db *sql.DB) *TreeStore {
	return &TreeStore{db: db}
}

// Push stores a new record under a freshly generated key and returns the key.
func (s *TreeStore) Push(collection string, record any) (string, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}
	key := uuid.NewString()
	_, err = s.db.Exec(
		`INSERT INTO tree_nodes (collection, key, record) VALUES (?, ?, ?)`,
		collection, key, string(data),
	)
	if err != nil {
		return "", fmt.Errorf("push record: %w", err)
	}
	return key, nil
}

// Get returns the raw record at the given path, or nil if absent.
func (s *TreeStore) Get(collection, key string) (json.RawMessage, error) {
	var data string
	err := s.db.QueryRow(
		`SELECT record FROM tree_nodes WHERE collection = ? AND key = ?`,
		collection, key,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return json.RawMessage(data), nil
}

// Update merges the given fields into the record at the given path.
// Returns false without error when the path does not exist.
func (s *TreeStore) Update(collection, key string, fields map[string]any) (bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	var data string
	err = tx.QueryRow(
		`SELECT record FROM tree_nodes WHERE collection = ? AND key = ?`,
		collection, key,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read record: %w", err)
	}

	var record map[string]any
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		// Corrupt node: overwrite from the fields alone.
		record = make(map[string]any)
	}
	for k, v := range fields {
		record[k] = v
	}

	merged, err := json.Marshal(record)
	if err != nil {
		return false, fmt.Errorf("marshal merged record: %w", err)
	}
	if _, err := tx.Exec(
		`UPDATE tree_nodes SET record = ? WHERE collection = ? AND key = ?`,
		string(merged), collection, key,
	); err != nil {
		return false, fmt.Errorf("write merged record: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit update: %w", err)
	}
	return true, nil
}

// Remove deletes the record at the given path. Removing an absent path is
// not an error.
func (s *TreeStore) Remove(collection, key string) error {
	_, err := s.db.Exec(
		`DELETE FROM tree_nodes WHERE collection = ? AND key = ?`,
		collection, key,
	)
	if err != nil {
		return fmt.Errorf("remove record: %w", err)
	}
	return nil
}

// RemoveAll deletes every record in a collection.
func (s *TreeStore) RemoveAll(collection string) error {
	_, err := s.db.Exec(`DELETE FROM tree_nodes WHERE collection = ?`, collection)
	if err != nil {
		return fmt.Errorf("remove collection: %w", err)
	}
	return nil
}

// BatchOp is one write in an atomic batch. A nil Record deletes the path;
// a non-nil Record replaces it (creating the path if needed). A delete uses
// the op's Key; a create with an empty Key gets a fresh one.
type BatchOp struct {
	Collection string
	Key        string
	Record     any
}

// UpdateBatch applies all ops in a single transaction. Either every write
// lands or none do, which is what makes clear-purchased all-or-nothing.
func (s *TreeStore) UpdateBatch(ops []BatchOp) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer tx.Rollback()

	for _, op := range ops {
		if op.Record == nil {
			if _, err := tx.Exec(
				`DELETE FROM tree_nodes WHERE collection = ? AND key = ?`,
				op.Collection, op.Key,
			); err != nil {
				return fmt.Errorf("batch delete %s/%s: %w", op.Collection, op.Key, err)
			}
			continue
		}

		data, err := json.Marshal(op.Record)
		if err != nil {
			return fmt.Errorf("batch marshal %s/%s: %w", op.Collection, op.Key, err)
		}
		key := op.Key
		if key == "" {
			key = uuid.NewString()
		}
		if _, err := tx.Exec(
			`INSERT INTO tree_nodes (collection, key, record) VALUES (?, ?, ?)
			 ON CONFLICT (collection, key) DO UPDATE SET record = excluded.record`,
			op.Collection, key, string(data),
		); err != nil {
			return fmt.Errorf("batch write %s/%s: %w", op.Collection, key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// Snapshot returns the entire collection. Deliveries are total and
// authoritative: callers replace their local state, never merge into it.
func (s *TreeStore) Snapshot(collection string) (map[string]json.RawMessage, error) {
	rows, err := s.db.Query(
		`SELECT key, record FROM tree_nodes WHERE collection = ? ORDER BY created_at ASC, key ASC`,
		collection,
	)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	defer rows.Close()

	snapshot := make(map[string]json.RawMessage)
	for rows.Next() {
		var key, data string
		if err := rows.Scan(&key, &data); err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		snapshot[key] = json.RawMessage(data)
	}
	return snapshot, rows.Err()
}
