// ABOUTME: Change event database operations for the sync server
// ABOUTME: Idempotent inserts keyed on event id, cursor-ordered reads
package db

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/harperreed/fieldwork/models"
)

// InsertChange stores one pushed event. Duplicate event ids within a
// workspace are ignored so devices can safely re-push after a lost
// response. Returns whether a row was actually written.
func InsertChange(db *sql.DB, workspaceID, deviceID string, ev models.ChangeEvent) (bool, error) {
	var deletedNs *int64
	if ev.DeletedAt != nil {
		ns := ev.DeletedAt.UnixNano()
		deletedNs = &ns
	}

	res, err := db.Exec(`
		INSERT OR IGNORE INTO changes
			(id, workspace_id, device_id, entity, op, row_json, updated_at_ns, deleted_at_ns, received_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, ev.ID.String(), workspaceID, deviceID, ev.Entity, ev.Op, string(ev.Row),
		ev.UpdatedAt.UnixNano(), deletedNs, time.Now().UTC())
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ChangesSince returns workspace events with updated_at strictly after
// since, oldest first. A nil since returns the full history.
func ChangesSince(db *sql.DB, workspaceID string, since *time.Time) ([]models.ChangeEvent, error) {
	var sinceNs int64
	if since != nil {
		sinceNs = since.UnixNano()
	}

	rows, err := db.Query(`
		SELECT id, entity, op, row_json, updated_at_ns, deleted_at_ns
		FROM changes
		WHERE workspace_id = ? AND updated_at_ns > ?
		ORDER BY updated_at_ns, seq
	`, workspaceID, sinceNs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.ChangeEvent
	for rows.Next() {
		var ev models.ChangeEvent
		var rowJSON string
		var updatedNs int64
		var deletedNs sql.NullInt64

		if err := rows.Scan(&ev.ID, &ev.Entity, &ev.Op, &rowJSON, &updatedNs, &deletedNs); err != nil {
			return nil, err
		}
		ev.Row = json.RawMessage(rowJSON)
		ev.UpdatedAt = time.Unix(0, updatedNs).UTC()
		if deletedNs.Valid {
			t := time.Unix(0, deletedNs.Int64).UTC()
			ev.DeletedAt = &t
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
