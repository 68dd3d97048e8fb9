// ABOUTME: Forward-only schema migrations for the state blob
// ABOUTME: Operates on the raw decoded map so old shapes are tolerated
package persist

import (
	"encoding/json"
	"fmt"

	"github.com/harperreed/fieldwork/models"
)

// Blob history:
//
//	v1  flat single-user layout, entity arrays at the top level
//	v2  per-user layout, entity sets under data_by_user keyed by user id
//	v3  workspace layout, data_by_workspace plus outbox and sync cursors
//
// Each step is pure and idempotent. Running the chain on an
// already-migrated blob changes nothing.

var entityKeys = []string{
	"customers", "parts", "labor_items", "jobs", "quotes", "invoices",
}

// Migrate parses a blob at any supported schema version and returns state
// at the current version. Blobs newer than this build are refused rather
// than silently stripped.
func Migrate(data []byte) (*models.AppState, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse store: %w", err)
	}

	version := blobVersion(raw)
	if version > models.SchemaVersion {
		return nil, fmt.Errorf("store schema v%d is newer than this build supports (v%d)",
			version, models.SchemaVersion)
	}

	if version < 2 {
		migrateV1toV2(raw)
	}
	if version < 3 {
		migrateV2toV3(raw)
	}
	raw["schema_version"] = models.SchemaVersion

	buf, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode migrated store: %w", err)
	}
	var state models.AppState
	if err := json.Unmarshal(buf, &state); err != nil {
		return nil, fmt.Errorf("failed to decode migrated store: %w", err)
	}
	return &state, nil
}

// BlobVersion reports the schema version of a raw blob without migrating
// it. Used by the migrate utility to describe its plan.
func BlobVersion(data []byte) (int, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return 0, fmt.Errorf("failed to parse store: %w", err)
	}
	return blobVersion(raw), nil
}

func blobVersion(raw map[string]any) int {
	v, ok := raw["schema_version"].(float64)
	if !ok || v < 1 {
		// Pre-versioning blobs carry no marker; treat as v1.
		return 1
	}
	return int(v)
}

// migrateV1toV2 moves the flat top-level entity arrays under data_by_user,
// keyed by the signed-in user id or "default" for anonymous blobs.
func migrateV1toV2(raw map[string]any) {
	moved := map[string]any{}
	for _, key := range entityKeys {
		if v, ok := raw[key]; ok {
			moved[key] = v
			delete(raw, key)
		}
	}
	if len(moved) == 0 {
		return
	}

	owner := "default"
	if cu, ok := raw["current_user"].(map[string]any); ok {
		if id, ok := cu["id"].(string); ok && id != "" {
			owner = id
		}
	}

	byUser, ok := raw["data_by_user"].(map[string]any)
	if !ok {
		byUser = map[string]any{}
	}
	if _, exists := byUser[owner]; !exists {
		byUser[owner] = moved
	}
	raw["data_by_user"] = byUser
}

// migrateV2toV3 introduces the workspace-keyed layout. Per-user data stays
// in place; the store adopts it into a workspace on first resolution.
func migrateV2toV3(raw map[string]any) {
	for _, key := range []string{"data_by_user", "data_by_workspace", "outbox", "sync_cursors"} {
		if _, ok := raw[key].(map[string]any); !ok {
			raw[key] = map[string]any{}
		}
	}
}
