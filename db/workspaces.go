// ABOUTME: Workspace and membership database operations
// ABOUTME: Invite code generation, idempotent joins, membership checks
package db

import (
	"crypto/rand"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Workspace struct {
	ID         string
	Name       string
	InviteCode string
	CreatedAt  time.Time
}

type Membership struct {
	WorkspaceID string
	UserID      string
	Role        string
	CreatedAt   time.Time
}

// inviteAlphabet omits easily-confused characters (I, O, 0, 1).
const inviteAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func newInviteCode() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate invite code: %w", err)
	}
	for i, b := range buf {
		buf[i] = inviteAlphabet[int(b)%len(inviteAlphabet)]
	}
	return string(buf), nil
}

func CreateWorkspace(db *sql.DB, name string) (*Workspace, error) {
	code, err := newInviteCode()
	if err != nil {
		return nil, err
	}

	ws := &Workspace{
		ID:         uuid.New().String(),
		Name:       name,
		InviteCode: code,
		CreatedAt:  time.Now().UTC(),
	}

	_, err = db.Exec(`
		INSERT INTO workspaces (id, name, invite_code, created_at)
		VALUES (?, ?, ?, ?)
	`, ws.ID, ws.Name, ws.InviteCode, ws.CreatedAt)
	if err != nil {
		return nil, err
	}
	return ws, nil
}

func GetWorkspace(db *sql.DB, id string) (*Workspace, error) {
	ws := &Workspace{}
	err := db.QueryRow(`
		SELECT id, name, invite_code, created_at
		FROM workspaces WHERE id = ?
	`, id).Scan(&ws.ID, &ws.Name, &ws.InviteCode, &ws.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ws, nil
}

func GetWorkspaceByInviteCode(db *sql.DB, code string) (*Workspace, error) {
	ws := &Workspace{}
	err := db.QueryRow(`
		SELECT id, name, invite_code, created_at
		FROM workspaces WHERE invite_code = ?
	`, code).Scan(&ws.ID, &ws.Name, &ws.InviteCode, &ws.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ws, nil
}

// AddMember joins a user to a workspace. Joining twice is a no-op and
// keeps the original role.
func AddMember(db *sql.DB, workspaceID, userID, role string) error {
	_, err := db.Exec(`
		INSERT OR IGNORE INTO memberships (workspace_id, user_id, role, created_at)
		VALUES (?, ?, ?, ?)
	`, workspaceID, userID, role, time.Now().UTC())
	return err
}

func GetMembership(db *sql.DB, workspaceID, userID string) (*Membership, error) {
	m := &Membership{}
	err := db.QueryRow(`
		SELECT workspace_id, user_id, role, created_at
		FROM memberships WHERE workspace_id = ? AND user_id = ?
	`, workspaceID, userID).Scan(&m.WorkspaceID, &m.UserID, &m.Role, &m.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}
