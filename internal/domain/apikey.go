package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Well-known permission tokens. The vocabulary is open: unknown strings are
// stored and matched as-is.
const (
	PermissionRead  = "read"
	PermissionWrite = "write"
)

// Permissions is a set of permission tokens stored as a JSON array column.
type Permissions []string

// Contains reports whether the set includes the given permission.
// Matching is exact string membership.
func (p Permissions) Contains(perm string) bool {
	for _, v := range p {
		if v == perm {
			return true
		}
	}
	return false
}

// Value implements driver.Valuer, encoding the set as JSON.
func (p Permissions) Value() (driver.Value, error) {
	if p == nil {
		p = Permissions{}
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner.
func (p *Permissions) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*p = nil
		return nil
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	default:
		return fmt.Errorf("cannot scan %T into Permissions", src)
	}
}

// APIKey is a credential for the external API. The plaintext key is only
// returned once on creation; only its hash is stored.
type APIKey struct {
	ID          string      `json:"id" db:"id"`
	UserID      string      `json:"-" db:"user_id"`
	Name        string      `json:"name" db:"name"`
	KeyHash     string      `json:"-" db:"key_hash"`
	KeyPrefix   string      `json:"key_prefix" db:"key_prefix"`
	Permissions Permissions `json:"permissions" db:"permissions"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	LastUsedAt  *time.Time  `json:"last_used_at,omitempty" db:"last_used_at"`
}

// Can reports whether the key grants the given permission.
func (k *APIKey) Can(perm string) bool {
	return k.Permissions.Contains(perm)
}

// CreateAPIKeyRequest is the request body for creating an API key.
type CreateAPIKeyRequest struct {
	Name        string   `json:"name"`
	Permissions []string `json:"permissions,omitempty"`
}

// CreateAPIKeyResponse is returned when creating an API key.
// The key is only shown once.
type CreateAPIKeyResponse struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Key         string      `json:"key"` // Only returned on creation
	KeyPrefix   string      `json:"key_prefix"`
	Permissions Permissions `json:"permissions"`
	CreatedAt   time.Time   `json:"created_at"`
}

// ListAPIKeysResponse wraps the key list for the settings page.
type ListAPIKeysResponse struct {
	APIKeys []*APIKey `json:"api_keys"`
}
