package snapshot

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/firefly-engineering/sandnet-ctl/internal/netclient"
)

// Snapshot is one persisted point-in-time capture.
type Snapshot struct {
	// ID is the hex digest of the captured state. Derived, never assigned.
	ID string `json:"id"`

	// Environment is the name of the environment the capture was taken from.
	Environment string `json:"environment"`

	// Label is an optional human-readable tag.
	Label string `json:"label,omitempty"`

	// Slot is the clock position at capture time.
	Slot uint64 `json:"slot"`

	Accounts []netclient.Account `json:"accounts"`
	Programs []netclient.Program `json:"programs"`

	CreatedAt time.Time `json:"createdAt"`
}

// digestPayload is the canonical form hashed to derive a snapshot ID.
// Label and CreatedAt are excluded so re-captures of identical state
// produce the same identifier.
type digestPayload struct {
	Environment string              `json:"environment"`
	Slot        uint64              `json:"slot"`
	Accounts    []netclient.Account `json:"accounts"`
	Programs    []netclient.Program `json:"programs"`
}

// ComputeID derives the content-addressed identifier for this snapshot.
func (s *Snapshot) ComputeID() (string, error) {
	data, err := json.Marshal(digestPayload{
		Environment: s.Environment,
		Slot:        s.Slot,
		Accounts:    s.Accounts,
		Programs:    s.Programs,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot for hashing: %w", err)
	}
	return fmt.Sprintf("%x", sha256.Sum256(data)), nil
}

// ShortID returns the 12-character display prefix of the snapshot ID.
func (s *Snapshot) ShortID() string {
	if len(s.ID) <= 12 {
		return s.ID
	}
	return s.ID[:12]
}
