package domain

import (
	"encoding/json"
	"fmt"
)

// ChangeKind enumerates the known change-notification kinds published by
// the directory backend.
type ChangeKind string

const (
	KindPlaceCreated  ChangeKind = "place.created"
	KindPlaceUpdated  ChangeKind = "place.updated"
	KindPlaceDeleted  ChangeKind = "place.deleted"
	KindFollowAdded   ChangeKind = "follow.added"
	KindFollowRemoved ChangeKind = "follow.removed"
)

// Change is a decoded change notification. Each known kind gets its own
// variant; anything else decodes to UnknownChange rather than failing.
type Change interface {
	Kind() ChangeKind
}

// PlaceChange reports that a place owned by OwnerID was created, updated,
// or deleted.
type PlaceChange struct {
	What    ChangeKind `json:"kind"`
	OwnerID string     `json:"owner_id"`
	PlaceID string     `json:"place_id"`
}

func (c PlaceChange) Kind() ChangeKind { return c.What }

// FollowChange reports that the active user started or stopped following
// UserID.
type FollowChange struct {
	What   ChangeKind `json:"kind"`
	UserID string     `json:"user_id"`
}

func (c FollowChange) Kind() ChangeKind { return c.What }

// UnknownChange carries a notification of a kind this build does not
// understand. The payload is preserved for logging.
type UnknownChange struct {
	RawKind string          `json:"kind"`
	Payload json.RawMessage `json:"-"`
}

func (c UnknownChange) Kind() ChangeKind { return ChangeKind(c.RawKind) }

// DecodeChange parses a notification payload into its typed variant.
// Unknown kinds are not an error; they decode to UnknownChange.
func DecodeChange(data []byte) (Change, error) {
	var probe struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decode change kind: %w", err)
	}

	switch ChangeKind(probe.Kind) {
	case KindPlaceCreated, KindPlaceUpdated, KindPlaceDeleted:
		var c PlaceChange
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("decode %s: %w", probe.Kind, err)
		}
		return c, nil
	case KindFollowAdded, KindFollowRemoved:
		var c FollowChange
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("decode %s: %w", probe.Kind, err)
		}
		return c, nil
	default:
		return UnknownChange{RawKind: probe.Kind, Payload: append([]byte(nil), data...)}, nil
	}
}
