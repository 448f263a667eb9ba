package model

import (
	"fmt"
	"strconv"
	"strings"
)

// IdentityKind distinguishes the two principals the platform knows about:
// diners who place bookings and restaurants that receive them.
type IdentityKind string

const (
	KindDiner      IdentityKind = "diner"
	KindRestaurant IdentityKind = "restaurant"
)

// Identity is the authenticated kind+id pair bound to a session or to a
// live connection.  For diners the ID is the user ID; for restaurant
// accounts it is the restaurant ID resolved at login time, so ownership
// checks and event targeting never need the owning user row again.
type Identity struct {
	Kind IdentityKind `json:"kind"`
	ID   uint64       `json:"id"`
}

// String renders the identity as "kind:id", the format persisted in the
// session store.
func (i Identity) String() string {
	return fmt.Sprintf("%s:%d", i.Kind, i.ID)
}

// ParseIdentity is the inverse of String.  It rejects unknown kinds and
// non-numeric or zero IDs.
func ParseIdentity(s string) (Identity, error) {
	kind, idStr, ok := strings.Cut(s, ":")
	if !ok {
		return Identity{}, fmt.Errorf("malformed identity %q", s)
	}
	k := IdentityKind(kind)
	if k != KindDiner && k != KindRestaurant {
		return Identity{}, fmt.Errorf("unknown identity kind %q", kind)
	}
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil || id == 0 {
		return Identity{}, fmt.Errorf("invalid identity id %q", idStr)
	}
	return Identity{Kind: k, ID: id}, nil
}
