package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrEmptyName   = errors.New("name must not be empty")
	ErrInvalidRoom = errors.New("room number must be positive")
)

// Guest is a checked-in guest. Identity for lookups is (LastName, RoomNumber);
// ID is only an opaque store-assigned handle.
type Guest struct {
	ID             string    `json:"id"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	RoomNumber     int       `json:"roomNumber"`
	WifiLoginCount int       `json:"wifiLoginCount"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Key is the composite identity of a guest.
type Key struct {
	LastName   string
	RoomNumber int
}

// NewKey normalizes lastName and validates both parts.
func NewKey(lastName string, roomNumber int) (Key, error) {
	name, err := ValidateName(lastName)
	if err != nil {
		return Key{}, err
	}
	if roomNumber <= 0 {
		return Key{}, ErrInvalidRoom
	}
	return Key{LastName: name, RoomNumber: roomNumber}, nil
}

func (g *Guest) Key() Key {
	return Key{LastName: g.LastName, RoomNumber: g.RoomNumber}
}

// NormalizeName lower-cases a name so that lookups are case-insensitive by
// construction.
func NormalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ValidateName returns the normalized name, or ErrEmptyName if nothing is left.
func ValidateName(s string) (string, error) {
	name := NormalizeName(s)
	if name == "" {
		return "", ErrEmptyName
	}
	return name, nil
}
