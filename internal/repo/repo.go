// Package repo defines the guest store contract shared by the postgres, bolt
// and memory backends.
package repo

import (
	"context"
	"errors"

	"github.com/diagnosis/guest-registry/internal/domain"
)

var (
	// ErrRoomTaken is returned by Insert when another guest already occupies the room.
	ErrRoomTaken = errors.New("room already occupied")
	// ErrAmbiguous is returned by FindOne when more than one row matches the key.
	ErrAmbiguous = errors.New("more than one guest matches key")
	// ErrNoRows is returned by IncrementWifiLoginCount when nothing matched.
	ErrNoRows = errors.New("no guest matches key")
)

type GuestRepository interface {
	// Insert stores g, filling in ID, CreatedAt and UpdatedAt.
	Insert(ctx context.Context, g *domain.Guest) error
	// FindOne returns (nil, nil) when no guest matches.
	FindOne(ctx context.Context, lastName string, roomNumber int) (*domain.Guest, error)
	// IncrementWifiLoginCount adds one to the counter without reading it first.
	IncrementWifiLoginCount(ctx context.Context, lastName string, roomNumber int) error
	// OccupiedRooms lists assigned room numbers in ascending order.
	OccupiedRooms(ctx context.Context) ([]int, error)
	Ping(ctx context.Context) error
}
