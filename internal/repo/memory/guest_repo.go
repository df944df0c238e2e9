// Package memory is an in-process guest store used by tests and by
// STORE_DRIVER=memory.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/diagnosis/guest-registry/internal/domain"
	"github.com/diagnosis/guest-registry/internal/repo"
	"github.com/google/uuid"
)

type GuestRepository struct {
	mu     sync.RWMutex
	guests map[domain.Key]*domain.Guest
	rooms  map[int]domain.Key
}

var _ repo.GuestRepository = (*GuestRepository)(nil)

func NewGuestRepository() *GuestRepository {
	return &GuestRepository{
		guests: make(map[domain.Key]*domain.Guest),
		rooms:  make(map[int]domain.Key),
	}
}

func (r *GuestRepository) Insert(ctx context.Context, g *domain.Guest) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.rooms[g.RoomNumber]; taken {
		return repo.ErrRoomTaken
	}

	now := time.Now().UTC()
	g.ID = uuid.NewString()
	g.CreatedAt = now
	g.UpdatedAt = now

	stored := *g
	r.guests[g.Key()] = &stored
	r.rooms[g.RoomNumber] = g.Key()
	return nil
}

func (r *GuestRepository) FindOne(ctx context.Context, lastName string, roomNumber int) (*domain.Guest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.guests[domain.Key{LastName: lastName, RoomNumber: roomNumber}]
	if !ok {
		return nil, nil
	}
	out := *g
	return &out, nil
}

func (r *GuestRepository) IncrementWifiLoginCount(ctx context.Context, lastName string, roomNumber int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.guests[domain.Key{LastName: lastName, RoomNumber: roomNumber}]
	if !ok {
		return repo.ErrNoRows
	}
	g.WifiLoginCount++
	g.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *GuestRepository) OccupiedRooms(ctx context.Context) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	rooms := make([]int, 0, len(r.rooms))
	for room := range r.rooms {
		rooms = append(rooms, room)
	}
	r.mu.RUnlock()

	sort.Ints(rooms)
	return rooms, nil
}

func (r *GuestRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}
