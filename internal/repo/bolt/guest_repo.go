// Package bolt stores guests in a single bbolt file. Guests are keyed by room
// number, which is unique among checked-in guests; the surname is checked on
// read.
package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/diagnosis/guest-registry/internal/domain"
	"github.com/diagnosis/guest-registry/internal/repo"
	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

const bucketGuests = "guests"

type GuestRepository struct {
	db *bolt.DB
}

var _ repo.GuestRepository = (*GuestRepository)(nil)

// Open opens (or creates) the database file at path.
func Open(path string) (*bolt.DB, error) {
	return bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
}

func NewGuestRepository(db *bolt.DB) (*GuestRepository, error) {
	return &GuestRepository{db: db}, db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketGuests))
		return err
	})
}

func roomKey(room int) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(room))
	return k
}

func (r *GuestRepository) Insert(ctx context.Context, g *domain.Guest) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketGuests))
		key := roomKey(g.RoomNumber)
		if b.Get(key) != nil {
			return repo.ErrRoomTaken
		}

		now := time.Now().UTC()
		stored := *g
		stored.ID = uuid.NewString()
		stored.WifiLoginCount = 0
		stored.CreatedAt = now
		stored.UpdatedAt = now

		j, err := json.Marshal(&stored)
		if err != nil {
			return err
		}
		if err := b.Put(key, j); err != nil {
			return err
		}
		*g = stored
		return nil
	})
}

func (r *GuestRepository) FindOne(ctx context.Context, lastName string, roomNumber int) (*domain.Guest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var found *domain.Guest
	err := r.db.View(func(tx *bolt.Tx) error {
		g, err := get(tx.Bucket([]byte(bucketGuests)), roomNumber)
		if err != nil || g == nil || g.LastName != lastName {
			return err
		}
		found = g
		return nil
	})
	return found, err
}

// IncrementWifiLoginCount runs inside a write transaction; bbolt allows one
// writer at a time, which makes the read and the write a single atomic step.
func (r *GuestRepository) IncrementWifiLoginCount(ctx context.Context, lastName string, roomNumber int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketGuests))
		g, err := get(b, roomNumber)
		if err != nil {
			return err
		}
		if g == nil || g.LastName != lastName {
			return repo.ErrNoRows
		}

		g.WifiLoginCount++
		g.UpdatedAt = time.Now().UTC()
		j, err := json.Marshal(g)
		if err != nil {
			return err
		}
		return b.Put(roomKey(roomNumber), j)
	})
}

func (r *GuestRepository) OccupiedRooms(ctx context.Context) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rooms []int
	err := r.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketGuests)).ForEach(func(k, _ []byte) error {
			rooms = append(rooms, int(binary.BigEndian.Uint64(k)))
			return nil
		})
	})
	return rooms, err
}

func (r *GuestRepository) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket([]byte(bucketGuests)) == nil {
			return fmt.Errorf("bucket %q missing", bucketGuests)
		}
		return nil
	})
}

func get(b *bolt.Bucket, room int) (*domain.Guest, error) {
	v := b.Get(roomKey(room))
	if v == nil {
		return nil, nil
	}
	g := &domain.Guest{}
	if err := json.Unmarshal(v, g); err != nil {
		return nil, fmt.Errorf("decode guest in room %d: %w", room, err)
	}
	return g, nil
}
