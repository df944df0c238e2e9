package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/diagnosis/guest-registry/internal/domain"
	"github.com/diagnosis/guest-registry/internal/repo"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// Schema is applied by EnsureSchema when DB_AUTO_MIGRATE is set. Every row is a
// checked-in guest, so room_number is unique across the table.
const Schema = `
CREATE TABLE IF NOT EXISTS guests (
	id               uuid PRIMARY KEY,
	first_name       text        NOT NULL,
	last_name        text        NOT NULL,
	room_number      integer     NOT NULL CHECK (room_number > 0),
	wifi_login_count integer     NOT NULL DEFAULT 0 CHECK (wifi_login_count >= 0),
	created_at       timestamptz NOT NULL DEFAULT now(),
	updated_at       timestamptz NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS guests_room_number_key ON guests (room_number);
CREATE INDEX IF NOT EXISTS guests_last_name_room_idx ON guests (last_name, room_number);
`

const guestCols = `id, first_name, last_name, room_number, wifi_login_count, created_at, updated_at`

type GuestRepository struct {
	pool *pgxpool.Pool
}

var _ repo.GuestRepository = (*GuestRepository)(nil)

func NewGuestRepository(pool *pgxpool.Pool) *GuestRepository {
	return &GuestRepository{pool: pool}
}

func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, err := pool.Exec(ctx, Schema)
	return err
}

func (r *GuestRepository) Insert(ctx context.Context, g *domain.Guest) error {
	const q = `INSERT INTO guests (id, first_name, last_name, room_number, wifi_login_count)
	VALUES ($1, $2, $3, $4, 0)
	RETURNING ` + guestCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	err := r.pool.QueryRow(ctx, q, uuid.NewString(), g.FirstName, g.LastName, g.RoomNumber).Scan(
		&g.ID, &g.FirstName, &g.LastName, &g.RoomNumber, &g.WifiLoginCount, &g.CreatedAt, &g.UpdatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return repo.ErrRoomTaken
	}
	return err
}

func (r *GuestRepository) FindOne(ctx context.Context, lastName string, roomNumber int) (*domain.Guest, error) {
	// LIMIT 2 is enough to tell "one" from "more than one".
	const q = `SELECT ` + guestCols + ` FROM guests WHERE last_name=$1 AND room_number=$2 LIMIT 2`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, lastName, roomNumber)
	if err != nil {
		return nil, err
	}
	guests, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Guest, error) {
		var g domain.Guest
		err := row.Scan(&g.ID, &g.FirstName, &g.LastName, &g.RoomNumber, &g.WifiLoginCount, &g.CreatedAt, &g.UpdatedAt)
		return g, err
	})
	if err != nil {
		return nil, err
	}

	switch len(guests) {
	case 0:
		return nil, nil
	case 1:
		return &guests[0], nil
	default:
		return nil, repo.ErrAmbiguous
	}
}

func (r *GuestRepository) IncrementWifiLoginCount(ctx context.Context, lastName string, roomNumber int) error {
	const q = `UPDATE guests SET wifi_login_count = wifi_login_count + 1, updated_at = now()
	WHERE last_name=$1 AND room_number=$2`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tag, err := r.pool.Exec(ctx, q, lastName, roomNumber)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNoRows
	}
	return nil
}

func (r *GuestRepository) OccupiedRooms(ctx context.Context) ([]int, error) {
	const q = `SELECT room_number FROM guests ORDER BY room_number`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int])
}

func (r *GuestRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
