package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/diagnosis/guest-registry/internal/allocator"
	"github.com/diagnosis/guest-registry/internal/domain"
	"github.com/diagnosis/guest-registry/internal/repo"
	"github.com/diagnosis/guest-registry/pkg/events"
	"github.com/diagnosis/guest-registry/pkg/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const DefaultMaxAttempts = 10

var tracer = otel.GetTracerProvider().Tracer("github.com/diagnosis/guest-registry/internal/service")

type RegistryService interface {
	CheckIn(ctx context.Context, firstName, lastName string) (int, error)
	GetGuestByLastNameAndRoom(ctx context.Context, lastName string, roomNumber int) (*domain.Guest, error)
	IncrementWifiLoginCount(ctx context.Context, lastName string, roomNumber int) (bool, error)
}

type Options struct {
	// MaxAttempts bounds how many rooms CheckIn tries when the store reports
	// the allocated room as already taken.
	MaxAttempts int
	// Subject receives guest.checked.in events. Empty disables publishing.
	Subject string
}

type registryService struct {
	guests    repo.GuestRepository
	allocator allocator.Allocator
	publisher events.Publisher
	opts      Options
}

// NewRegistryService wires the service. publisher may be nil.
func NewRegistryService(
	guests repo.GuestRepository,
	alloc allocator.Allocator,
	publisher events.Publisher,
	opts Options,
) RegistryService {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	return &registryService{
		guests:    guests,
		allocator: alloc,
		publisher: publisher,
		opts:      opts,
	}
}

func (s *registryService) CheckIn(ctx context.Context, firstName, lastName string) (int, error) {
	ctx, span := tracer.Start(ctx, "CheckIn")
	defer span.End()

	first, err := domain.ValidateName(firstName)
	if err != nil {
		return 0, fail(span, validationError(fmt.Errorf("firstName: %w", err)))
	}
	last, err := domain.ValidateName(lastName)
	if err != nil {
		return 0, fail(span, validationError(fmt.Errorf("lastName: %w", err)))
	}

	for attempt := 1; attempt <= s.opts.MaxAttempts; attempt++ {
		room, err := s.allocator.Allocate(ctx)
		if err != nil {
			return 0, fail(span, allocationError(err))
		}

		guest := &domain.Guest{FirstName: first, LastName: last, RoomNumber: room}
		err = s.guests.Insert(ctx, guest)
		if errors.Is(err, repo.ErrRoomTaken) {
			logger.DebugContext(ctx, "Room taken concurrently, allocating again", "room_number", room, "attempt", attempt)
			continue
		}
		if err != nil {
			return 0, fail(span, storeError("insert guest", err))
		}

		span.SetAttributes(attribute.Int("guest.room_number", room), attribute.Int("allocation.attempts", attempt))
		logger.InfoContext(ctx, "Guest checked in", "guest_id", guest.ID, "room_number", room)
		s.publishCheckedIn(ctx, guest)
		return room, nil
	}

	return 0, fail(span, allocationError(fmt.Errorf("%d attempts collided with occupied rooms", s.opts.MaxAttempts)))
}

func (s *registryService) GetGuestByLastNameAndRoom(ctx context.Context, lastName string, roomNumber int) (*domain.Guest, error) {
	ctx, span := tracer.Start(ctx, "GetGuestByLastNameAndRoom")
	defer span.End()

	key, err := domain.NewKey(lastName, roomNumber)
	if err != nil {
		return nil, fail(span, validationError(err))
	}

	guest, err := s.guests.FindOne(ctx, key.LastName, key.RoomNumber)
	if err != nil {
		return nil, fail(span, storeError("find guest", err))
	}
	if guest == nil {
		return nil, fail(span, fmt.Errorf("%w: %s in room %d", ErrNotFound, key.LastName, key.RoomNumber))
	}
	return guest, nil
}

func (s *registryService) IncrementWifiLoginCount(ctx context.Context, lastName string, roomNumber int) (bool, error) {
	ctx, span := tracer.Start(ctx, "IncrementWifiLoginCount")
	defer span.End()

	key, err := domain.NewKey(lastName, roomNumber)
	if err != nil {
		return false, fail(span, validationError(err))
	}

	err = s.guests.IncrementWifiLoginCount(ctx, key.LastName, key.RoomNumber)
	if errors.Is(err, repo.ErrNoRows) {
		return false, fail(span, fmt.Errorf("%w: %s in room %d", ErrNotFound, key.LastName, key.RoomNumber))
	}
	if err != nil {
		return false, fail(span, storeError("increment wifi login count", err))
	}
	return true, nil
}

func (s *registryService) publishCheckedIn(ctx context.Context, g *domain.Guest) {
	if s.publisher == nil || s.opts.Subject == "" {
		return
	}
	ev, err := events.NewGuestEvent(events.GuestCheckedIn, events.GuestCheckedInEvent{
		GuestID:     g.ID,
		FirstName:   g.FirstName,
		LastName:    g.LastName,
		RoomNumber:  g.RoomNumber,
		CheckedInAt: g.CreatedAt,
	})
	if err == nil {
		err = s.publisher.Publish(ctx, s.opts.Subject, ev)
	}
	if err != nil {
		logger.ErrorContext(ctx, "Failed to publish guest checked in event", "error", err, "guest_id", g.ID)
	}
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
