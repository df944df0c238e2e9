package main

import (
	"context"
	"testing"

	"github.com/diagnosis/guest-registry/internal/domain"
	"github.com/diagnosis/guest-registry/internal/repo/memory"
	"github.com/diagnosis/guest-registry/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAllocator_SequenceResumesWithoutRedis(t *testing.T) {
	ctx := context.Background()
	guests := memory.NewGuestRepository()
	for room := 100; room < 125; room++ {
		require.NoError(t, guests.Insert(ctx, &domain.Guest{FirstName: "a", LastName: "b", RoomNumber: room}))
	}

	cfg := config.RoomsConfig{Strategy: "sequence", Counter: "redis", First: 100, Last: 999, MaxAttempts: 10}
	alloc, err := newAllocator(ctx, cfg, guests, nil)
	require.NoError(t, err)

	room, err := alloc.Allocate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 125, room)
}

func TestNewAllocator_UnknownStrategy(t *testing.T) {
	_, err := newAllocator(context.Background(), config.RoomsConfig{Strategy: "random", First: 1, Last: 2}, memory.NewGuestRepository(), nil)
	assert.Error(t, err)
}
