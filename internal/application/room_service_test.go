package application

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRoomService_CreateRoom(t *testing.T) {
	t.Parallel()

	repo := newMemoryRepo()
	svc := NewRoomService(repo, sequentialIDs("room"), func() time.Time { return testNow })

	room, err := svc.CreateRoom(context.Background(), adminPrincipal, RoomInput{Name: " Lab 1 ", Description: "Bloco A", Capacity: 30})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if room.ID != "room-1" || room.Name != "Lab 1" || !room.CreatedAt.Equal(testNow) {
		t.Fatalf("unexpected room %+v", room)
	}

	if _, err := svc.CreateRoom(context.Background(), adminPrincipal, RoomInput{Name: "Lab 1"}); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	if _, err := svc.CreateRoom(context.Background(), teacherPrincipal, RoomInput{Name: "Lab 2"}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	var vErr *ValidationError
	if _, err := svc.CreateRoom(context.Background(), adminPrincipal, RoomInput{Capacity: -1}); !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(vErr.FieldErrors) != 2 {
		t.Fatalf("expected name and capacity errors, got %v", vErr.FieldErrors)
	}
}

func TestRoomService_GetAndList(t *testing.T) {
	t.Parallel()

	repo := newMemoryRepo().withRoom("lab-2").withRoom("lab-1")
	svc := NewRoomService(repo, nil, nil)

	rooms, err := svc.ListRooms(context.Background(), teacherPrincipal)
	if err != nil || len(rooms) != 2 || rooms[0].ID != "lab-1" {
		t.Fatalf("unexpected rooms %+v, %v", rooms, err)
	}
	if _, err := svc.GetRoom(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
