package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/room-booking/internal/availability"
	"github.com/example/room-booking/internal/persistence"
)

var (
	adminPrincipal   = Principal{UserID: "admin-1", Role: RoleAdmin}
	studentPrincipal = Principal{UserID: "student-1", Role: RoleStudent}
	facultyPrincipal = Principal{UserID: "faculty-1", Role: RoleFaculty}
)

type roomRepoStub struct {
	createErr error
	created   Room

	rooms  map[string]Room
	getErr error

	updateErr error
	updated   Room

	list    []Room
	listErr error
}

func (r *roomRepoStub) CreateRoom(ctx context.Context, room Room) (Room, error) {
	if r.createErr != nil {
		return Room{}, r.createErr
	}
	r.created = room
	return room, nil
}

func (r *roomRepoStub) GetRoom(ctx context.Context, id string) (Room, error) {
	if r.getErr != nil {
		return Room{}, r.getErr
	}
	room, ok := r.rooms[id]
	if !ok {
		return Room{}, persistence.ErrNotFound
	}
	return room, nil
}

func (r *roomRepoStub) UpdateRoom(ctx context.Context, room Room) (Room, error) {
	if r.updateErr != nil {
		return Room{}, r.updateErr
	}
	r.updated = room
	if r.rooms != nil {
		r.rooms[room.ID] = room
	}
	return room, nil
}

func (r *roomRepoStub) ListRooms(ctx context.Context) ([]Room, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]Room, len(r.list))
	copy(out, r.list)
	return out, nil
}

func activeRoomRepo(ids ...string) *roomRepoStub {
	repo := &roomRepoStub{rooms: make(map[string]Room)}
	for _, id := range ids {
		repo.rooms[id] = Room{ID: id, Name: id, Location: "Building A", Capacity: 30, Active: true}
	}
	return repo
}

type cacheSpy struct {
	invalidated []string
}

func (c *cacheSpy) Get(context.Context, string, time.Time) ([]availability.Interval, bool) {
	return nil, false
}

func (c *cacheSpy) Version(context.Context, string) uint64 { return 0 }

func (c *cacheSpy) Store(context.Context, string, time.Time, uint64, []availability.Interval) {}

func (c *cacheSpy) InvalidateRoom(_ context.Context, roomID string) {
	c.invalidated = append(c.invalidated, roomID)
}

func TestRoomService_CreateRoom(t *testing.T) {
	t.Run("requires administrator privileges", func(t *testing.T) {
		svc := NewRoomService(&roomRepoStub{}, nil, nil, nil)

		_, err := svc.CreateRoom(context.Background(), CreateRoomParams{
			Principal: facultyPrincipal,
			Input:     RoomInput{Name: "Lab 405", Location: "Building A", Capacity: 30},
		})

		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("validates required attributes", func(t *testing.T) {
		svc := NewRoomService(&roomRepoStub{}, nil, nil, nil)

		_, err := svc.CreateRoom(context.Background(), CreateRoomParams{
			Principal: adminPrincipal,
			Input:     RoomInput{Name: "   ", Location: "", Capacity: 0},
		})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"name", "location", "capacity"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected %s validation error, got %v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("persists active rooms for administrators", func(t *testing.T) {
		repo := &roomRepoStub{}
		now := time.Date(2025, time.September, 1, 9, 0, 0, 0, time.UTC)
		amenities := "  Projector  "
		svc := NewRoomService(repo, nil, func() string { return "room-1" }, func() time.Time { return now })

		created, err := svc.CreateRoom(context.Background(), CreateRoomParams{
			Principal: adminPrincipal,
			Input: RoomInput{
				Name:      "  Lab 405  ",
				Location:  "  Building A  ",
				Capacity:  30,
				Amenities: &amenities,
			},
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}

		if repo.created.ID != "room-1" {
			t.Fatalf("expected repository to receive generated ID, got %q", repo.created.ID)
		}
		if repo.created.Name != "Lab 405" || repo.created.Location != "Building A" {
			t.Fatalf("expected trimmed name and location, got %q %q", repo.created.Name, repo.created.Location)
		}
		if repo.created.Amenities == nil || *repo.created.Amenities != "Projector" {
			t.Fatalf("expected amenities to be trimmed, got %v", repo.created.Amenities)
		}
		if !repo.created.Active {
			t.Fatal("expected new rooms to be active")
		}
		if !created.CreatedAt.Equal(now) || !created.UpdatedAt.Equal(now) {
			t.Fatalf("expected timestamps to use injected clock, got created=%v updated=%v", created.CreatedAt, created.UpdatedAt)
		}
	})

	t.Run("maps repository errors to sentinel failures", func(t *testing.T) {
		repo := &roomRepoStub{createErr: persistence.ErrDuplicate}
		svc := NewRoomService(repo, nil, nil, nil)

		_, err := svc.CreateRoom(context.Background(), CreateRoomParams{
			Principal: adminPrincipal,
			Input:     RoomInput{Name: "Lab 405", Location: "Building A", Capacity: 30},
		})

		if !errors.Is(err, ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})
}

func TestRoomService_UpdateRoom(t *testing.T) {
	t.Run("returns not found for unknown rooms", func(t *testing.T) {
		svc := NewRoomService(activeRoomRepo(), nil, nil, nil)

		_, err := svc.UpdateRoom(context.Background(), UpdateRoomParams{
			Principal: adminPrincipal,
			RoomID:    "missing",
			Input:     RoomInput{Name: "Lab", Location: "A", Capacity: 10},
		})

		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("keeps the active flag and refreshes updated_at", func(t *testing.T) {
		repo := activeRoomRepo("room-1")
		created := repo.rooms["room-1"].CreatedAt
		now := time.Date(2025, time.September, 2, 9, 0, 0, 0, time.UTC)
		svc := NewRoomService(repo, nil, nil, func() time.Time { return now })

		updated, err := svc.UpdateRoom(context.Background(), UpdateRoomParams{
			Principal: adminPrincipal,
			RoomID:    "room-1",
			Input:     RoomInput{Name: "Lab 406", Location: "Building B", Capacity: 12},
		})
		if err != nil {
			t.Fatalf("UpdateRoom failed: %v", err)
		}

		if updated.Name != "Lab 406" || updated.Capacity != 12 {
			t.Fatalf("unexpected update result: %+v", updated)
		}
		if !updated.Active {
			t.Fatal("expected room to stay active")
		}
		if !updated.CreatedAt.Equal(created) || !updated.UpdatedAt.Equal(now) {
			t.Fatalf("unexpected timestamps: %+v", updated)
		}
	})
}

func TestRoomService_DeactivateRoom(t *testing.T) {
	t.Run("requires administrator privileges", func(t *testing.T) {
		svc := NewRoomService(activeRoomRepo("room-1"), nil, nil, nil)

		if _, err := svc.DeactivateRoom(context.Background(), studentPrincipal, "room-1"); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("marks the room inactive and invalidates cached availability", func(t *testing.T) {
		repo := activeRoomRepo("room-1")
		cache := &cacheSpy{}
		svc := NewRoomService(repo, cache, nil, nil)

		room, err := svc.DeactivateRoom(context.Background(), adminPrincipal, "room-1")
		if err != nil {
			t.Fatalf("DeactivateRoom failed: %v", err)
		}
		if room.Active || repo.updated.Active {
			t.Fatalf("expected room to be inactive, got %+v", room)
		}
		if len(cache.invalidated) != 1 || cache.invalidated[0] != "room-1" {
			t.Fatalf("expected cache invalidation for room-1, got %v", cache.invalidated)
		}
	})

	t.Run("is a no-op for inactive rooms", func(t *testing.T) {
		repo := activeRoomRepo("room-1")
		room := repo.rooms["room-1"]
		room.Active = false
		repo.rooms["room-1"] = room
		svc := NewRoomService(repo, nil, nil, nil)

		if _, err := svc.DeactivateRoom(context.Background(), adminPrincipal, "room-1"); err != nil {
			t.Fatalf("DeactivateRoom failed: %v", err)
		}
		if repo.updated.ID != "" {
			t.Fatalf("expected no repository update, got %+v", repo.updated)
		}
	})
}

func TestRoomService_GetRoom(t *testing.T) {
	repo := activeRoomRepo("room-1")
	room := repo.rooms["room-1"]
	room.Active = false
	repo.rooms["room-1"] = room
	svc := NewRoomService(repo, nil, nil, nil)

	if _, err := svc.GetRoom(context.Background(), studentPrincipal, "room-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected inactive room to be hidden from students, got %v", err)
	}
	if _, err := svc.GetRoom(context.Background(), adminPrincipal, "room-1"); err != nil {
		t.Fatalf("expected administrators to see inactive rooms, got %v", err)
	}
}

func TestRoomService_ListRooms(t *testing.T) {
	repo := &roomRepoStub{list: []Room{
		{ID: "r3", Name: "seminar", Location: "Main Hall", Capacity: 20, Active: true},
		{ID: "r1", Name: "Lab 405", Location: "Building A", Capacity: 30, Active: true},
		{ID: "r2", Name: "Auditorium", Location: "MAIN HALL", Capacity: 200, Active: true},
		{ID: "r4", Name: "Archive", Location: "Main Hall", Capacity: 50, Active: false},
	}}
	svc := NewRoomService(repo, nil, nil, nil)
	ctx := context.Background()

	t.Run("sorts active rooms by case-folded name", func(t *testing.T) {
		rooms, err := svc.ListRooms(ctx, ListRoomsParams{Principal: studentPrincipal})
		if err != nil {
			t.Fatalf("ListRooms failed: %v", err)
		}
		got := roomIDs(rooms)
		want := []string{"r2", "r1", "r3"}
		if !equalStrings(got, want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
	})

	t.Run("filters by capacity and location", func(t *testing.T) {
		rooms, err := svc.ListRooms(ctx, ListRoomsParams{Principal: studentPrincipal, MinCapacity: 25, Location: "main hall"})
		if err != nil {
			t.Fatalf("ListRooms failed: %v", err)
		}
		if got := roomIDs(rooms); !equalStrings(got, []string{"r2"}) {
			t.Fatalf("expected only r2, got %v", got)
		}
	})

	t.Run("includes inactive rooms for administrators only", func(t *testing.T) {
		rooms, err := svc.ListRooms(ctx, ListRoomsParams{Principal: studentPrincipal, IncludeInactive: true})
		if err != nil {
			t.Fatalf("ListRooms failed: %v", err)
		}
		if len(rooms) != 3 {
			t.Fatalf("expected students to see 3 rooms, got %d", len(rooms))
		}

		rooms, err = svc.ListRooms(ctx, ListRoomsParams{Principal: adminPrincipal, IncludeInactive: true})
		if err != nil {
			t.Fatalf("ListRooms failed: %v", err)
		}
		if len(rooms) != 4 {
			t.Fatalf("expected administrators to see 4 rooms, got %d", len(rooms))
		}
	})

	t.Run("rejects negative capacity filters", func(t *testing.T) {
		_, err := svc.ListRooms(ctx, ListRoomsParams{Principal: studentPrincipal, MinCapacity: -1})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})
}

func roomIDs(rooms []Room) []string {
	ids := make([]string, 0, len(rooms))
	for _, room := range rooms {
		ids = append(ids, room.ID)
	}
	return ids
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
