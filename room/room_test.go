package room

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestRoomManager_AcquireRelease(t *testing.T) {
	manager := NewRoomManager()

	room := manager.Acquire("game_1")
	if room == nil {
		t.Fatal("Acquire should not return nil")
	}
	if room.ID != "game_1" {
		t.Errorf("Expected room ID game_1, got %s", room.ID)
	}
	if manager.Count() != 1 {
		t.Errorf("Expected 1 active room, got %d", manager.Count())
	}

	manager.Release(room)
	if manager.Count() != 0 {
		t.Errorf("Expected the room to be dropped after release, got %d", manager.Count())
	}
}

func TestRoomManager_SerializesSameGame(t *testing.T) {
	manager := NewRoomManager()
	counter := 0
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = manager.Do("game_1", func() error {
				// Unsynchronized read-modify-write; only safe under the room lock.
				v := counter
				time.Sleep(time.Microsecond)
				counter = v + 1
				return nil
			})
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Errorf("Expected 50 serialized increments, got %d", counter)
	}
	if manager.Count() != 0 {
		t.Errorf("Expected no rooms left, got %d", manager.Count())
	}
}

func TestRoomManager_IndependentGames(t *testing.T) {
	manager := NewRoomManager()

	held := manager.Acquire("game_1")
	done := make(chan struct{})
	go func() {
		_ = manager.Do("game_2", func() error { return nil })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("A different game should not wait for game_1")
	}
	manager.Release(held)
}

func TestRoomManager_DoReturnsError(t *testing.T) {
	manager := NewRoomManager()
	want := errors.New("boom")

	if err := manager.Do("game_1", func() error { return want }); err != want {
		t.Errorf("Expected Do to return the callback error, got %v", err)
	}
}
