// room/room.go
package room

import (
	"sync"
)

// Room 是一局游戏的独占访问锁。同一 gameId 的读-改-写必须在 Room 内串行执行。
type Room struct {
	ID    string
	mutex sync.Mutex
	refs  int // 正在等待或持有该锁的调用数，由 Manager.mutex 保护
}

// --- 房间管理器 ---

// Manager 管理所有房间。房间在第一次使用时创建，最后一个使用者释放后删除。
type Manager struct {
	rooms map[string]*Room
	mutex sync.Mutex
}

// NewRoomManager 创建一个新的房间管理器
func NewRoomManager() *Manager {
	return &Manager{
		rooms: make(map[string]*Room),
	}
}

// Acquire locks the room for id, creating it if needed. Every Acquire must be
// paired with Release.
func (m *Manager) Acquire(id string) *Room {
	m.mutex.Lock()
	room, exists := m.rooms[id]
	if !exists {
		room = &Room{ID: id}
		m.rooms[id] = room
	}
	room.refs++
	m.mutex.Unlock()

	room.mutex.Lock()
	return room
}

// Release unlocks the room and drops it once nobody else is waiting on it.
func (m *Manager) Release(room *Room) {
	room.mutex.Unlock()

	m.mutex.Lock()
	defer m.mutex.Unlock()

	room.refs--
	if room.refs == 0 {
		delete(m.rooms, room.ID)
	}
}

// Do runs fn while holding the room for id.
func (m *Manager) Do(id string, fn func() error) error {
	room := m.Acquire(id)
	defer m.Release(room)
	return fn()
}

// Count 返回当前活跃的房间数
func (m *Manager) Count() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.rooms)
}
