package session

import (
	"net"
	"testing"
	"time"

	"github.com/wfunc/partycards/network"
)

// MockConnection is a test double for the network.Connection interface.
type MockConnection struct {
	sent   []uint16
	closed bool
}

func (m *MockConnection) Send(msgID uint16, data []byte) error {
	m.sent = append(m.sent, msgID)
	return nil
}
func (m *MockConnection) Close() error {
	m.closed = true
	return nil
}

func (m *MockConnection) RemoteAddr() net.Addr                 { return &net.TCPAddr{} }
func (m *MockConnection) ReadPacket() (*network.Packet, error) { return nil, nil }

func TestNewManager(t *testing.T) {
	manager := NewManager()
	if manager == nil {
		t.Fatal("NewManager should not return nil")
	}
	if manager.sessions == nil {
		t.Fatal("NewManager should initialize the sessions map")
	}
}

func TestManager_Add_Get_Remove(t *testing.T) {
	manager := NewManager()
	sessionID := "test_session_1"
	sess := NewSession(sessionID, &MockConnection{})

	manager.Add(sess)
	if manager.Count() != 1 {
		t.Fatalf("Expected session count to be 1, got %d", manager.Count())
	}

	retrievedSess, exists := manager.Get(sessionID)
	if !exists {
		t.Fatal("Get should find the added session")
	}
	if retrievedSess != sess {
		t.Fatal("Get should return the same session instance")
	}

	manager.Remove(sessionID)
	if manager.Count() != 0 {
		t.Fatalf("Expected session count to be 0 after removal, got %d", manager.Count())
	}
	if _, exists = manager.Get(sessionID); exists {
		t.Fatal("Get should not find the removed session")
	}
}

func TestSession_BindAndSend(t *testing.T) {
	conn := &MockConnection{}
	sess := NewSession("test_session", conn)
	before := sess.LastActive()

	sess.Bind("game-a", "alice")
	if sess.GameID() != "game-a" || sess.PlayerID() != "alice" {
		t.Errorf("Bind did not stick: %s/%s", sess.GameID(), sess.PlayerID())
	}

	time.Sleep(time.Millisecond)
	if err := sess.Send(network.MsgTypeGameState, []byte("{}")); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if len(conn.sent) != 1 || conn.sent[0] != network.MsgTypeGameState {
		t.Errorf("Expected one game state message, got %v", conn.sent)
	}
	if !sess.LastActive().After(before) {
		t.Error("Send should refresh LastActive")
	}
}

func TestManager_CloseAll(t *testing.T) {
	manager := NewManager()
	conns := []*MockConnection{{}, {}}
	manager.Add(NewSession("s1", conns[0]))
	manager.Add(NewSession("s2", conns[1]))

	manager.CloseAll()
	for i, c := range conns {
		if !c.closed {
			t.Errorf("Expected connection %d to be closed", i)
		}
	}
}

func TestManager_CloseIdle(t *testing.T) {
	manager := NewManager()
	stale := &MockConnection{}
	fresh := &MockConnection{}
	manager.Add(NewSession("stale", stale))
	time.Sleep(20 * time.Millisecond)
	manager.Add(NewSession("fresh", fresh))

	if n := manager.CloseIdle(10 * time.Millisecond); n != 1 {
		t.Fatalf("Expected 1 idle session, got %d", n)
	}
	if !stale.closed || fresh.closed {
		t.Errorf("Wrong session closed: stale=%v fresh=%v", stale.closed, fresh.closed)
	}
}
