package ws

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/kkuzmin/gabble/internal/app"
	"github.com/kkuzmin/gabble/internal/store"
)

// fakeSender collects outbound frames so tests can assert on exactly
// what a connection would have received, without a real websocket.
type fakeSender struct {
	mu     sync.Mutex
	frames [][]byte
	fail   bool
}

func (f *fakeSender) TrySend(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("send buffer full")
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	f.frames = append(f.frames, cp)
	return nil
}

func (f *fakeSender) Close() {}

func (f *fakeSender) frameCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

// frame decodes outbound frame i into a map for field assertions.
func (f *fakeSender) frame(t *testing.T, i int) map[string]any {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if i >= len(f.frames) {
		t.Fatalf("expected at least %d frames, got %d", i+1, len(f.frames))
	}
	var m map[string]any
	if err := json.Unmarshal(f.frames[i], &m); err != nil {
		t.Fatalf("failed to decode frame %d: %v", i, err)
	}
	return m
}

// lastFrame decodes the most recent outbound frame.
func (f *fakeSender) lastFrame(t *testing.T) map[string]any {
	t.Helper()
	f.mu.Lock()
	n := len(f.frames)
	f.mu.Unlock()
	if n == 0 {
		t.Fatal("expected at least one frame")
	}
	return f.frame(t, n-1)
}

func newTestController(t *testing.T, opts Options) (*Controller, *app.Registry) {
	t.Helper()

	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	rooms := store.NewRoomStore(db, 3*time.Second)
	reg := app.NewRegistry()
	coord := app.NewCoordinator(rooms, reg)
	disp := app.NewDispatcher(reg)
	return NewController(coord, reg, disp, opts), reg
}

// bind registers a fake connection under identity and returns its sink.
func bind(reg *app.Registry, id app.ConnID, identity string) *fakeSender {
	s := &fakeSender{}
	reg.Bind(id, identity, s)
	return s
}
