package app

import (
	"strconv"
	"sync"
	"testing"

	"github.com/kkuzmin/gabble/internal/domain"
)

func TestRegistry_BindAndIdentity(t *testing.T) {
	r := NewRegistry()
	r.Bind("c1", "alice", &fakeSender{})

	identity, ok := r.Identity("c1")
	if !ok || identity != "alice" {
		t.Errorf("expected identity alice, got %q (ok=%v)", identity, ok)
	}
	if _, ok := r.Identity("unknown"); ok {
		t.Error("expected unknown connection to have no identity")
	}
}

func TestRegistry_SubscribeUnsubscribe(t *testing.T) {
	r := NewRegistry()
	r.Bind("c1", "alice", &fakeSender{})
	r.Bind("c2", "bob", &fakeSender{})

	if !r.Subscribe("c1", "general") {
		t.Fatal("Subscribe returned false for a live connection")
	}
	r.Subscribe("c2", "general")
	// Subscribing twice is a no-op.
	r.Subscribe("c1", "general")

	members := r.MembersOf("general")
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(members))
	}

	r.Unsubscribe("c1", "general")
	members = r.MembersOf("general")
	if len(members) != 1 || members[0] != "c2" {
		t.Errorf("expected only c2 subscribed, got %v", members)
	}

	// Unsubscribing an absent enrollment is a no-op.
	r.Unsubscribe("c1", "general")
	r.Unsubscribe("c1", "no-such-group")
}

func TestRegistry_SubscribeUnknownConnection(t *testing.T) {
	r := NewRegistry()
	if r.Subscribe("ghost", "general") {
		t.Error("expected Subscribe to fail for an unknown connection")
	}
	if len(r.MembersOf("general")) != 0 {
		t.Error("a failed subscribe must not create group state")
	}
}

func TestRegistry_UnbindAll(t *testing.T) {
	r := NewRegistry()
	r.Bind("c1", "alice", &fakeSender{})
	r.Subscribe("c1", "general")
	r.Subscribe("c1", "random")

	r.UnbindAll("c1")

	if len(r.MembersOf("general")) != 0 || len(r.MembersOf("random")) != 0 {
		t.Error("expected connection removed from every group")
	}
	if _, ok := r.Identity("c1"); ok {
		t.Error("expected connection to be forgotten")
	}
	if _, ok := r.SenderOf("c1"); ok {
		t.Error("expected sender to be forgotten")
	}
}

func TestRegistry_ConcurrentSubscribes(t *testing.T) {
	r := NewRegistry()
	const n = 100

	for i := 0; i < n; i++ {
		r.Bind(ConnID("c"+strconv.Itoa(i)), "user"+strconv.Itoa(i), &fakeSender{})
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := ConnID("c" + strconv.Itoa(i))
			group := "room" + strconv.Itoa(i%5)
			r.Subscribe(id, domain.RoomName(group))
			r.MembersOf(domain.RoomName(group))
			if i%2 == 0 {
				r.Unsubscribe(id, domain.RoomName(group))
			}
		}(i)
	}
	wg.Wait()

	total := 0
	for g := 0; g < 5; g++ {
		total += len(r.MembersOf(domain.RoomName("room"+strconv.Itoa(g))))
	}
	if total != n/2 {
		t.Errorf("expected %d surviving subscriptions, got %d", n/2, total)
	}
}
