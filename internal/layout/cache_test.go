package layout

import (
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

type owner struct {
	name string
	pad  [64]byte
	next *owner
}

func TestCache_BuildsOncePerIdentity(t *testing.T) {
	var c Cache[owner, int]
	o := &owner{name: "a"}
	id := uuid.New()
	calls := 0
	var wg sync.WaitGroup
	var mu sync.Mutex
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v := c.Get(o, id, func() int {
				mu.Lock()
				calls++
				mu.Unlock()
				return 42
			})
			if v != 42 {
				t.Errorf("got %d", v)
			}
		}()
	}
	wg.Wait()
	if calls != 1 {
		t.Fatalf("build called %d times", calls)
	}
	if v, ok := c.Lookup(id); !ok || v != 42 {
		t.Fatalf("lookup: %v %v", v, ok)
	}
	runtime.KeepAlive(o)
}

func TestCache_Invalidate(t *testing.T) {
	var c Cache[owner, string]
	o := &owner{}
	id := uuid.New()
	c.Get(o, id, func() string { return "x" })
	c.Invalidate(id)
	if _, ok := c.Lookup(id); ok {
		t.Fatalf("entry still present")
	}
	if v := c.Get(o, id, func() string { return "y" }); v != "y" {
		t.Fatalf("rebuild expected, got %q", v)
	}
	runtime.KeepAlive(o)
}

func TestCache_EvictsUnreachableOwner(t *testing.T) {
	var c Cache[owner, int]
	id := uuid.New()
	func() {
		o := &owner{name: "gone"}
		c.Get(o, id, func() int { return 1 })
	}()
	deadline := time.Now().Add(5 * time.Second)
	for c.Len() > 0 && time.Now().Before(deadline) {
		runtime.GC()
		time.Sleep(10 * time.Millisecond)
	}
	if c.Len() != 0 {
		t.Fatalf("entry not evicted after owner was collected")
	}
}
