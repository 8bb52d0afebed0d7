package port

import (
	"net"
	"testing"
)

// occupy binds an ephemeral port and returns it, keeping it held until
// cleanup.
func occupy(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { l.Close() })
	return l.Addr().(*net.TCPAddr).Port
}

func TestAvailable_FreePort(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	p := l.Addr().(*net.TCPAddr).Port
	l.Close()

	if !Available(p) {
		t.Errorf("port %d should be available after close", p)
	}
}

func TestAvailable_BoundPort(t *testing.T) {
	p := occupy(t)

	if Available(p) {
		t.Errorf("port %d should be unavailable while bound", p)
	}
}

func TestFirstUnavailable(t *testing.T) {
	bound := occupy(t)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	free := l.Addr().(*net.TCPAddr).Port
	l.Close()

	if got := FirstUnavailable(free, bound); got != bound {
		t.Errorf("FirstUnavailable = %d, want %d", got, bound)
	}
	if got := FirstUnavailable(free); got != 0 {
		t.Errorf("FirstUnavailable(free) = %d, want 0", got)
	}
}

func TestNextFree_SkipsExcluded(t *testing.T) {
	p, err := NextFree()
	if err != nil {
		t.Fatalf("NextFree failed: %v", err)
	}

	next, err := NextFree(p)
	if err != nil {
		t.Fatalf("NextFree with exclusion failed: %v", err)
	}
	if next == p {
		t.Errorf("NextFree returned excluded port %d", p)
	}
}
