package port

import (
	"fmt"
	"net"
)

// Probe range used by NextFree when suggesting replacement ports.
const (
	SuggestRangeMin = 9000
	SuggestRangeMax = 9999
)

// Available reports whether a TCP port can currently be bound on localhost.
func Available(port int) bool {
	l, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return false
	}
	_ = l.Close()
	return true
}

// FirstUnavailable returns the first port in the list that cannot be bound,
// or 0 if all are free.
func FirstUnavailable(ports ...int) int {
	for _, p := range ports {
		if !Available(p) {
			return p
		}
	}
	return 0
}

// NextFree finds the lowest bindable port in the suggestion range that is
// not in the exclude list. Returns an error when the range is exhausted.
func NextFree(exclude ...int) (int, error) {
	excluded := make(map[int]bool, len(exclude))
	for _, p := range exclude {
		excluded[p] = true
	}

	for p := SuggestRangeMin; p <= SuggestRangeMax; p++ {
		if excluded[p] {
			continue
		}
		if Available(p) {
			return p, nil
		}
	}

	return 0, fmt.Errorf("no free ports in range %d-%d", SuggestRangeMin, SuggestRangeMax)
}
