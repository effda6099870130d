// Package dedupe tracks which keys have already been taken so that only the
// first occurrence of each key is kept.
package dedupe

// Deduper records seen keys. The first SeenAndRecord call for a key wins;
// every later call for the same key reports it as seen.
type Deduper interface {
	// SeenAndRecord checks if key was seen and records it if not.
	// Returns true if key was already seen, false if it was newly recorded.
	SeenAndRecord(key string) bool
}

// keySet implements Deduper with a map. It is not safe for concurrent use.
type keySet struct {
	seen map[string]struct{}
}

// NewKeySet creates an empty Deduper.
func NewKeySet(opts ...Option) Deduper {
	s := &keySet{}
	for _, opt := range opts {
		opt(s)
	}
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	return s
}

func (s *keySet) SeenAndRecord(key string) bool {
	if _, ok := s.seen[key]; ok {
		return true
	}
	s.seen[key] = struct{}{}
	return false
}
