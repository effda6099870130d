package dedupe

// Option applies a configuration option to the key set.
type Option func(*keySet)

// WithCapacity preallocates room for n keys.
func WithCapacity(n int) Option {
	return func(s *keySet) {
		if n > 0 {
			s.seen = make(map[string]struct{}, n)
		}
	}
}
