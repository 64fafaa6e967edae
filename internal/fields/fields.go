// Package fields provides shallow copy helpers for string-keyed maps.
package fields

// Extend copies every key of each source onto target, later sources winning,
// and returns target. A nil target is allocated.
func Extend[M ~map[string]V, V any](target M, sources ...M) M {
	if target == nil {
		n := 0
		for _, src := range sources {
			n += len(src)
		}
		target = make(M, n)
	}
	for _, src := range sources {
		for k, v := range src {
			target[k] = v
		}
	}
	return target
}

// Omit returns a new map holding every key of source except the excluded ones.
// The source map is never modified.
func Omit[M ~map[string]V, V any](source M, excluded ...string) M {
	result := make(M, len(source))
	for k, v := range source {
		if !contains(excluded, k) {
			result[k] = v
		}
	}
	return result
}

func contains(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
