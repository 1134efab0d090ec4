package inject

import "fmt"

// Elements concatenates set contributions in order. A single contribution
// is passed as a one-element slice.
func Elements[T any](parts ...[]T) []T {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]T, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// Entry is one map contribution. An Override entry may replace an earlier
// entry with the same key.
type Entry[K comparable, V any] struct {
	Key      K
	Value    V
	Override bool
}

// EntryOf wraps a single keyed contribution. A provider returning (K, V)
// can be passed directly: EntryOf(provide()).
func EntryOf[K comparable, V any](k K, v V) []Entry[K, V] {
	return []Entry[K, V]{{Key: k, Value: v}}
}

// EntriesOf turns a contributed map into entries. Iteration order does not
// matter: keys of one contributed map are distinct.
func EntriesOf[K comparable, V any](m map[K]V) []Entry[K, V] {
	out := make([]Entry[K, V], 0, len(m))
	for k, v := range m {
		out = append(out, Entry[K, V]{Key: k, Value: v})
	}
	return out
}

// Overriding marks every entry of a contribution as allowed to replace
// earlier ones.
func Overriding[K comparable, V any](entries []Entry[K, V]) []Entry[K, V] {
	for i := range entries {
		entries[i].Override = true
	}
	return entries
}

// MapOf merges map contributions in order. Computed keys are only known at
// run time, so a key contributed twice panics unless the later entry is an
// Override.
func MapOf[K comparable, V any](parts ...[]Entry[K, V]) map[K]V {
	out := make(map[K]V)
	for _, p := range parts {
		for _, e := range p {
			if _, ok := out[e.Key]; ok && !e.Override {
				panic(fmt.Sprintf("inject: map key %v contributed more than once", e.Key))
			}
			out[e.Key] = e.Value
		}
	}
	return out
}
