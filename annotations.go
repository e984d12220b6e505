package msgskema

import "sort"

// Annotations is an immutable string-to-string map attached to schemas,
// groups, fields and named types. The zero value is empty.
type Annotations struct {
	m map[string]string
}

// NewAnnotations copies m into a new Annotations value.
func NewAnnotations(m map[string]string) Annotations {
	if len(m) == 0 {
		return Annotations{}
	}
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return Annotations{m: cp}
}

// Get returns the value stored for key. Absent keys report false.
func (a Annotations) Get(key string) (string, bool) {
	v, ok := a.m[key]
	return v, ok
}

// Len returns the number of entries.
func (a Annotations) Len() int { return len(a.m) }

// Keys returns the keys in sorted order.
func (a Annotations) Keys() []string {
	keys := make([]string, 0, len(a.m))
	for k := range a.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Map returns a copy of the entries.
func (a Annotations) Map() map[string]string {
	cp := make(map[string]string, len(a.m))
	for k, v := range a.m {
		cp[k] = v
	}
	return cp
}

// With returns a copy with key set to value.
func (a Annotations) With(key, value string) Annotations {
	cp := a.Map()
	cp[key] = value
	return Annotations{m: cp}
}

// Merge returns a copy overlaid with other; keys in other win.
func (a Annotations) Merge(other Annotations) Annotations {
	if other.Len() == 0 {
		return a
	}
	cp := a.Map()
	for k, v := range other.m {
		cp[k] = v
	}
	return Annotations{m: cp}
}

// Equal reports whether both maps hold the same entries.
func (a Annotations) Equal(other Annotations) bool {
	if len(a.m) != len(other.m) {
		return false
	}
	for k, v := range a.m {
		if w, ok := other.m[k]; !ok || w != v {
			return false
		}
	}
	return true
}
