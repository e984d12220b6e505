package msgskema

// AssignGroupIDs returns a new schema in which every group without an id has
// one derived from its name. Derived ids that collide with each other or with
// explicit ids fail with CodeDuplicateID.
func (s *Schema) AssignGroupIDs() (*Schema, error) {
	groups := make([]*GroupDef, len(s.groups))
	for i, g := range s.groups {
		if g.id == NoID {
			g = g.WithID(NameHash(g.name))
		}
		groups[i] = g
	}
	return s.Rebuild(groups, s.typeOrder)
}

// NameHash derives a group id from a name. It is the 31-multiplier string
// hash over UTF-16 code units, so ids match those assigned by other
// implementations of the same scheme. The NoID sentinel maps to 0.
func NameHash(name string) int32 {
	var h int32
	for _, r := range name {
		if r >= 0x10000 {
			// surrogate pair
			r -= 0x10000
			h = 31*h + int32(0xD800+(r>>10))
			h = 31*h + int32(0xDC00+(r&0x3FF))
			continue
		}
		h = 31*h + int32(r)
	}
	if h == NoID {
		return 0
	}
	return h
}
