package object

// Strings is the process-wide interned-string table: a deduplicating map
// from byte contents to the canonical *String object. Two equal strings
// share one object; the VM depends on this for O(1) string equality and
// for using strings as method/field/global names.
//
// Entries here are not permanent: the garbage collector removes an
// entry when its *String becomes unreachable, since strings are
// ordinary collectible heap objects in this data model, not a fixed
// symbol table. Single-threaded, so no lock guards this map.
type Strings struct {
	table map[string]*String
}

// NewStrings returns an empty intern table.
func NewStrings() *Strings {
	return &Strings{table: make(map[string]*String)}
}

// Intern returns the canonical *String for chars, creating and registering
// one on first sight. The returned object is not yet linked into the GC's
// master object list; callers that allocate through gc.Collector should
// use Collector.InternString instead so the new object is tracked.
func (s *Strings) Intern(chars string) (*String, bool) {
	if existing, ok := s.table[chars]; ok {
		return existing, false
	}
	str := &String{Chars: chars, Hash: hashString(chars)}
	str.Header.Kind = KindString
	s.table[chars] = str
	return str, true
}

// Find returns the canonical *String for chars without creating one.
func (s *Strings) Find(chars string) (*String, bool) {
	str, ok := s.table[chars]
	return str, ok
}

// Remove deletes str's entry, called by the collector's sweep when str is
// found to be unreachable.
func (s *Strings) Remove(str *String) {
	delete(s.table, str.Chars)
}

// hashString computes the FNV-1a hash used to tag interned strings.
// Any algorithm where equal strings collide identically would do.
func hashString(s string) uint32 {
	var hash uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		hash ^= uint32(s[i])
		hash *= 16777619
	}
	return hash
}
