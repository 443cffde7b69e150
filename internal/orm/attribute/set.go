package attribute

// Set is the ordered collection of attributes belonging to one record.
// Order is declaration order and is kept stable across writes.
//
// A Set has a single owner and is not safe for concurrent writes.
type Set struct {
	order      []string
	attributes map[string]*Attribute
	frozen     bool
}

// NewSet creates a set from attributes, keyed and ordered by attribute name
func NewSet(attributes ...*Attribute) *Set {
	s := &Set{
		order:      make([]string, 0, len(attributes)),
		attributes: make(map[string]*Attribute, len(attributes)),
	}
	for _, attr := range attributes {
		s.put(attr.Name(), attr)
	}
	return s
}

// put inserts or replaces an entry, keeping the position of existing names
func (s *Set) put(name string, attr *Attribute) {
	if _, ok := s.attributes[name]; !ok {
		s.order = append(s.order, name)
	}
	s.attributes[name] = attr
}

// Get returns the attribute registered under name, initialized or not
func (s *Set) Get(name string) (*Attribute, bool) {
	attr, ok := s.attributes[name]
	return attr, ok
}

// Has returns true only for initialized attributes
func (s *Set) Has(name string) bool {
	attr, ok := s.attributes[name]
	return ok && attr.IsInitialized()
}

// Replace stores attr under name unconditionally, bypassing provenance rules.
// Used to restore attributes in bulk.
func (s *Set) Replace(name string, attr *Attribute) error {
	if s.frozen {
		return ErrFrozen
	}
	s.put(name, attr)
	return nil
}

// Len returns the number of registered attributes, initialized or not
func (s *Set) Len() int {
	return len(s.order)
}

// Names returns every registered name in order, initialized or not
func (s *Set) Names() []string {
	names := make([]string, len(s.order))
	copy(names, s.order)
	return names
}

// Keys returns the names of initialized attributes in order
func (s *Set) Keys() []string {
	keys := make([]string, 0, len(s.order))
	for _, name := range s.order {
		if s.attributes[name].IsInitialized() {
			keys = append(keys, name)
		}
	}
	return keys
}

// ValuesBeforeTypeCast returns the raw value of every attribute without
// triggering coercion
func (s *Set) ValuesBeforeTypeCast() map[string]interface{} {
	values := make(map[string]interface{}, len(s.order))
	for _, name := range s.order {
		values[name] = s.attributes[name].ValueBeforeTypeCast()
	}
	return values
}

// Materialize returns the cast value of every initialized attribute
func (s *Set) Materialize() (map[string]interface{}, error) {
	values := make(map[string]interface{}, len(s.order))
	for _, name := range s.order {
		attr := s.attributes[name]
		if !attr.IsInitialized() {
			continue
		}
		value, err := attr.Value()
		if err != nil {
			return nil, err
		}
		values[name] = value
	}
	return values, nil
}

// FetchValue returns the value of the named attribute, or nil when the name
// is unknown
func (s *Set) FetchValue(name string) (interface{}, error) {
	return s.FetchValueOr(name, nil)
}

// FetchValueOr is FetchValue, except that an uninitialized attribute yields
// the result of provider. Unknown names still return nil.
func (s *Set) FetchValueOr(name string, provider func() interface{}) (interface{}, error) {
	attr, ok := s.attributes[name]
	if !ok {
		return nil, nil
	}
	return attr.ValueOr(provider)
}

// WriteFromDatabase replaces the named attribute with a database value
func (s *Set) WriteFromDatabase(name string, value interface{}) error {
	attr, err := s.writable(name)
	if err != nil {
		return err
	}
	s.attributes[name] = attr.WithValueFromDatabase(value)
	return nil
}

// WriteFromUser assigns a user value to the named attribute. The attribute
// keeps its position in the set.
func (s *Set) WriteFromUser(name string, value interface{}) error {
	attr, err := s.writable(name)
	if err != nil {
		return err
	}
	next, err := attr.WithValueFromUser(value)
	if err != nil {
		return err
	}
	s.attributes[name] = next
	return nil
}

// WriteCastValue replaces the named attribute with an already cast value
func (s *Set) WriteCastValue(name string, value interface{}) error {
	attr, err := s.writable(name)
	if err != nil {
		return err
	}
	s.attributes[name] = attr.WithCastValue(value)
	return nil
}

func (s *Set) writable(name string) (*Attribute, error) {
	if s.frozen {
		return nil, ErrFrozen
	}
	attr, ok := s.attributes[name]
	if !ok {
		return nil, &MissingAttributeError{Name: name}
	}
	return attr, nil
}

// Reset clears an initialized attribute back to a nil database value.
// Uninitialized and unknown names are left alone.
func (s *Set) Reset(name string) error {
	if s.frozen {
		return ErrFrozen
	}
	if !s.Has(name) {
		return nil
	}
	return s.WriteFromDatabase(name, nil)
}

// ForgetAssignments rebases every initialized attribute on its database form
func (s *Set) ForgetAssignments() error {
	if s.frozen {
		return ErrFrozen
	}
	for _, name := range s.order {
		attr := s.attributes[name]
		if !attr.IsInitialized() {
			continue
		}
		next, err := attr.ForgettingAssignment()
		if err != nil {
			return err
		}
		s.attributes[name] = next
	}
	return nil
}

// Accessed returns, in order, the names of attributes whose value was read
func (s *Set) Accessed() []string {
	var names []string
	for _, name := range s.order {
		if s.attributes[name].HasBeenRead() {
			names = append(names, name)
		}
	}
	return names
}

// Clone returns a new set sharing this set's attributes. Writes to either set
// do not affect the other, but values mutated in place are shared.
func (s *Set) Clone() *Set {
	c := &Set{
		order:      make([]string, len(s.order)),
		attributes: make(map[string]*Attribute, len(s.attributes)),
	}
	copy(c.order, s.order)
	for name, attr := range s.attributes {
		c.attributes[name] = attr
	}
	return c
}

// DeepDup returns a new set whose every attribute is deep copied
func (s *Set) DeepDup() *Set {
	return s.Map(func(attr *Attribute) *Attribute {
		return attr.DeepDup()
	})
}

// Map returns a new set with fn applied to every attribute, keeping order
func (s *Set) Map(fn func(*Attribute) *Attribute) *Set {
	c := &Set{
		order:      make([]string, len(s.order)),
		attributes: make(map[string]*Attribute, len(s.attributes)),
	}
	copy(c.order, s.order)
	for name, attr := range s.attributes {
		c.attributes[name] = fn(attr)
	}
	return c
}

// Equal compares key sets and attributes pairwise, ignoring order
func (s *Set) Equal(other *Set) bool {
	if s == other {
		return true
	}
	if s == nil || other == nil || len(s.attributes) != len(other.attributes) {
		return false
	}
	for name, attr := range s.attributes {
		o, ok := other.attributes[name]
		if !ok || !attr.Equal(o) {
			return false
		}
	}
	return true
}

// Freeze makes every later write fail with ErrFrozen. Reads, including the
// first read of a value, are still allowed.
func (s *Set) Freeze() {
	s.frozen = true
}

// Frozen returns true once Freeze was called
func (s *Set) Frozen() bool {
	return s.frozen
}
