package attribute

import (
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// UninitializedValue is the original value of an attribute that was never
// populated. It differs from every value a type can produce, including nil.
var UninitializedValue interface{} = uninitializedValue{}

type uninitializedValue struct{}

func (uninitializedValue) String() string { return "<uninitialized>" }

// Attribute holds one field of a record: its raw value, type, provenance and
// the memoized cast value. Attributes are replaced, not mutated, when their
// provenance changes; the only state that changes after construction is the
// memo and the resolved default.
//
// The memo is guarded by a mutex so concurrent first reads of one Attribute
// compute the value exactly once. Sets holding attributes are not synchronized.
type Attribute struct {
	name   string
	typ    Type
	source Source
	prior  *Attribute

	mu       sync.Mutex
	raw      interface{}
	provider func() interface{}
	resolved bool
	once     sync.Once
	value    interface{}
	hasValue bool
}

// FromDatabase creates an attribute whose raw value was read from storage
func FromDatabase(name string, raw interface{}, typ Type) *Attribute {
	return &Attribute{name: name, raw: raw, typ: typ, source: SourceFromDatabase}
}

// FromUser creates an attribute whose raw value was assigned by user code.
// prior is the attribute as it was before the assignment; nil means the
// attribute was never populated.
func FromUser(name string, raw interface{}, typ Type, prior *Attribute) *Attribute {
	if prior == nil {
		prior = Uninitialized(name, typ)
	}
	return &Attribute{name: name, raw: raw, typ: typ, source: SourceFromUser, prior: rootPrior(prior)}
}

// PreCast creates an attribute whose value is already cast
func PreCast(name string, value interface{}, typ Type) *Attribute {
	return &Attribute{name: name, raw: value, typ: typ, source: SourcePreCast}
}

// Uninitialized creates a declared attribute that holds no value
func Uninitialized(name string, typ Type) *Attribute {
	return &Attribute{name: name, typ: typ, source: SourceUninitialized}
}

// UserProvidedDefault creates an attribute holding a declared default.
// prior may be nil when the default was not applied over an existing value.
func UserProvidedDefault(name string, raw interface{}, typ Type, prior *Attribute) *Attribute {
	return &Attribute{name: name, raw: raw, typ: typ, source: SourceUserProvidedDefault, prior: rootPrior(prior)}
}

// UserProvidedDefaultFunc is UserProvidedDefault with a deferred default.
// provider runs at most once per attribute, on the first read of the raw value,
// without holding the attribute's lock. It may call String on the attribute
// but must not read its value.
func UserProvidedDefaultFunc(name string, provider func() interface{}, typ Type, prior *Attribute) *Attribute {
	return &Attribute{name: name, provider: provider, typ: typ, source: SourceUserProvidedDefault, prior: rootPrior(prior)}
}

// rootPrior skips assigned layers of a prior chain. The original value of an
// assigned attribute is always its prior's original value, so dropping the
// intermediate assignments keeps chains at one layer without changing results.
func rootPrior(prior *Attribute) *Attribute {
	for prior != nil && prior.assigned() {
		prior = prior.prior
	}
	return prior
}

// Name returns the attribute name
func (a *Attribute) Name() string {
	return a.name
}

// Type returns the attribute type as given at construction
func (a *Attribute) Type() Type {
	return a.typ
}

// Source returns the attribute provenance
func (a *Attribute) Source() Source {
	return a.source
}

// Prior returns the attribute this one was assigned over, or nil
func (a *Attribute) Prior() *Attribute {
	return a.prior
}

// IsInitialized returns false only for uninitialized attributes
func (a *Attribute) IsInitialized() bool {
	return a.source != SourceUninitialized
}

// capability returns the type, falling back to passthrough for a nil type
func (a *Attribute) capability() Type {
	if a.typ == nil {
		return passthrough{}
	}
	return a.typ
}

// assigned reports whether the attribute carries a baseline to compare against
func (a *Attribute) assigned() bool {
	switch a.source {
	case SourceFromUser:
		return true
	case SourceUserProvidedDefault:
		return a.prior != nil
	default:
		return false
	}
}

// ValueBeforeTypeCast returns the raw value without coercion.
// It is nil for uninitialized attributes.
func (a *Attribute) ValueBeforeTypeCast() interface{} {
	if a.source == SourceUninitialized {
		return nil
	}
	a.resolveDefault()
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.raw
}

// resolveDefault runs a deferred default provider once. Copies made by DeepDup
// arrive already resolved.
func (a *Attribute) resolveDefault() {
	if a.provider == nil {
		return
	}
	a.once.Do(func() {
		a.mu.Lock()
		done := a.resolved
		a.mu.Unlock()
		if done {
			return
		}

		raw := a.provider()

		a.mu.Lock()
		a.raw = raw
		a.resolved = true
		a.mu.Unlock()
	})
}

// Value returns the cast value, computing it on the first call.
// Type errors are returned unchanged and leave nothing cached.
func (a *Attribute) Value() (interface{}, error) {
	if a.source == SourceUninitialized {
		return nil, nil
	}

	a.resolveDefault()
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.hasValue {
		return a.value, nil
	}
	value, err := a.typeCast(a.raw)
	if err != nil {
		return nil, err
	}
	a.value = value
	a.hasValue = true
	return value, nil
}

// ValueOr is Value, except that an uninitialized attribute returns the result
// of provider instead of nil. The provided value is not memoized.
func (a *Attribute) ValueOr(provider func() interface{}) (interface{}, error) {
	if a.source == SourceUninitialized {
		if provider == nil {
			return nil, nil
		}
		return provider(), nil
	}
	return a.Value()
}

func (a *Attribute) typeCast(raw interface{}) (interface{}, error) {
	switch a.source {
	case SourceFromDatabase:
		return a.capability().Deserialize(raw)
	case SourceFromUser, SourceUserProvidedDefault:
		return a.capability().Cast(raw)
	default:
		return raw, nil
	}
}

// ValueForDatabase serializes the current value. It is never memoized.
func (a *Attribute) ValueForDatabase() (interface{}, error) {
	if a.source == SourceUninitialized {
		return nil, nil
	}
	value, err := a.Value()
	if err != nil {
		return nil, err
	}
	return a.capability().Serialize(value)
}

// HasBeenRead returns true once the cast value has been computed
func (a *Attribute) HasBeenRead() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hasValue
}

// IsChanged returns true if the attribute was reassigned to a different value
// or its materialized value was mutated
func (a *Attribute) IsChanged() (bool, error) {
	changed, err := a.IsChangedFromAssignment()
	if err != nil || changed {
		return changed, err
	}
	return a.IsChangedInPlace()
}

// IsChangedFromAssignment compares the assigned value with the original one
func (a *Attribute) IsChangedFromAssignment() (bool, error) {
	if !a.assigned() {
		return false, nil
	}
	original, err := a.OriginalValue()
	if err != nil {
		return false, err
	}
	value, err := a.Value()
	if err != nil {
		return false, err
	}
	return a.capability().Changed(original, value, a.ValueBeforeTypeCast())
}

// IsChangedInPlace detects mutation of a materialized value without
// reassignment. Attributes that were never read are never consulted.
func (a *Attribute) IsChangedInPlace() (bool, error) {
	if !a.HasBeenRead() {
		return false, nil
	}
	original, err := a.OriginalValueForDatabase()
	if err != nil {
		return false, err
	}
	value, err := a.Value()
	if err != nil {
		return false, err
	}
	return a.capability().ChangedInPlace(original, value)
}

// OriginalValue returns the value at the root of the provenance chain.
// It is recomputed from the raw value on every call.
func (a *Attribute) OriginalValue() (interface{}, error) {
	if a.assigned() {
		return a.prior.OriginalValue()
	}

	switch a.source {
	case SourceUninitialized:
		return UninitializedValue, nil
	case SourceFromDatabase:
		return a.capability().Deserialize(a.ValueBeforeTypeCast())
	case SourceUserProvidedDefault:
		return a.capability().Cast(a.ValueBeforeTypeCast())
	default:
		return a.ValueBeforeTypeCast(), nil
	}
}

// OriginalValueForDatabase returns the database form of the original value.
// A database root returns its raw value without reserializing it.
func (a *Attribute) OriginalValueForDatabase() (interface{}, error) {
	if a.assigned() {
		return a.prior.OriginalValueForDatabase()
	}

	switch a.source {
	case SourceUninitialized:
		return UninitializedValue, nil
	case SourceFromDatabase:
		return a.ValueBeforeTypeCast(), nil
	default:
		original, err := a.OriginalValue()
		if err != nil {
			return nil, err
		}
		return a.capability().Serialize(original)
	}
}

// WithValueFromUser validates value and returns a new attribute assigned over
// this one. On a validation error the receiver is unchanged.
func (a *Attribute) WithValueFromUser(value interface{}) (*Attribute, error) {
	if err := a.capability().AssertValidValue(value); err != nil {
		return nil, &ValidationError{Name: a.name, Value: value, Err: err}
	}
	return FromUser(a.name, value, a.typ, a), nil
}

// WithValueFromDatabase returns a new database rooted attribute, discarding
// provenance. This resets the dirty tracking baseline.
func (a *Attribute) WithValueFromDatabase(value interface{}) *Attribute {
	return FromDatabase(a.name, value, a.typ)
}

// WithCastValue returns a new attribute holding an already cast value
func (a *Attribute) WithCastValue(value interface{}) *Attribute {
	return PreCast(a.name, value, a.typ)
}

// WithType returns the attribute with a different type. A value mutated in
// place is carried over as a user assignment so the mutation is not lost.
func (a *Attribute) WithType(typ Type) (*Attribute, error) {
	if a.source == SourceUninitialized {
		return Uninitialized(a.name, typ), nil
	}

	changed, err := a.IsChangedInPlace()
	if err != nil {
		return nil, err
	}
	if changed {
		value, err := a.Value()
		if err != nil {
			return nil, err
		}
		return FromUser(a.name, value, typ, a), nil
	}

	next := a.withoutCastValue()
	next.typ = typ
	return next, nil
}

// ForgettingAssignment rebases the attribute on its database form so it no
// longer reports changes. Used after a record is saved.
func (a *Attribute) ForgettingAssignment() (*Attribute, error) {
	if a.source == SourceUninitialized {
		return Uninitialized(a.name, a.typ), nil
	}
	value, err := a.ValueForDatabase()
	if err != nil {
		return nil, err
	}
	return a.WithValueFromDatabase(value), nil
}

// CameFromUser returns true for direct user assignments
func (a *Attribute) CameFromUser() bool {
	if a.source != SourceFromUser {
		return false
	}
	return !a.capability().ValueConstructedByMassAssignment(a.ValueBeforeTypeCast())
}

// withoutCastValue copies the attribute with an empty memo. Deferred defaults
// are re-evaluated by the copy.
func (a *Attribute) withoutCastValue() *Attribute {
	a.mu.Lock()
	defer a.mu.Unlock()

	next := &Attribute{
		name:     a.name,
		typ:      a.typ,
		source:   a.source,
		prior:    a.prior,
		provider: a.provider,
	}
	if a.provider == nil {
		next.raw = a.raw
	}
	return next
}

// DeepDup returns an independent copy. A memoized value is deep copied so
// that mutating the copy's value cannot affect this attribute.
func (a *Attribute) DeepDup() *Attribute {
	a.mu.Lock()
	defer a.mu.Unlock()

	dup := &Attribute{
		name:     a.name,
		typ:      a.typ,
		source:   a.source,
		raw:      a.raw,
		provider: a.provider,
		resolved: a.resolved,
	}
	if a.prior != nil {
		dup.prior = a.prior.DeepDup()
	}
	if a.hasValue {
		dup.value = deepCopy(a.typ, a.value)
		dup.hasValue = true
	}
	return dup
}

// Equal compares provenance, name, raw value and type. Raw values are compared
// with the type's RawEqual when it has one. Memoized values and priors do not
// participate.
func (a *Attribute) Equal(other *Attribute) bool {
	if a == other {
		return true
	}
	if a == nil || other == nil {
		return false
	}
	return a.source == other.source &&
		a.name == other.name &&
		TypesEqual(a.typ, other.typ) &&
		rawEqual(a.typ, a.ValueBeforeTypeCast(), other.ValueBeforeTypeCast())
}

// Hash derives a hash from the same fields Equal compares
func (a *Attribute) Hash() uint64 {
	h := xxhash.New()
	fmt.Fprintf(h, "%d\x00%s\x00%s\x00%s", a.source, a.name, rawKey(a.typ, a.ValueBeforeTypeCast()), typeKey(a.typ))
	return h.Sum64()
}

// String returns a short description for logs and debugging
func (a *Attribute) String() string {
	if a.source == SourceUninitialized {
		return fmt.Sprintf("%s(%s)", a.name, a.source)
	}

	a.mu.Lock()
	raw, pending := a.raw, a.provider != nil && !a.resolved
	a.mu.Unlock()
	if pending {
		return fmt.Sprintf("%s(%s: <deferred>)", a.name, a.source)
	}
	return fmt.Sprintf("%s(%s: %v)", a.name, a.source, raw)
}

func typeKey(typ Type) string {
	if named, ok := typ.(Named); ok {
		return named.TypeName()
	}
	return fmt.Sprintf("%T", typ)
}
