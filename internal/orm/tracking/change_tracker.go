// Package tracking answers dirty-tracking questions about a record.
// It reads provenance from an attribute set rather than diffing snapshots,
// so only attributes that were assigned or mutated are ever compared.
package tracking

import (
	"reflect"
	"sync"

	"github.com/conduit-lang/attributes/internal/orm/attribute"
)

// FieldChange represents a change to a single field
type FieldChange struct {
	Field    string
	OldValue interface{}
	NewValue interface{}
}

// ChangeTracker tracks field changes on a record's attribute set
type ChangeTracker struct {
	mu  sync.RWMutex
	set *attribute.Set
}

// NewChangeTracker creates a change tracker over set. The tracker owns the
// set from here on; writes must go through SetFieldValue.
func NewChangeTracker(set *attribute.Set) *ChangeTracker {
	return &ChangeTracker{set: set}
}

// Set returns the tracked attribute set
func (ct *ChangeTracker) Set() *attribute.Set {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return ct.set
}

// deepEqual compares two values for equality, handling nil and different types
func deepEqual(a, b interface{}) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return reflect.DeepEqual(a, b)
}

// Changed returns true if the specified field has changed
func (ct *ChangeTracker) Changed(field string) (bool, error) {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return ct.changed(field)
}

func (ct *ChangeTracker) changed(field string) (bool, error) {
	attr, ok := ct.set.Get(field)
	if !ok {
		return false, nil
	}
	return attr.IsChanged()
}

// ChangedFields returns the changed fields in attribute order
func (ct *ChangeTracker) ChangedFields() ([]string, error) {
	ct.mu.RLock()
	defer ct.mu.RUnlock()

	var fields []string
	for _, name := range ct.set.Names() {
		changed, err := ct.changed(name)
		if err != nil {
			return nil, err
		}
		if changed {
			fields = append(fields, name)
		}
	}
	return fields, nil
}

// PreviousValue returns the value the field was loaded with.
// Returns nil if the field was never initialized.
func (ct *ChangeTracker) PreviousValue(field string) (interface{}, error) {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return ct.previous(field)
}

func (ct *ChangeTracker) previous(field string) (interface{}, error) {
	attr, ok := ct.set.Get(field)
	if !ok {
		return nil, nil
	}
	value, err := attr.OriginalValue()
	if err != nil || value == attribute.UninitializedValue {
		return nil, err
	}
	return value, nil
}

// CurrentValue returns the current value of a field
func (ct *ChangeTracker) CurrentValue(field string) (interface{}, error) {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return ct.set.FetchValue(field)
}

// GetChange returns the FieldChange for a specific field, or nil if unchanged
func (ct *ChangeTracker) GetChange(field string) (*FieldChange, error) {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return ct.change(field)
}

func (ct *ChangeTracker) change(field string) (*FieldChange, error) {
	changed, err := ct.changed(field)
	if err != nil || !changed {
		return nil, err
	}
	oldValue, err := ct.previous(field)
	if err != nil {
		return nil, err
	}
	newValue, err := ct.set.FetchValue(field)
	if err != nil {
		return nil, err
	}
	return &FieldChange{Field: field, OldValue: oldValue, NewValue: newValue}, nil
}

// Changes returns all changes keyed by field
func (ct *ChangeTracker) Changes() (map[string]*FieldChange, error) {
	ct.mu.RLock()
	defer ct.mu.RUnlock()

	result := make(map[string]*FieldChange)
	for _, name := range ct.set.Names() {
		change, err := ct.change(name)
		if err != nil {
			return nil, err
		}
		if change != nil {
			result[name] = change
		}
	}
	return result, nil
}

// HasChanges returns true if any fields have changed
func (ct *ChangeTracker) HasChanges() (bool, error) {
	fields, err := ct.ChangedFields()
	return len(fields) > 0, err
}

// ChangedTo returns true if the field changed to the specified value
func (ct *ChangeTracker) ChangedTo(field string, value interface{}) (bool, error) {
	change, err := ct.GetChange(field)
	if err != nil || change == nil {
		return false, err
	}
	return deepEqual(change.NewValue, value), nil
}

// ChangedFrom returns true if the field changed from the specified value
func (ct *ChangeTracker) ChangedFrom(field string, value interface{}) (bool, error) {
	change, err := ct.GetChange(field)
	if err != nil || change == nil {
		return false, err
	}
	return deepEqual(change.OldValue, value), nil
}

// Reset rebases every attribute on its database form.
// This should be called after a successful save operation.
func (ct *ChangeTracker) Reset() error {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	return ct.set.ForgetAssignments()
}

// SetFieldValue assigns a user value. Assigning the original value back
// clears the change.
func (ct *ChangeTracker) SetFieldValue(field string, value interface{}) error {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	return ct.set.WriteFromUser(field, value)
}

// GetChangedData returns the database form of only the changed fields.
// This is useful for generating efficient UPDATE queries.
func (ct *ChangeTracker) GetChangedData() (map[string]interface{}, error) {
	ct.mu.RLock()
	defer ct.mu.RUnlock()

	result := make(map[string]interface{})
	for _, name := range ct.set.Names() {
		changed, err := ct.changed(name)
		if err != nil {
			return nil, err
		}
		if !changed {
			continue
		}
		attr, _ := ct.set.Get(name)
		value, err := attr.ValueForDatabase()
		if err != nil {
			return nil, err
		}
		result[name] = value
	}
	return result, nil
}
