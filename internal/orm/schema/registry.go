package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Registry holds the resource schemas of an application, keyed by name
type Registry struct {
	schemas map[string]*ResourceSchema
	mu      sync.RWMutex
}

// NewRegistry creates an empty schema registry
func NewRegistry() *Registry {
	return &Registry{
		schemas: make(map[string]*ResourceSchema),
	}
}

// LoadDir registers every *.yml and *.yaml resource in dir
func LoadDir(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema directory: %w", err)
	}

	r := NewRegistry()
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yml" && ext != ".yaml") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		resource, err := LoadResource(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if err := r.Register(resource); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return r, nil
}

// Register adds a resource. Names must be unique.
func (r *Registry) Register(resource *ResourceSchema) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.schemas[resource.Name]; exists {
		return fmt.Errorf("resource %s is already registered", resource.Name)
	}
	r.schemas[resource.Name] = resource
	return nil
}

// Get retrieves a resource by name
func (r *Registry) Get(name string) (*ResourceSchema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	resource, exists := r.schemas[name]
	return resource, exists
}

// Lookup retrieves a resource by name, ignoring case, or by table name
func (r *Registry) Lookup(name string) (*ResourceSchema, bool) {
	if resource, ok := r.Get(name); ok {
		return resource, true
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, resource := range r.schemas {
		if strings.EqualFold(resource.Name, name) || resource.TableName == name {
			return resource, true
		}
	}
	return nil, false
}

// List returns the registered resource names, sorted
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered resources
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.schemas)
}
