package dialect

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Dialect registry
var (
	dialectsMu sync.RWMutex
	dialects   = make(map[string]*Descriptor)
)

// UnsupportedError is returned when a dialect name does not resolve to a
// registered descriptor. It is a configuration error and is raised before
// any query text is read.
type UnsupportedError struct {
	Name string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported dialect %q (supported: %s)", e.Name, strings.Join(List(), ", "))
}

// Get returns a descriptor by name.
func Get(name string) (*Descriptor, bool) {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	d, ok := dialects[strings.ToLower(name)]
	return d, ok
}

// Lookup returns a descriptor by name, or an UnsupportedError naming the
// registered alternatives.
func Lookup(name string) (*Descriptor, error) {
	if d, ok := Get(name); ok {
		return d, nil
	}
	return nil, &UnsupportedError{Name: name}
}

// Register registers a descriptor in the global registry.
// Called by dialect implementations in their init() functions.
func Register(d *Descriptor) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()
	dialects[strings.ToLower(d.Name)] = d
}

// List returns all registered dialect names (sorted).
func List() []string {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
