// Package cfn: the explicit plugin catalog.
//
// Concrete problem and cost-function types report hierarchical category
// paths and flat keywords; a Catalog maps those onto factories so outer
// layers can discover and instantiate them by name, category prefix, or
// keyword. The catalog is an ordinary value passed in by whoever needs
// discovery; there is NO process-wide registry, so the core stays testable
// without global state.

package cfn

import "sync"

// Registration describes one discoverable type.
type Registration struct {
	// Name uniquely identifies the registration within a Catalog.
	Name string

	// Categories are the hierarchical paths the type reports, outermost
	// first (e.g. ["OptimizationProblem","CostFunctionNetworkOptimizationProblem"]).
	Categories [][]string

	// Keywords are the flat discovery tags the type reports.
	Keywords []string

	// New builds a fresh instance of the registered type.
	New func() any
}

// Catalog is a thread-safe registration index. The zero value is NOT ready;
// construct via NewCatalog.
type Catalog struct {
	mu     sync.RWMutex
	regs   []Registration
	byName map[string]int
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{byName: make(map[string]int)}
}

// Register adds reg to the catalog.
// Errors: ErrBadRegistration for an empty name, empty category list, or nil
// factory; ErrDuplicateRegistration when the name is taken.
func (c *Catalog) Register(reg Registration) error {
	if reg.Name == "" || len(reg.Categories) == 0 || reg.New == nil {
		return ErrBadRegistration
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.byName[reg.Name]; exists {
		return ErrDuplicateRegistration
	}
	c.byName[reg.Name] = len(c.regs)
	c.regs = append(c.regs, reg)

	return nil
}

// ByName returns the registration with the given name.
// Errors: ErrOutOfRange when absent.
func (c *Catalog) ByName(name string) (Registration, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	idx, ok := c.byName[name]
	if !ok {
		return Registration{}, ErrOutOfRange
	}

	return c.regs[idx], nil
}

// ByCategory returns every registration reporting a category path that
// starts with prefix, in registration order.
// Complexity: O(regs · categories).
func (c *Catalog) ByCategory(prefix ...string) []Registration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []Registration
	for _, reg := range c.regs {
		if categoryMatches(reg.Categories, prefix) {
			out = append(out, reg)
		}
	}

	return out
}

// categoryMatches reports whether any reported category path starts with
// prefix.
func categoryMatches(categories [][]string, prefix []string) bool {
	for _, path := range categories {
		if len(path) < len(prefix) {
			continue
		}
		matched := true
		for i, segment := range prefix {
			if path[i] != segment {
				matched = false
				break
			}
		}
		if matched {
			return true
		}
	}

	return false
}

// ByKeyword returns every registration reporting the keyword, in
// registration order.
func (c *Catalog) ByKeyword(keyword string) []Registration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []Registration
	for _, reg := range c.regs {
		for _, kw := range reg.Keywords {
			if kw == keyword {
				out = append(out, reg)
				break
			}
		}
	}

	return out
}

// Names returns every registered name in registration order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.regs))
	for i, reg := range c.regs {
		out[i] = reg.Name
	}

	return out
}
