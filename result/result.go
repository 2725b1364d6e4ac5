package result

import "fmt"

// Member declares one outcome of a result class.
type Member struct {
	// Name identifies the outcome. Must be unique within the class.
	Name string

	// Failure tags the outcome as a failure for breaker accounting.
	Failure bool
}

// Type is one outcome of a result class. Types are only obtained from a
// Class and carry their index, so counter updates are array writes.
// The zero Type is invalid.
type Type struct {
	class *Class
	idx   int
}

// Class is an immutable result class. It is fixed at guard rail
// construction and shared by the rail's counters and recorders.
type Class struct {
	members []Member
	byName  map[string]int
}

// NewClass builds a result class from the given members, in order.
func NewClass(members ...Member) (*Class, error) {
	if len(members) == 0 {
		return nil, fmt.Errorf("result: class requires at least one member")
	}
	byName := make(map[string]int, len(members))
	for i, m := range members {
		if m.Name == "" {
			return nil, fmt.Errorf("result: member %d has empty name", i)
		}
		if _, dup := byName[m.Name]; dup {
			return nil, fmt.Errorf("result: duplicate member %q", m.Name)
		}
		byName[m.Name] = i
	}
	return &Class{members: append([]Member(nil), members...), byName: byName}, nil
}

// Standard returns the conventional {success, error, timeout} class where
// only success is a success.
func Standard() *Class {
	c, err := NewClass(
		Member{Name: "success"},
		Member{Name: "error", Failure: true},
		Member{Name: "timeout", Failure: true},
	)
	if err != nil {
		panic(err)
	}
	return c
}

// Size returns the number of outcomes in the class.
func (c *Class) Size() int {
	return len(c.members)
}

// Type resolves an outcome by name. Unknown names return an
// *InvalidResultError naming the valid outcomes.
func (c *Class) Type(name string) (Type, error) {
	i, ok := c.byName[name]
	if !ok {
		return Type{}, &InvalidResultError{Name: name, Valid: c.Names()}
	}
	return Type{class: c, idx: i}, nil
}

// MustType resolves an outcome by name and panics on unknown names. It is
// intended for class literals wired at construction time.
func (c *Class) MustType(name string) Type {
	t, err := c.Type(name)
	if err != nil {
		panic(err)
	}
	return t
}

// Types returns every outcome of the class in declaration order.
func (c *Class) Types() []Type {
	out := make([]Type, len(c.members))
	for i := range c.members {
		out[i] = Type{class: c, idx: i}
	}
	return out
}

// Names returns the outcome names in declaration order.
func (c *Class) Names() []string {
	out := make([]string, len(c.members))
	for i, m := range c.members {
		out[i] = m.Name
	}
	return out
}

// Contains reports whether t belongs to this class.
func (c *Class) Contains(t Type) bool {
	return t.class == c
}

// Check validates that t belongs to this class, returning an
// *InvalidResultError otherwise.
func (c *Class) Check(t Type) error {
	if t.class == c {
		return nil
	}
	name := "<invalid>"
	if t.class != nil {
		name = t.Name()
	}
	return &InvalidResultError{Name: name, Valid: c.Names()}
}

// Name returns the outcome's name, or "<invalid>" for the zero Type.
func (t Type) Name() string {
	if t.class == nil {
		return "<invalid>"
	}
	return t.class.members[t.idx].Name
}

// Failure reports whether the outcome is tagged as a failure.
func (t Type) Failure() bool {
	return t.class != nil && t.class.members[t.idx].Failure
}

// Success reports whether the outcome is tagged as a success.
func (t Type) Success() bool {
	return t.class != nil && !t.class.members[t.idx].Failure
}

// Index returns the outcome's position in its class.
func (t Type) Index() int {
	return t.idx
}

// Valid reports whether the Type was obtained from a class.
func (t Type) Valid() bool {
	return t.class != nil
}

func (t Type) String() string {
	return t.Name()
}
