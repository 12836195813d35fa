package lang

import (
	"maps"
	"slices"
	"strings"
)

// Predicate filters function definitions during lookup. layer is the
// context whose own registrations are being examined.
type Predicate func(fd *FunctionDefinition, layer Context) bool

// Context is a lexical scope holding data bindings and function
// registrations, chained to a parent.
//
// Data names are normalized: a leading "$" is added when missing, and both
// "" and "$" name the default slot "$1".
type Context interface {
	// Parent returns the enclosing scope, or nil at the root.
	Parent() Context
	// Get returns the named value, asking ancestors on a miss.
	Get(name string) (any, bool)
	// Lookup returns the named value, asking ancestors only if askParent.
	Lookup(name string, askParent bool) (any, bool)
	// Set binds a value in this scope only.
	Set(name string, value any)
	// Delete removes a binding from this scope only.
	Delete(name string)
	// Has reports whether this scope binds the data name or registers a
	// function with that name.
	Has(name string) bool
	// Keys returns the data names bound in this scope.
	Keys() []string
	// Register adds a definition to this scope.
	Register(fd *FunctionDefinition, opts ...RegisterOption) error
	// Functions returns this scope's own definitions of name accepted by
	// pred, and whether name was registered exclusively here.
	Functions(name string, pred Predicate) ([]*FunctionDefinition, bool)
	// FunctionNames returns the function names registered in this scope.
	FunctionNames() []string
	// DeleteFunction removes a definition from this scope.
	DeleteFunction(fd *FunctionDefinition)
	// CreateChild returns a new scope whose parent is this one.
	CreateChild() Context
}

// NormalizeName returns the canonical form of a data name.
func NormalizeName(name string) string {
	if !strings.HasPrefix(name, "$") {
		name = "$" + name
	}

	if name == "$" {
		return "$1"
	}

	return name
}

// CollectFunctions walks from c toward the root and returns, closest first,
// the non-empty layers of definitions of name accepted by pred. The walk
// stops after the first layer that registered name exclusively.
func CollectFunctions(c Context, name string, pred Predicate) [][]*FunctionDefinition {
	var layers [][]*FunctionDefinition

	for layer := c; layer != nil; {
		if m, ok := layer.(*MultiContext); ok {
			return append(layers, m.collectFunctions(name, pred)...)
		}

		fds, exclusive := layer.Functions(name, pred)
		if len(fds) > 0 {
			layers = append(layers, fds)
		}

		if exclusive {
			break
		}

		layer = layer.Parent()
	}

	return layers
}

// RegisterOption adjusts a definition as it is registered.
type RegisterOption func(*registration)

type registration struct {
	name      string
	exclusive bool
	method    bool
	function  bool
}

// Exclusive hides same-named definitions of all ancestor scopes.
func Exclusive() RegisterOption {
	return func(r *registration) { r.exclusive = true }
}

// AsMethod registers the definition as a method only.
func AsMethod() RegisterOption {
	return func(r *registration) { r.method = true }
}

// AsFunction registers the definition as a plain function only.
func AsFunction() RegisterOption {
	return func(r *registration) { r.function = true }
}

// Named registers the definition under a different name.
func Named(name string) RegisterOption {
	return func(r *registration) { r.name = name }
}

// prepare applies registration options to a copy of fd when needed and
// validates it.
func prepare(fd *FunctionDefinition, opts []RegisterOption) (*FunctionDefinition, bool, error) {
	var r registration

	for _, opt := range opts {
		opt(&r)
	}

	if r.name != "" || r.method || r.function {
		fd = fd.Clone()

		if r.name != "" {
			fd.Name = r.name
		}

		if r.method {
			fd.IsMethod, fd.IsFunction = true, false
		}

		if r.function {
			fd.IsMethod, fd.IsFunction = false, true
		}
	}

	if fd.IsMethod && !fd.IsValidMethod() {
		return nil, false, ErrInvalidMethod.Describe("%q has no receiver parameter", fd.Name)
	}

	return fd, r.exclusive, nil
}

// Scope is the basic context: one layer of data and functions.
type Scope struct {
	parent    Context
	data      map[string]any
	functions map[string][]*FunctionDefinition
	exclusive map[string]bool
}

// NewContext returns an empty root scope.
func NewContext() *Scope { return newScope(nil) }

func newScope(parent Context) *Scope {
	return &Scope{
		parent:    parent,
		data:      make(map[string]any),
		functions: make(map[string][]*FunctionDefinition),
		exclusive: make(map[string]bool),
	}
}

// Parent implements [Context].
func (s *Scope) Parent() Context { return s.parent }

// Get implements [Context].
func (s *Scope) Get(name string) (any, bool) { return s.Lookup(name, true) }

// Lookup implements [Context].
func (s *Scope) Lookup(name string, askParent bool) (any, bool) {
	name = NormalizeName(name)
	if v, ok := s.data[name]; ok {
		return v, true
	}

	if askParent && s.parent != nil {
		return s.parent.Lookup(name, true)
	}

	return nil, false
}

// Set implements [Context].
func (s *Scope) Set(name string, value any) { s.data[NormalizeName(name)] = value }

// Delete implements [Context].
func (s *Scope) Delete(name string) { delete(s.data, NormalizeName(name)) }

// Has implements [Context].
func (s *Scope) Has(name string) bool {
	if _, ok := s.data[NormalizeName(name)]; ok {
		return true
	}

	return len(s.functions[name]) > 0
}

// Keys implements [Context].
func (s *Scope) Keys() []string { return slices.Sorted(maps.Keys(s.data)) }

// Register implements [Context].
func (s *Scope) Register(fd *FunctionDefinition, opts ...RegisterOption) error {
	fd, exclusive, err := prepare(fd, opts)
	if err != nil {
		return err
	}

	if !slices.Contains(s.functions[fd.Name], fd) {
		s.functions[fd.Name] = append(s.functions[fd.Name], fd)
	}

	if exclusive {
		s.exclusive[fd.Name] = true
	}

	return nil
}

// Functions implements [Context].
func (s *Scope) Functions(name string, pred Predicate) ([]*FunctionDefinition, bool) {
	var out []*FunctionDefinition

	for _, fd := range s.functions[name] {
		if pred == nil || pred(fd, s) {
			out = append(out, fd)
		}
	}

	return out, s.exclusive[name]
}

// FunctionNames implements [Context].
func (s *Scope) FunctionNames() []string { return slices.Sorted(maps.Keys(s.functions)) }

// DeleteFunction implements [Context].
func (s *Scope) DeleteFunction(fd *FunctionDefinition) {
	fds := slices.DeleteFunc(s.functions[fd.Name], func(f *FunctionDefinition) bool {
		return f == fd
	})

	if len(fds) == 0 {
		delete(s.functions, fd.Name)
		delete(s.exclusive, fd.Name)

		return
	}

	s.functions[fd.Name] = fds
}

// CreateChild implements [Context].
func (s *Scope) CreateChild() Context { return newScope(s) }

// MultiContext merges several independent context chains. Data lookup tries
// each member's own layer in order before falling back to the merged chain of
// the members' parents. [CollectFunctions] walks each member chain on its own,
// honoring that chain's exclusive registrations, and then unions the results
// layer by layer.
type MultiContext struct {
	parent  Context
	members []Context
}

// NewMultiContext merges members, which must not be empty.
func NewMultiContext(members ...Context) *MultiContext {
	var parents []Context

	for _, m := range members {
		if p := m.Parent(); p != nil {
			parents = append(parents, p)
		}
	}

	mc := &MultiContext{members: members}

	switch len(parents) {
	case 0:
	case 1:
		mc.parent = parents[0]
	default:
		mc.parent = NewMultiContext(parents...)
	}

	return mc
}

// Parent implements [Context].
func (m *MultiContext) Parent() Context { return m.parent }

// Get implements [Context].
func (m *MultiContext) Get(name string) (any, bool) { return m.Lookup(name, true) }

// Lookup implements [Context].
func (m *MultiContext) Lookup(name string, askParent bool) (any, bool) {
	for _, c := range m.members {
		if v, ok := c.Lookup(name, false); ok {
			return v, true
		}
	}

	if askParent && m.parent != nil {
		return m.parent.Lookup(name, true)
	}

	return nil, false
}

// Set implements [Context].
func (m *MultiContext) Set(name string, value any) {
	for _, c := range m.members {
		c.Set(name, value)
	}
}

// Delete implements [Context].
func (m *MultiContext) Delete(name string) {
	for _, c := range m.members {
		c.Delete(name)
	}
}

// Has implements [Context].
func (m *MultiContext) Has(name string) bool {
	return slices.ContainsFunc(m.members, func(c Context) bool { return c.Has(name) })
}

// Keys implements [Context].
func (m *MultiContext) Keys() []string {
	var keys []string

	for _, c := range m.members {
		keys = append(keys, c.Keys()...)
	}

	slices.Sort(keys)

	return slices.Compact(keys)
}

// Register implements [Context] by registering with the first member.
func (m *MultiContext) Register(fd *FunctionDefinition, opts ...RegisterOption) error {
	return m.members[0].Register(fd, opts...)
}

// Functions implements [Context].
func (m *MultiContext) Functions(name string, pred Predicate) ([]*FunctionDefinition, bool) {
	var (
		out       []*FunctionDefinition
		exclusive bool
	)

	for _, c := range m.members {
		fds, excl := c.Functions(name, pred)
		for _, fd := range fds {
			if !slices.Contains(out, fd) {
				out = append(out, fd)
			}
		}

		exclusive = exclusive || excl
	}

	return out, exclusive
}

// collectFunctions zips the non-empty layers of each member chain by depth.
func (m *MultiContext) collectFunctions(name string, pred Predicate) [][]*FunctionDefinition {
	var out [][]*FunctionDefinition

	for _, c := range m.members {
		for i, layer := range CollectFunctions(c, name, pred) {
			if i == len(out) {
				out = append(out, nil)
			}

			for _, fd := range layer {
				if !slices.Contains(out[i], fd) {
					out[i] = append(out[i], fd)
				}
			}
		}
	}

	return out
}

// FunctionNames implements [Context].
func (m *MultiContext) FunctionNames() []string {
	var names []string

	for _, c := range m.members {
		names = append(names, c.FunctionNames()...)
	}

	slices.Sort(names)

	return slices.Compact(names)
}

// DeleteFunction implements [Context].
func (m *MultiContext) DeleteFunction(fd *FunctionDefinition) {
	for _, c := range m.members {
		c.DeleteFunction(fd)
	}
}

// CreateChild implements [Context].
func (m *MultiContext) CreateChild() Context { return newScope(m) }

// LinkedContext mounts the chain of linked on top of parent: each layer of
// linked keeps its own data and functions, and the root layer of linked
// falls back to parent instead of ending the chain.
type LinkedContext struct {
	parent Context
	linked Context
}

// NewLinkedContext mounts linked on top of parent.
func NewLinkedContext(parent, linked Context) *LinkedContext {
	if lp := linked.Parent(); lp != nil {
		parent = NewLinkedContext(parent, lp)
	}

	return &LinkedContext{parent: parent, linked: linked}
}

// Parent implements [Context].
func (l *LinkedContext) Parent() Context { return l.parent }

// Get implements [Context].
func (l *LinkedContext) Get(name string) (any, bool) { return l.Lookup(name, true) }

// Lookup implements [Context].
func (l *LinkedContext) Lookup(name string, askParent bool) (any, bool) {
	if v, ok := l.linked.Lookup(name, false); ok {
		return v, true
	}

	if askParent && l.parent != nil {
		return l.parent.Lookup(name, true)
	}

	return nil, false
}

// Set implements [Context].
func (l *LinkedContext) Set(name string, value any) { l.linked.Set(name, value) }

// Delete implements [Context].
func (l *LinkedContext) Delete(name string) { l.linked.Delete(name) }

// Has implements [Context].
func (l *LinkedContext) Has(name string) bool { return l.linked.Has(name) }

// Keys implements [Context].
func (l *LinkedContext) Keys() []string { return l.linked.Keys() }

// Register implements [Context].
func (l *LinkedContext) Register(fd *FunctionDefinition, opts ...RegisterOption) error {
	return l.linked.Register(fd, opts...)
}

// Functions implements [Context].
func (l *LinkedContext) Functions(name string, pred Predicate) ([]*FunctionDefinition, bool) {
	return l.linked.Functions(name, pred)
}

// FunctionNames implements [Context].
func (l *LinkedContext) FunctionNames() []string { return l.linked.FunctionNames() }

// DeleteFunction implements [Context].
func (l *LinkedContext) DeleteFunction(fd *FunctionDefinition) { l.linked.DeleteFunction(fd) }

// CreateChild implements [Context].
func (l *LinkedContext) CreateChild() Context { return newScope(l) }

// AllFunctionNames returns the function names visible from c.
func AllFunctionNames(c Context) []string {
	var names []string

	for layer := c; layer != nil; layer = layer.Parent() {
		names = append(names, layer.FunctionNames()...)
	}

	slices.Sort(names)

	return slices.Compact(names)
}

// AllKeys returns the data names visible from c.
func AllKeys(c Context) []string {
	var keys []string

	for layer := c; layer != nil; layer = layer.Parent() {
		keys = append(keys, layer.Keys()...)
	}

	slices.Sort(keys)

	return slices.Compact(keys)
}
