package lang

import (
	"errors"
	"slices"
	"testing"
)

func constFunc(name string, result any) *FunctionDefinition {
	return Define(name).
		Varargs(Any()).
		MustBuild(func([]any, map[string]any) (any, error) { return result, nil })
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"", "$1"},
		{"$", "$1"},
		{"x", "$x"},
		{"$x", "$x"},
		{"1", "$1"},
		{"$$", "$$"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeName(tt.name); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestScopeData(t *testing.T) {
	root := NewContext()
	root.Set("a", int64(1))
	root.Set("$", "root")

	child := root.CreateChild()
	child.Set("$b", int64(2))
	child.Set("a", int64(10))

	tests := []struct {
		name      string
		c         Context
		key       string
		askParent bool
		want      any
		found     bool
	}{
		{"own value", child, "b", true, int64(2), true},
		{"shadowed value", child, "$a", true, int64(10), true},
		{"parent fallback", child, "", true, "root", true},
		{"no parent fallback", child, "$", false, nil, false},
		{"unchanged ancestor", root, "a", true, int64(1), true},
		{"invisible to ancestor", root, "b", true, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.c.Lookup(tt.key, tt.askParent)
			if ok != tt.found || got != tt.want {
				t.Errorf("expected (%v, %v), got (%v, %v)", tt.want, tt.found, got, ok)
			}
		})
	}

	child.Delete("a")

	if v, _ := child.Get("a"); v != int64(1) {
		t.Errorf("expected deleted binding to reveal parent value 1, got %v", v)
	}

	if got := AllKeys(child); !slices.Equal(got, []string{"$1", "$a", "$b"}) {
		t.Errorf("expected visible keys [$1 $a $b], got %v", got)
	}
}

func TestRegisterInvalidMethod(t *testing.T) {
	c := NewContext()

	lazyFirst := Define("m").
		Param("x", Lazy()).
		MustBuild(func([]any, map[string]any) (any, error) { return nil, nil })

	if err := c.Register(lazyFirst, AsMethod()); !errors.Is(err, ErrInvalidMethod) {
		t.Errorf("expected %v, got %v", ErrInvalidMethod, err)
	}

	onlyInjected := Define("m").
		Inject("context", InjectContext()).
		MustBuild(func([]any, map[string]any) (any, error) { return nil, nil })

	if err := c.Register(onlyInjected, AsMethod()); !errors.Is(err, ErrInvalidMethod) {
		t.Errorf("expected %v, got %v", ErrInvalidMethod, err)
	}

	if fds, _ := c.Functions("m", nil); len(fds) != 0 {
		t.Errorf("expected no registrations after failures, got %d", len(fds))
	}

	_, err := Define("m").Param("x", Lazy()).Method().Build(nil)
	if !errors.Is(err, ErrInvalidMethod) {
		t.Errorf("expected builder to reject lazy receiver, got %v", err)
	}
}

func TestRegisterOptions(t *testing.T) {
	c := NewContext()
	fd := constFunc("f", "f")

	if err := c.Register(fd, Named("g"), AsMethod()); err != nil {
		t.Fatalf("register: %v", err)
	}

	fds, _ := c.Functions("g", nil)
	if len(fds) != 1 {
		t.Fatalf("expected one definition of g, got %d", len(fds))
	}

	if fds[0] == fd || !fds[0].IsMethod || fds[0].IsFunction {
		t.Errorf("expected a renamed method-only clone")
	}

	if fd.Name != "f" || !fd.IsFunction {
		t.Errorf("expected original definition unchanged")
	}

	if !c.Has("g") || c.Has("f") {
		t.Errorf("expected g registered and f not")
	}

	c.DeleteFunction(fds[0])

	if c.Has("g") {
		t.Errorf("expected g removed")
	}
}

func TestCollectFunctions(t *testing.T) {
	root := NewContext()
	mid := root.CreateChild()
	leaf := mid.CreateChild()

	rootF := constFunc("f", "root")
	midF := constFunc("f", "mid")
	leafF := constFunc("f", "leaf")

	for _, r := range []struct {
		c  Context
		fd *FunctionDefinition
	}{{root, rootF}, {mid, midF}, {leaf, leafF}} {
		if err := r.c.Register(r.fd); err != nil {
			t.Fatalf("register: %v", err)
		}
	}

	layers := CollectFunctions(leaf, "f", nil)
	if len(layers) != 3 || layers[0][0] != leafF || layers[1][0] != midF || layers[2][0] != rootF {
		t.Errorf("expected leaf, mid, root layers, got %v", layers)
	}

	if got := CollectFunctions(leaf, "g", nil); len(got) != 0 {
		t.Errorf("expected no layers for unknown name, got %v", got)
	}

	methods := CollectFunctions(leaf, "f", func(fd *FunctionDefinition, _ Context) bool {
		return fd.IsMethod
	})
	if len(methods) != 0 {
		t.Errorf("expected predicate to filter all layers, got %v", methods)
	}
}

func TestCollectFunctionsExclusive(t *testing.T) {
	root := NewContext()
	mid := root.CreateChild()
	leaf := mid.CreateChild().CreateChild()

	rootF := constFunc("f", "root")
	midF := constFunc("f", "mid")

	if err := root.Register(rootF); err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := root.Register(constFunc("g", "g")); err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := mid.Register(midF, Exclusive()); err != nil {
		t.Fatalf("register: %v", err)
	}

	layers := CollectFunctions(leaf, "f", nil)
	if len(layers) != 1 || len(layers[0]) != 1 || layers[0][0] != midF {
		t.Errorf("expected only the exclusive layer, got %v", layers)
	}

	if got := CollectFunctions(leaf, "g", nil); len(got) != 1 {
		t.Errorf("expected exclusivity to be per name, got %v", got)
	}
}

func TestMultiContext(t *testing.T) {
	r1, r2 := NewContext(), NewContext()
	a, b := r1.CreateChild(), r2.CreateChild()

	a.Set("x", int64(1))
	b.Set("x", int64(2))
	b.Set("y", int64(3))
	r1.Set("z", int64(4))
	r2.Set("w", int64(5))

	fa, fb := constFunc("f", "a"), constFunc("f", "b")
	fr1, fr2 := constFunc("f", "r1"), constFunc("f", "r2")

	for _, r := range []struct {
		c  Context
		fd *FunctionDefinition
	}{{a, fa}, {b, fb}, {r1, fr1}, {r2, fr2}} {
		if err := r.c.Register(r.fd); err != nil {
			t.Fatalf("register: %v", err)
		}
	}

	m := NewMultiContext(a, b)

	tests := []struct {
		key   string
		want  any
		found bool
	}{
		{"x", int64(1), true},
		{"y", int64(3), true},
		{"z", int64(4), true},
		{"w", int64(5), true},
		{"v", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := m.Get(tt.key)
			if ok != tt.found || got != tt.want {
				t.Errorf("expected (%v, %v), got (%v, %v)", tt.want, tt.found, got, ok)
			}
		})
	}

	if _, ok := m.Lookup("z", false); ok {
		t.Errorf("expected no parent lookup")
	}

	layers := CollectFunctions(m, "f", nil)
	if len(layers) != 2 {
		t.Fatalf("expected 2 layers, got %d", len(layers))
	}

	if !slices.Equal(layers[0], []*FunctionDefinition{fa, fb}) {
		t.Errorf("expected first layer [a b], got %v", layers[0])
	}

	if !slices.Equal(layers[1], []*FunctionDefinition{fr1, fr2}) {
		t.Errorf("expected second layer [r1 r2], got %v", layers[1])
	}
}

func TestMultiContextCollectPerChain(t *testing.T) {
	register := func(t *testing.T, c Context, fd *FunctionDefinition, opts ...RegisterOption) {
		t.Helper()

		if err := c.Register(fd, opts...); err != nil {
			t.Fatalf("register: %v", err)
		}
	}

	t.Run("exclusive stays in its chain", func(t *testing.T) {
		r1, r2 := NewContext(), NewContext()
		a, b := r1.CreateChild(), r2.CreateChild()

		fa, fr1, fr2 := constFunc("f", "a"), constFunc("f", "r1"), constFunc("f", "r2")

		register(t, a, fa, Exclusive())
		register(t, r1, fr1)
		register(t, r2, fr2)

		layers := CollectFunctions(NewMultiContext(a, b), "f", nil)
		if len(layers) != 1 || !slices.Equal(layers[0], []*FunctionDefinition{fa, fr2}) {
			t.Errorf("expected [[a r2]], got %v", layers)
		}
	})

	t.Run("empty layers are skipped per chain", func(t *testing.T) {
		r3, r4 := NewContext(), NewContext()
		c, d := r3.CreateChild(), r4.CreateChild()

		fc, fr3, fr4 := constFunc("f", "c"), constFunc("f", "r3"), constFunc("f", "r4")

		register(t, c, fc)
		register(t, r3, fr3)
		register(t, r4, fr4)

		layers := CollectFunctions(NewMultiContext(c, d), "f", nil)
		if len(layers) != 2 {
			t.Fatalf("expected 2 layers, got %v", layers)
		}

		if !slices.Equal(layers[0], []*FunctionDefinition{fc, fr4}) {
			t.Errorf("expected first layer [c r4], got %v", layers[0])
		}

		if !slices.Equal(layers[1], []*FunctionDefinition{fr3}) {
			t.Errorf("expected second layer [r3], got %v", layers[1])
		}
	})

	t.Run("child of a merge", func(t *testing.T) {
		r1, r2 := NewContext(), NewContext()
		child := NewMultiContext(r1, r2).CreateChild()

		fchild, fr1 := constFunc("f", "child"), constFunc("f", "r1")

		register(t, child, fchild)
		register(t, r1, fr1)

		layers := CollectFunctions(child, "f", nil)
		if len(layers) != 2 || layers[0][0] != fchild || layers[1][0] != fr1 {
			t.Errorf("expected [[child] [r1]], got %v", layers)
		}
	})
}

func TestLinkedContext(t *testing.T) {
	parent := NewContext()
	parent.Set("d", int64(1))

	if err := parent.Register(constFunc("g", "parent")); err != nil {
		t.Fatalf("register: %v", err)
	}

	linkedRoot := NewContext()
	linkedRoot.Set("e", int64(2))

	if err := linkedRoot.Register(constFunc("h", "linked")); err != nil {
		t.Fatalf("register: %v", err)
	}

	linked := linkedRoot.CreateChild()
	linked.Set("d", int64(3))

	lc := NewLinkedContext(parent, linked)

	if v, _ := lc.Get("d"); v != int64(3) {
		t.Errorf("expected linked value 3 for d, got %v", v)
	}

	if v, _ := lc.Get("e"); v != int64(2) {
		t.Errorf("expected linked root value 2 for e, got %v", v)
	}

	lc.Set("n", true)

	if _, ok := linked.Lookup("n", false); !ok {
		t.Errorf("expected Set to write to the linked layer")
	}

	if len(CollectFunctions(lc, "h", nil)) != 1 {
		t.Errorf("expected linked function h to be visible")
	}

	if len(CollectFunctions(lc, "g", nil)) != 1 {
		t.Errorf("expected parent function g to be visible")
	}

	if got := AllFunctionNames(lc.CreateChild()); !slices.Equal(got, []string{"g", "h"}) {
		t.Errorf("expected [g h], got %v", got)
	}
}
