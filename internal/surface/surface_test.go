package surface

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/dailycanvas/internal/apperr"
)

type widget struct {
	log []string
}

func chain() (root, base, variant *Surface[*widget]) {
	root = New[*widget]("component", nil)
	root.Define("unload", func(w *widget, _ ...any) (any, error) { return nil, nil })

	base = New[*widget]("node", root)
	base.Define("initialize", func(w *widget, _ ...any) (any, error) {
		w.log = append(w.log, "base.initialize")
		return "ok", nil
	})

	variant = New[*widget]("text", base)
	variant.Define("initialize", func(w *widget, args ...any) (any, error) {
		w.log = append(w.log, "text.initialize")
		return variant.CallSuper(w, "initialize", args...)
	})
	return root, base, variant
}

func TestCallWalksChain(t *testing.T) {
	_, _, variant := chain()
	w := &widget{}
	res, err := variant.Call(w, "initialize")
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if res != "ok" {
		t.Errorf("result = %v", res)
	}
	if diff := cmp.Diff([]string{"text.initialize", "base.initialize"}, w.log); diff != "" {
		t.Errorf("call order (-want +got):\n%s", diff)
	}
	if _, err := variant.Call(w, "unload"); err != nil {
		t.Errorf("inherited method: %v", err)
	}
}

func TestCallUnknownMethod(t *testing.T) {
	_, _, variant := chain()
	_, err := variant.Call(&widget{}, "explode")
	if !errors.Is(err, apperr.ErrUnrecognizedSurface) {
		t.Errorf("err = %v", err)
	}
}

func TestHighest(t *testing.T) {
	root, base, variant := chain()
	if got := variant.Highest("initialize"); got != base {
		t.Errorf("Highest(initialize) = %v, want node", got.Name())
	}
	if got := base.Highest("initialize"); got != base {
		t.Errorf("Highest from base = %v", got.Name())
	}
	if got := variant.Highest("unload"); got != root {
		t.Errorf("Highest(unload) = %v", got.Name())
	}
	if got := variant.Highest("missing"); got != nil {
		t.Errorf("Highest(missing) = %v, want nil", got.Name())
	}
}

func TestWrapAppliesToAllReceiversOnce(t *testing.T) {
	_, base, variant := chain()
	var before, after int
	hooks := Hooks[*widget]{
		Before: func(*widget, []any) { before++ },
		After:  func(_ *widget, _ []any, res any) { after++ },
	}

	applied, err := Wrap(base, "initialize", "pin-header", hooks)
	if err != nil || !applied {
		t.Fatalf("first wrap: applied=%v err=%v", applied, err)
	}
	for i := 0; i < 3; i++ {
		applied, err = Wrap(base, "initialize", "pin-header", hooks)
		if err != nil || applied {
			t.Fatalf("repeat wrap: applied=%v err=%v", applied, err)
		}
	}

	a, b := &widget{}, &widget{}
	res, _ := variant.Call(a, "initialize")
	_, _ = variant.Call(b, "initialize")

	if res != "ok" {
		t.Errorf("wrapped result = %v", res)
	}
	if before != 2 || after != 2 {
		t.Errorf("before=%d after=%d, want 2 each", before, after)
	}
	if !base.Patched("initialize", "pin-header") {
		t.Error("token not recorded")
	}
}

func TestWrapPreservesError(t *testing.T) {
	s := New[*widget]("canvas", nil)
	boom := errors.New("boom")
	s.Define("addItem", func(*widget, ...any) (any, error) { return nil, boom })

	afterRan := false
	_, err := Wrap(s, "addItem", "t", Hooks[*widget]{
		After: func(*widget, []any, any) { afterRan = true },
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Call(&widget{}, "addItem"); !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
	if afterRan {
		t.Error("After must not run when the original fails")
	}
}

func TestWrapInheritedMethodRejected(t *testing.T) {
	_, _, variant := chain()
	_, err := Wrap(variant, "unload", "t", Hooks[*widget]{})
	if !errors.Is(err, apperr.ErrUnrecognizedSurface) {
		t.Errorf("err = %v", err)
	}
}
