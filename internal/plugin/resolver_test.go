package plugin

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/rover/internal/event"
)

// dummyPlugins mirrors a small plugin directory used across the tests.
func dummyPlugins(t *testing.T, r **Resolver) *Registry {
	t.Helper()
	reg := NewRegistry()
	reg.MustRegister(&Descriptor{Name: "base", Dependencies: []string{"ncurses_base_console", "loader_parallel"}})
	reg.MustRegister(&Descriptor{Name: "ncurses_base_console", Implements: []string{"console"}})
	reg.MustRegister(&Descriptor{Name: "loader_parallel", Implements: []string{"data_loader"}})
	reg.MustRegister(&Descriptor{Name: "cool_commands", Requires: []string{"console"}})
	reg.MustRegister(&Descriptor{Name: "loop1", Dependencies: []string{"loop2"}})
	reg.MustRegister(&Descriptor{Name: "loop2", Dependencies: []string{"loop1"}})
	reg.MustRegister(&Descriptor{Name: "loop3", Install: func() error {
		return (*r).Install("loop2", false)
	}})
	reg.MustRegister(&Descriptor{Name: "self", Dependencies: []string{"self"}})
	reg.MustRegister(&Descriptor{Name: "cycle1", Implements: []string{"x"}, Dependencies: []string{"cycle2"}})
	reg.MustRegister(&Descriptor{Name: "cycle2", Requires: []string{"x"}})
	reg.MustRegister(&Descriptor{Name: "myconsole", Implements: []string{"console"}})
	reg.MustRegister(&Descriptor{Name: "mybookmarks", Implements: []string{"bookmarks"}})
	reg.MustRegister(&Descriptor{Name: "net", Implements: []string{"io"}})
	reg.MustRegister(&Descriptor{Name: "app", Requires: []string{"io"}})
	return reg
}

func newTestResolver(t *testing.T, opts ...Option) *Resolver {
	t.Helper()
	var r *Resolver
	reg := dummyPlugins(t, &r)
	r = NewResolver(reg, opts...)
	return r
}

func TestResolver_Dependencies(t *testing.T) {
	r := newTestResolver(t)

	err := r.Install("cool_commands", false)
	var missing *MissingFeatureError
	if !errors.As(err, &missing) {
		t.Fatalf("Install(cool_commands) error = %v, want MissingFeatureError", err)
	}
	if diff := cmp.Diff([]string{"console"}, missing.Missing); diff != "" {
		t.Errorf("Missing (-want +got):\n%s", diff)
	}
	if len(r.InstallStack()) != 0 {
		t.Errorf("install stack not cleared: %v", r.InstallStack())
	}

	if err := r.Install("base", false); err != nil {
		t.Fatalf("Install(base) error = %v", err)
	}
	want := []string{"ncurses_base_console", "loader_parallel", "base"}
	if diff := cmp.Diff(want, r.Installed()); diff != "" {
		t.Errorf("Installed() (-want +got):\n%s", diff)
	}

	if err := r.Install("cool_commands", false); err != nil {
		t.Fatalf("Install(cool_commands) after base error = %v", err)
	}
}

func TestResolver_SelfDependency(t *testing.T) {
	r := newTestResolver(t)

	err := r.Install("self", false)
	var cycle *DependencyCycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("Install(self) error = %v, want DependencyCycleError", err)
	}
	if !errors.Is(err, ErrDependencyCycle) {
		t.Error("error does not match ErrDependencyCycle")
	}
	if diff := cmp.Diff([]string{"self"}, cycle.Cycle()); diff != "" {
		t.Errorf("Cycle() (-want +got):\n%s", diff)
	}
	if cycle.Chain() != "self -> self" {
		t.Errorf("Chain() = %q", cycle.Chain())
	}
	if r.IsInstalled("self") || len(r.InstallStack()) != 0 {
		t.Error("failed install left state behind")
	}
}

func TestResolver_CycleDetection(t *testing.T) {
	r := newTestResolver(t)

	for _, name := range []string{"loop1", "loop2", "loop3"} {
		err := r.Install(name, false)
		if !errors.Is(err, ErrDependencyCycle) {
			t.Errorf("Install(%s) error = %v, want dependency cycle", name, err)
		}
		if len(r.InstallStack()) != 0 {
			t.Errorf("Install(%s) left stack %v", name, r.InstallStack())
		}
	}

	var cycle *DependencyCycleError
	if err := r.Install("loop1", false); errors.As(err, &cycle) {
		if diff := cmp.Diff([]string{"loop1", "loop2", "loop1"}, cycle.Stack); diff != "" {
			t.Errorf("Stack (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff([]string{"loop1", "loop2"}, cycle.Cycle()); diff != "" {
			t.Errorf("Cycle() (-want +got):\n%s", diff)
		}
	}

	// cycle2 installs first as a dependency, before cycle1 provides x
	if err := r.Install("cycle1", false); !errors.Is(err, ErrMissingFeature) {
		t.Errorf("Install(cycle1) error = %v, want missing feature", err)
	}
}

func TestResolver_FeatureOrdering(t *testing.T) {
	r := newTestResolver(t)

	err := r.Install("app", false)
	var missing *MissingFeatureError
	if !errors.As(err, &missing) {
		t.Fatalf("Install(app) error = %v, want MissingFeatureError", err)
	}
	if missing.Plugin != "app" {
		t.Errorf("Plugin = %q, want app", missing.Plugin)
	}
	if diff := cmp.Diff([]string{"io"}, missing.Missing); diff != "" {
		t.Errorf("Missing (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"app"}, missing.Stack); diff != "" {
		t.Errorf("Stack (-want +got):\n%s", diff)
	}

	if err := r.Install("net", false); err != nil {
		t.Fatalf("Install(net) error = %v", err)
	}
	if err := r.Install("app", false); err != nil {
		t.Fatalf("Install(app) error = %v", err)
	}
	if diff := cmp.Diff([]string{"net", "app"}, r.Installed()); diff != "" {
		t.Errorf("Installed() (-want +got):\n%s", diff)
	}
}

func TestResolver_ReplaceFeatures(t *testing.T) {
	var r *Resolver
	reg := dummyPlugins(t, &r)
	throbberClaimed := false
	reg.MustRegister(&Descriptor{
		Name:       "myloader",
		Implements: []string{"data_loader"},
		Install: func() error {
			throbberClaimed = r.ImplementFeature("throbber", "myloader", false) == nil
			return nil
		},
	})
	r = NewResolver(reg)

	if err := r.Install("myconsole", false); err != nil {
		t.Fatalf("Install(myconsole) error = %v", err)
	}
	if err := r.Install("base", false); err != nil {
		t.Fatalf("Install(base) error = %v", err)
	}
	if r.IsInstalled("ncurses_base_console") {
		t.Error("ncurses_base_console installed although console was implemented")
	}

	if err := r.Install("myloader", false); err != nil {
		t.Fatalf("Install(myloader) error = %v", err)
	}
	if r.IsInstalled("myloader") {
		t.Error("myloader installed without force")
	}

	if err := r.Install("myloader", true); err != nil {
		t.Fatalf("Install(myloader, force) error = %v", err)
	}
	if !r.IsInstalled("myloader") || !throbberClaimed {
		t.Fatal("forced install did not run")
	}
	if owner, _ := r.Owner("data_loader"); owner != "myloader" {
		t.Errorf("Owner(data_loader) = %q, want myloader", owner)
	}

	err := r.ImplementFeature("throbber", "other", false)
	var exists *FeatureAlreadyExistsError
	if !errors.As(err, &exists) || exists.Owner != "myloader" {
		t.Errorf("ImplementFeature() error = %v, want FeatureAlreadyExistsError owned by myloader", err)
	}
	if err := r.ImplementFeature("throbber", "other", true); err != nil {
		t.Errorf("forced ImplementFeature() error = %v", err)
	}
}

func TestResolver_Exclusions(t *testing.T) {
	r := newTestResolver(t)

	r.ExcludePlugin("myconsole")
	if err := r.Install("myconsole", false); err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	if r.IsInstalled("myconsole") {
		t.Error("excluded plugin installed")
	}
	if _, ok := r.Owner("console"); ok {
		t.Error("excluded plugin claimed console")
	}
	r.AllowPlugin("myconsole")
	r.Install("myconsole", false)
	if !r.IsInstalled("myconsole") {
		t.Error("allowed plugin not installed")
	}

	r.ExcludeFeature("bookmarks")
	r.Install("mybookmarks", false)
	if r.IsInstalled("mybookmarks") {
		t.Error("plugin with excluded feature installed")
	}
	r.AllowFeature("bookmarks")
	r.Install("mybookmarks", false)
	if owner, _ := r.Owner("bookmarks"); owner != "mybookmarks" {
		t.Errorf("Owner(bookmarks) = %q", owner)
	}
}

func TestResolver_InstallAllSyntax(t *testing.T) {
	r := newTestResolver(t)

	err := r.InstallAll("!ncurses_base_console", "~bookmarks", "myconsole", "base", "mybookmarks", "cool_commands")
	if err != nil {
		t.Fatalf("InstallAll() error = %v", err)
	}
	want := []string{"myconsole", "loader_parallel", "base", "cool_commands"}
	if diff := cmp.Diff(want, r.Installed()); diff != "" {
		t.Errorf("Installed() (-want +got):\n%s", diff)
	}
	if !r.IsExcluded("ncurses_base_console") {
		t.Error("!name did not exclude")
	}
}

func TestResolver_ForceBypassesExclusion(t *testing.T) {
	r := newTestResolver(t)
	r.ExcludePlugin("net")
	if err := r.Install("net", true); err != nil {
		t.Fatalf("Install(force) error = %v", err)
	}
	if !r.IsInstalled("net") {
		t.Error("forced install skipped excluded plugin")
	}
}

func TestResolver_NotFound(t *testing.T) {
	r := newTestResolver(t)
	if err := r.Install("ghost", false); !errors.Is(err, ErrPluginNotFound) {
		t.Errorf("Install(ghost) error = %v, want ErrPluginNotFound", err)
	}
}

func TestResolver_InstallHookError(t *testing.T) {
	boom := errors.New("boom")
	reg := NewRegistry()
	reg.MustRegister(&Descriptor{Name: "bad", Implements: []string{"f"}, Install: func() error { return boom }})
	r := NewResolver(reg)

	err := r.Install("bad", false)
	var hook *HookError
	if !errors.As(err, &hook) || !errors.Is(err, boom) {
		t.Fatalf("Install() error = %v, want HookError wrapping boom", err)
	}
	if _, ok := r.Owner("f"); ok {
		t.Error("failed plugin claimed its feature")
	}
}

func TestResolver_Reset(t *testing.T) {
	r := newTestResolver(t)
	r.Install("base", false)
	r.ExcludePlugin("net")
	r.Reset()

	if len(r.Installed()) != 0 || len(r.Features()) != 0 || r.IsExcluded("net") {
		t.Error("Reset() left state behind")
	}
}

func TestResolver_Lifecycle(t *testing.T) {
	var order []string
	hook := func(tag string) func(context.Context) error {
		return func(context.Context) error {
			order = append(order, tag)
			return nil
		}
	}

	reg := NewRegistry()
	reg.MustRegister(&Descriptor{Name: "a", Activate: hook("+a"), Deactivate: hook("-a")})
	reg.MustRegister(&Descriptor{Name: "b", Dependencies: []string{"a"}, Activate: hook("+b"), Deactivate: hook("-b")})

	bus := event.NewBus()
	var signals []string
	for _, name := range []string{event.SignalPluginInstalled, event.SignalPluginActivated, event.SignalPluginDeactivated} {
		bus.RegisterFunc(name, func(sig *event.Signal) {
			signals = append(signals, sig.Name+":"+sig.String("name"))
		})
	}

	r := NewResolver(reg, WithBus(bus))
	if err := r.Install("b", false); err != nil {
		t.Fatalf("Install() error = %v", err)
	}

	ctx := context.Background()
	if err := r.ActivateAll(ctx); err != nil {
		t.Fatalf("ActivateAll() error = %v", err)
	}
	if st, _ := r.State("a"); st != StateActive {
		t.Errorf("State(a) = %v, want active", st)
	}
	if err := r.DeactivateAll(ctx); err != nil {
		t.Fatalf("DeactivateAll() error = %v", err)
	}

	if diff := cmp.Diff([]string{"+a", "+b", "-b", "-a"}, order); diff != "" {
		t.Errorf("hook order (-want +got):\n%s", diff)
	}
	wantSignals := []string{
		"plugin.installed:a", "plugin.installed:b",
		"plugin.activated:a", "plugin.activated:b",
		"plugin.deactivated:b", "plugin.deactivated:a",
	}
	if diff := cmp.Diff(wantSignals, signals); diff != "" {
		t.Errorf("signals (-want +got):\n%s", diff)
	}

	if err := r.Activate(ctx, "ghost"); !errors.Is(err, ErrNotInstalled) {
		t.Errorf("Activate(ghost) error = %v", err)
	}
}

func TestResolver_NormalizesDottedNames(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(&Descriptor{Name: "base_env"})
	r := NewResolver(reg)

	if err := r.Install("base.env", false); err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	if !r.IsInstalled("base_env") {
		t.Error("dotted name not normalized")
	}
}
