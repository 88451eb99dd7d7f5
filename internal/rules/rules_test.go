package rules

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestSetAny(t *testing.T) {
	var set Set
	item := Item{Path: "Metadata/Items/Currency/CurrencyRerollRare"}
	if set.Any(item) {
		t.Fatalf("empty set matched")
	}
	set.Store([]Filter{
		FilterFunc{Label: "never", Fn: func(Item) bool { return false }},
		FilterFunc{Label: "currency", Fn: func(it Item) bool { return strings.Contains(it.Path, "/Currency/") }},
	})
	if !set.Any(item) {
		t.Fatalf("currency filter did not match")
	}
	if set.Any(Item{Path: "Metadata/Items/Maps/Map1"}) {
		t.Fatalf("map matched")
	}
	if n := len(set.Load()); n != 2 {
		t.Fatalf("filters=%d want=2", n)
	}
}

func TestCompileString(t *testing.T) {
	e := NewEngine(zap.NewNop())
	defer e.Close()

	f, err := e.CompileString("small", `
function matches(item)
  return item.width * item.height <= 2 and item.distance < 100
end`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if f.Name() != "small" {
		t.Fatalf("name=%q", f.Name())
	}
	if !f.Matches(Item{Width: 1, Height: 2, Distance: 50}) {
		t.Fatalf("1x2 at 50 should match")
	}
	if f.Matches(Item{Width: 2, Height: 2, Distance: 50}) {
		t.Fatalf("2x2 should not match")
	}
	if f.Matches(Item{Width: 1, Height: 1, Distance: 150}) {
		t.Fatalf("far item should not match")
	}
}

func TestCompileStringErrors(t *testing.T) {
	e := NewEngine(zap.NewNop())
	defer e.Close()

	if _, err := e.CompileString("syntax", "function matches(item"); err == nil {
		t.Fatalf("expected syntax error")
	}
	if _, err := e.CompileString("nofunc", "x = 1"); err == nil {
		t.Fatalf("expected missing function error")
	}
}

func TestScriptsDoNotShareMatches(t *testing.T) {
	e := NewEngine(zap.NewNop())
	defer e.Close()

	if _, err := e.CompileString("first", "function matches(item) return true end"); err != nil {
		t.Fatalf("compile: %v", err)
	}
	if _, err := e.CompileString("second", "y = 2"); err == nil {
		t.Fatalf("second script inherited the first script's matches")
	}
}

func TestRuntimeErrorDoesNotMatch(t *testing.T) {
	e := NewEngine(zap.NewNop())
	defer e.Close()

	f, err := e.CompileString("broken", `function matches(item) return item.nope.field end`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if f.Matches(Item{Path: "x"}) {
		t.Fatalf("failing rule matched")
	}
	// The VM stays usable after a protected error.
	ok, err := e.CompileString("ok", `function matches(item) return item.path == "x" end`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !ok.Matches(Item{Path: "x"}) {
		t.Fatalf("rule after error did not match")
	}
}

func writeRule(t *testing.T, dir, name, src string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoadFiltersSkipsDisabledAndBroken(t *testing.T) {
	dir := t.TempDir()
	writeRule(t, dir, "currency.lua", `function matches(item) return string.find(item.path, "/Currency/", 1, true) ~= nil end`)
	writeRule(t, dir, "maps.lua", `function matches(item) return true end`)
	writeRule(t, dir, "broken.lua", `function matches(item`)

	filters := LoadFilters(dir, []Rule{
		{Name: "currency", Location: "currency.lua", Enabled: true},
		{Name: "maps", Location: "maps.lua", Enabled: false},
		{Name: "broken", Location: "broken.lua", Enabled: true},
		{Name: "missing", Location: "missing.lua", Enabled: true},
	}, zap.NewNop())

	if len(filters) != 1 || filters[0].Name() != "currency" {
		t.Fatalf("filters=%v want only currency", filters)
	}
	if !filters[0].Matches(Item{Path: "Metadata/Items/Currency/CurrencyIdentification"}) {
		t.Fatalf("currency rule did not match")
	}
}

func TestLoadAndApply(t *testing.T) {
	dir := t.TempDir()
	writeRule(t, dir, "all.lua", `function matches(item) return true end`)

	var set Set
	done := LoadAndApply(&set, dir, []Rule{{Name: "all", Location: "all.lua", Enabled: true}}, zap.NewNop())
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("rules were not applied")
	}
	if !set.Any(Item{Path: "anything"}) {
		t.Fatalf("applied rule did not match")
	}
}
