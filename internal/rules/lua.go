package rules

import (
	"fmt"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// matchFunc is the global every rule script must define: matches(item) -> bool.
const matchFunc = "matches"

// Engine wraps one gopher-lua VM holding the compiled predicates of a rule load.
// After the filters are published it is only touched by the tick goroutine.
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

func NewEngine(log *zap.Logger) *Engine {
	vm := lua.NewState(lua.Options{SkipOpenLibs: false})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	return &Engine{vm: vm, log: log}
}

// Compile loads the script at path and captures its matches function.
func (e *Engine) Compile(name, path string) (Filter, error) {
	if err := e.vm.DoFile(path); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	fn, ok := e.vm.GetGlobal(matchFunc).(*lua.LFunction)
	if !ok {
		return nil, fmt.Errorf("load %s: no %s function", path, matchFunc)
	}
	// Scripts share one VM; clear the global so the next script cannot
	// silently inherit this one.
	e.vm.SetGlobal(matchFunc, lua.LNil)
	return &luaFilter{name: name, fn: fn, engine: e}, nil
}

// CompileString compiles an inline script; used for filter tests typed by the user.
func (e *Engine) CompileString(name, src string) (Filter, error) {
	if err := e.vm.DoString(src); err != nil {
		return nil, fmt.Errorf("compile %s: %w", name, err)
	}
	fn, ok := e.vm.GetGlobal(matchFunc).(*lua.LFunction)
	if !ok {
		return nil, fmt.Errorf("compile %s: no %s function", name, matchFunc)
	}
	e.vm.SetGlobal(matchFunc, lua.LNil)
	return &luaFilter{name: name, fn: fn, engine: e}, nil
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}

type luaFilter struct {
	name   string
	fn     *lua.LFunction
	engine *Engine
}

func (f *luaFilter) Name() string { return f.name }

func (f *luaFilter) Matches(item Item) bool {
	vm := f.engine.vm
	t := vm.NewTable()
	t.RawSetString("path", lua.LString(item.Path))
	t.RawSetString("base_name", lua.LString(item.BaseName))
	t.RawSetString("width", lua.LNumber(item.Width))
	t.RawSetString("height", lua.LNumber(item.Height))
	t.RawSetString("distance", lua.LNumber(item.Distance))

	if err := vm.CallByParam(lua.P{
		Fn:      f.fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		f.engine.log.Error("lua rule error", zap.String("rule", f.name), zap.Error(err))
		return false
	}
	result := vm.Get(-1)
	vm.Pop(1)
	return lua.LVAsBool(result)
}

// LoadFilters compiles every enabled rule found under dir. A rule that fails to
// load is skipped with a warning.
func LoadFilters(dir string, list []Rule, log *zap.Logger) []Filter {
	e := NewEngine(log)
	filters := make([]Filter, 0, len(list))
	for _, r := range list {
		if !r.Enabled {
			continue
		}
		path := filepath.Join(dir, r.Location)
		f, err := e.Compile(r.Name, path)
		if err != nil {
			log.Warn("skip pickit rule", zap.String("rule", r.Name), zap.Error(err))
			continue
		}
		log.Debug("loaded pickit rule", zap.String("rule", r.Name), zap.String("file", path))
		filters = append(filters, f)
	}
	return filters
}

// LoadAndApply compiles the rules on a background goroutine and publishes them
// into set. The returned channel is closed once the set has been updated.
func LoadAndApply(set *Set, dir string, list []Rule, log *zap.Logger) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		filters := LoadFilters(dir, list, log)
		set.Store(filters)
		log.Info("pickit rules applied", zap.Int("filters", len(filters)), zap.Int("configured", len(list)))
	}()
	return done
}
