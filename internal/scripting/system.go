package scripting

import (
	"errors"
	"fmt"
	"time"

	"github.com/l1jgo/hecs/internal/core/ecs"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// APIVersion is exposed to scripts as the API_VERSION global.
const APIVersion = 1

// Lifecycle callbacks a script may define on its system table.
var callbacks = []string{"enter", "exit", "add", "remove", "update"}

// ScriptSystem runs a Lua file as an ECS system. Each system owns its VM.
// Single-goroutine access only (the engine's tick loop).
type ScriptSystem struct {
	ecs.SystemBase
	vm   *lua.LState
	log  *zap.Logger
	path string

	typ      string
	requires []string
	fns      map[string]*lua.LFunction
}

// New is an ecs.SystemConstructor. args: the script path (string) and an
// optional *zap.Logger.
func New(create ecs.EntityFactory, bus ecs.EventBus, args ...any) (ecs.System, error) {
	var path string
	log := zap.NewNop()
	for _, a := range args {
		switch v := a.(type) {
		case string:
			path = v
		case *zap.Logger:
			if v != nil {
				log = v
			}
		}
	}
	if path == "" {
		return nil, errors.New("script system: missing script path")
	}

	vm := lua.NewState()
	vm.SetGlobal("API_VERSION", lua.LNumber(APIVersion))

	s := &ScriptSystem{
		SystemBase: ecs.NewSystemBase(create, bus),
		vm:         vm,
		log:        log,
		path:       path,
		fns:        make(map[string]*lua.LFunction),
	}
	s.registerHandleType()
	s.registerGlobals()

	if err := vm.DoFile(path); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if err := s.bind(); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	log.Debug("loaded lua system", zap.String("file", path), zap.String("type", s.typ))
	return s, nil
}

// bind reads the global system table the script defined.
func (s *ScriptSystem) bind() error {
	tbl, ok := s.vm.GetGlobal("system").(*lua.LTable)
	if !ok {
		return errors.New("global table 'system' not defined")
	}
	typ, ok := tbl.RawGetString("type").(lua.LString)
	if !ok || typ == "" {
		return errors.New("system.type must be a non-empty string")
	}
	s.typ = string(typ)

	switch req := tbl.RawGetString("requires").(type) {
	case *lua.LNilType:
	case *lua.LTable:
		for i := 1; i <= req.Len(); i++ {
			name, ok := req.RawGetInt(i).(lua.LString)
			if !ok {
				return fmt.Errorf("system.requires[%d] must be a string", i)
			}
			s.requires = append(s.requires, string(name))
		}
	default:
		return errors.New("system.requires must be an array of component types")
	}

	for _, name := range callbacks {
		switch fn := tbl.RawGetString(name).(type) {
		case *lua.LNilType:
		case *lua.LFunction:
			s.fns[name] = fn
		default:
			return fmt.Errorf("system.%s must be a function", name)
		}
	}
	return nil
}

func (s *ScriptSystem) Type() string                     { return s.typ }
func (s *ScriptSystem) RequiredComponentTypes() []string { return s.requires }

// Path returns the script file the system was loaded from.
func (s *ScriptSystem) Path() string { return s.path }

func (s *ScriptSystem) Enter() { s.call("enter") }

// Exit runs the script's exit callback, then drops every subscription the
// script made through on().
func (s *ScriptSystem) Exit() {
	s.call("exit")
	s.OffAllEventHandlers()
}

func (s *ScriptSystem) Add(e ecs.EntityHandle)    { s.call("add", s.pushHandle(e)) }
func (s *ScriptSystem) Remove(e ecs.EntityHandle) { s.call("remove", s.pushHandle(e)) }

func (s *ScriptSystem) Update(e ecs.EntityHandle, dt time.Duration) {
	s.call("update", s.pushHandle(e), lua.LNumber(dt.Seconds()))
}

// call invokes a script callback in protected mode. Script errors are logged
// and do not abort the tick.
func (s *ScriptSystem) call(name string, args ...lua.LValue) {
	fn, ok := s.fns[name]
	if !ok {
		return
	}
	s.invoke(fn, name, args...)
}

func (s *ScriptSystem) invoke(fn *lua.LFunction, name string, args ...lua.LValue) {
	if err := s.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, args...); err != nil {
		s.log.Error("lua callback error",
			zap.String("system", s.typ),
			zap.String("callback", name),
			zap.Error(err))
	}
}

// Close shuts down the Lua VM.
func (s *ScriptSystem) Close() error {
	s.vm.Close()
	return nil
}
