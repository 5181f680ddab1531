package scripting

import (
	"fmt"

	"github.com/l1jgo/hecs/internal/component"
	"github.com/l1jgo/hecs/internal/core/ecs"
	lua "github.com/yuin/gopher-lua"
)

const handleTypeName = "hecs.entity"

// --- entity handles ---

func (s *ScriptSystem) registerHandleType() {
	mt := s.vm.NewTypeMetatable(handleTypeName)
	s.vm.SetField(mt, "__index", s.vm.SetFuncs(s.vm.NewTable(), map[string]lua.LGFunction{
		"id":         handleID,
		"is_active":  handleIsActive,
		"has":        handleHas,
		"get":        handleGet,
		"set":        handleSet,
		"add":        handleAdd,
		"remove":     handleRemove,
		"activate":   handleActivate,
		"inactivate": handleInactivate,
		"destroy":    handleDestroy,
	}))
	s.vm.SetField(mt, "__tostring", s.vm.NewFunction(handleID))
}

func (s *ScriptSystem) pushHandle(h ecs.EntityHandle) *lua.LUserData {
	ud := s.vm.NewUserData()
	ud.Value = h
	s.vm.SetMetatable(ud, s.vm.GetTypeMetatable(handleTypeName))
	return ud
}

func checkHandle(L *lua.LState, n int) ecs.EntityHandle {
	ud := L.CheckUserData(n)
	h, ok := ud.Value.(ecs.EntityHandle)
	if !ok {
		L.ArgError(n, "entity handle expected")
	}
	return h
}

// raise turns a Go error into a Lua error; it does not return when err != nil.
func raise(L *lua.LState, err error) {
	if err != nil {
		L.RaiseError("%s", err.Error())
	}
}

func handleID(L *lua.LState) int {
	L.Push(lua.LString(checkHandle(L, 1).ID().String()))
	return 1
}

func handleIsActive(L *lua.LState) int {
	L.Push(lua.LBool(checkHandle(L, 1).IsActive()))
	return 1
}

func handleHas(L *lua.LState) int {
	ok, err := checkHandle(L, 1).HasComponentOfType(L.CheckString(2))
	raise(L, err)
	L.Push(lua.LBool(ok))
	return 1
}

// fielded fetches the committed component of typ; nil when absent.
func fielded(L *lua.LState, h ecs.EntityHandle, typ string) component.Fielded {
	c, err := h.GetComponentOfType(typ)
	raise(L, err)
	if c == nil {
		return nil
	}
	f, ok := c.(component.Fielded)
	if !ok {
		L.RaiseError("component %q has no scriptable fields", typ)
	}
	return f
}

// get(type, field) returns nil when the component or field is absent.
func handleGet(L *lua.LState) int {
	h := checkHandle(L, 1)
	typ, field := L.CheckString(2), L.CheckString(3)
	f := fielded(L, h, typ)
	if f == nil {
		L.Push(lua.LNil)
		return 1
	}
	v, ok := f.Get(field)
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(v))
	return 1
}

// set(type, field, value) writes into the committed component in place.
func handleSet(L *lua.LState) int {
	h := checkHandle(L, 1)
	typ, field, v := L.CheckString(2), L.CheckString(3), L.CheckNumber(4)
	f := fielded(L, h, typ)
	if f == nil {
		L.RaiseError("entity %s has no component %q", h.ID(), typ)
	}
	if !f.Set(field, float64(v)) {
		L.RaiseError("component %q has no writable field %q", typ, field)
	}
	return 0
}

// add(type, {field = value, ...}) stages a new component.
func handleAdd(L *lua.LState) int {
	h := checkHandle(L, 1)
	typ := L.CheckString(2)
	c := component.New(typ)
	if fields, ok := L.Get(3).(*lua.LTable); ok {
		fields.ForEach(func(k, v lua.LValue) {
			key, kok := k.(lua.LString)
			num, vok := v.(lua.LNumber)
			if !kok || !vok {
				L.RaiseError("component fields must map names to numbers")
			}
			if !c.Set(string(key), float64(num)) {
				L.RaiseError("component %q has no writable field %q", typ, string(key))
			}
		})
	}
	raise(L, h.AddComponent(c))
	return 0
}

func handleRemove(L *lua.LState) int {
	raise(L, checkHandle(L, 1).RemoveComponentOfType(L.CheckString(2)))
	return 0
}

func handleActivate(L *lua.LState) int {
	raise(L, checkHandle(L, 1).Activate())
	return 0
}

func handleInactivate(L *lua.LState) int {
	raise(L, checkHandle(L, 1).Inactivate())
	return 0
}

func handleDestroy(L *lua.LState) int {
	raise(L, checkHandle(L, 1).Destroy())
	return 0
}

// --- globals ---

func (s *ScriptSystem) registerGlobals() {
	s.vm.SetGlobal("emit", s.vm.NewFunction(s.luaEmit))
	s.vm.SetGlobal("on", s.vm.NewFunction(s.luaOn))
	s.vm.SetGlobal("off", s.vm.NewFunction(s.luaOff))
	s.vm.SetGlobal("spawn", s.vm.NewFunction(s.luaSpawn))
}

// emit(event, ...)
func (s *ScriptSystem) luaEmit(L *lua.LState) int {
	event := L.CheckString(1)
	args := make([]any, 0, L.GetTop()-1)
	for i := 2; i <= L.GetTop(); i++ {
		args = append(args, fromLua(L.Get(i)))
	}
	s.EmitEvent(event, args...)
	return 0
}

// on(event, fn) -> id
func (s *ScriptSystem) luaOn(L *lua.LState) int {
	event := L.CheckString(1)
	fn := L.CheckFunction(2)
	id := s.OnEvent(event, func(args ...any) {
		largs := make([]lua.LValue, len(args))
		for i, a := range args {
			largs[i] = s.toLua(a)
		}
		s.invoke(fn, "on:"+event, largs...)
	})
	L.Push(lua.LString(id))
	return 1
}

// off(id)
func (s *ScriptSystem) luaOff(L *lua.LState) int {
	s.OffEventHandler(L.CheckString(1))
	return 0
}

// spawn(parent, name) -> handle. parent may be a handle, an id string or nil
// (the root entity); name may be omitted.
func (s *ScriptSystem) luaSpawn(L *lua.LState) int {
	parent := ecs.Nil
	switch v := L.Get(1).(type) {
	case *lua.LNilType:
	case *lua.LUserData:
		parent = checkHandle(L, 1).ID()
	case lua.LString:
		id, err := ecs.ParseEntityID(string(v))
		raise(L, err)
		parent = id
	default:
		L.ArgError(1, "parent must be an entity handle, id or nil")
	}
	h, err := s.CreateEntity(parent, L.OptString(2, ""))
	raise(L, err)
	L.Push(s.pushHandle(h))
	return 1
}

// --- value conversion ---

func fromLua(v lua.LValue) any {
	switch v := v.(type) {
	case *lua.LNilType:
		return nil
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		return float64(v)
	case lua.LString:
		return string(v)
	case *lua.LUserData:
		if h, ok := v.Value.(ecs.EntityHandle); ok {
			return h.ID()
		}
		return v.Value
	default:
		return v
	}
}

func (s *ScriptSystem) toLua(v any) lua.LValue {
	switch v := v.(type) {
	case nil:
		return lua.LNil
	case lua.LValue:
		return v
	case bool:
		return lua.LBool(v)
	case string:
		return lua.LString(v)
	case float64:
		return lua.LNumber(v)
	case float32:
		return lua.LNumber(v)
	case int:
		return lua.LNumber(v)
	case int64:
		return lua.LNumber(v)
	case uint64:
		return lua.LNumber(v)
	case ecs.EntityID:
		return lua.LString(v.String())
	case ecs.EntityHandle:
		return s.pushHandle(v)
	default:
		return lua.LString(fmt.Sprint(v))
	}
}
