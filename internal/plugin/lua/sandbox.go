package lua

import (
	lua "github.com/yuin/gopher-lua"
)

// removedGlobals load code from disk or strings and bypass the sandbox.
var removedGlobals = []string{"dofile", "loadfile", "load", "loadstring"}

// installSandbox removes unsafe globals and restricts require to
// preloaded modules.
func installSandbox(L *lua.LState) {
	for _, name := range removedGlobals {
		L.SetGlobal(name, lua.LNil)
	}

	pkg, ok := L.GetGlobal("package").(*lua.LTable)
	if !ok {
		return
	}
	L.SetField(pkg, "path", lua.LString(""))
	L.SetField(pkg, "cpath", lua.LString(""))

	// loaded holds the opened libraries; preload holds rover modules
	loaded, _ := L.GetField(pkg, "loaded").(*lua.LTable)
	preload, _ := L.GetField(pkg, "preload").(*lua.LTable)

	L.SetGlobal("require", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)

		if loaded != nil {
			if mod := loaded.RawGetString(name); mod != lua.LNil {
				L.Push(mod)
				return 1
			}
		}
		if preload != nil {
			if loader, ok := preload.RawGetString(name).(*lua.LFunction); ok {
				L.Push(loader)
				L.Push(lua.LString(name))
				L.Call(1, 1)
				mod := L.Get(-1)
				if loaded != nil {
					loaded.RawSetString(name, mod)
				}
				return 1
			}
		}

		L.RaiseError("%s: %s", ErrModuleNotAllowed, name)
		return 0
	}))
}
