package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules registers all engine.* Lua tables into L:
//
//	engine.log.debug/info/warn(msg)
//	engine.dice.float() and engine.dice.chance(p)
//	engine.combatant.get(id) returning a table or nil
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()
	L.SetField(engine, "log", m.logModule(L))
	L.SetField(engine, "dice", m.diceModule(L))
	L.SetField(engine, "combatant", m.combatantModule(L))
	L.SetGlobal("engine", engine)
}

func (m *Manager) logModule(L *lua.LState) *lua.LTable {
	level := func(log func(string, ...zap.Field)) lua.LGFunction {
		return func(L *lua.LState) int {
			log(L.CheckString(1), zap.String("source", "lua"))
			return 0
		}
	}
	return L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"debug": level(m.logger.Debug),
		"info":  level(m.logger.Info),
		"warn":  level(m.logger.Warn),
	})
}

func (m *Manager) diceModule(L *lua.LState) *lua.LTable {
	return L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"float": func(L *lua.LState) int {
			L.Push(lua.LNumber(m.roller.Float()))
			return 1
		},
		"chance": func(L *lua.LState) int {
			p := float64(L.CheckNumber(1))
			L.Push(lua.LBool(m.roller.Chance("lua", p)))
			return 1
		},
	})
}

func (m *Manager) combatantModule(L *lua.LState) *lua.LTable {
	return L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"get": func(L *lua.LState) int {
			id := L.CheckString(1)
			if m.GetCombatant == nil {
				L.Push(lua.LNil)
				return 1
			}
			info := m.GetCombatant(id)
			if info == nil {
				L.Push(lua.LNil)
				return 1
			}
			L.Push(CombatantTable(L, info))
			return 1
		},
	})
}

// CombatantTable converts info into a Lua table.
func CombatantTable(L *lua.LState, info *CombatantInfo) *lua.LTable {
	t := L.NewTable()
	L.SetField(t, "id", lua.LString(info.ID))
	L.SetField(t, "name", lua.LString(info.Name))
	L.SetField(t, "team", lua.LString(info.Team))
	L.SetField(t, "health", lua.LNumber(info.Health))
	L.SetField(t, "max_health", lua.LNumber(info.MaxHealth))
	L.SetField(t, "stamina", lua.LNumber(info.Stamina))
	L.SetField(t, "staggered", lua.LBool(info.Staggered))
	L.SetField(t, "poised", lua.LBool(info.Poised))
	L.SetField(t, "distance", lua.LNumber(info.Distance))
	return t
}
