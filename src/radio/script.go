package radio

import (
	"context"
	"fmt"

	"github.com/jinjor/desktop-mixer/src/mixer"
	lua "github.com/yuin/gopher-lua"
)

// ----- Script ----- //

// RunScript runs a Lua file with the model.* functions. Mix indices in
// scripts count from 0 within a channel.
func (r *Radio) RunScript(ctx context.Context, path string) error {
	L := r.newLuaState(ctx)
	defer L.Close()
	return L.DoFile(path)
}

// RunScriptString is RunScript for source text.
func (r *Radio) RunScriptString(ctx context.Context, source string) error {
	L := r.newLuaState(ctx)
	defer L.Close()
	return L.DoString(source)
}

func (r *Radio) newLuaState(ctx context.Context) *lua.LState {
	L := lua.NewState()
	L.SetContext(ctx)
	model := L.NewTable()
	L.SetFuncs(model, map[string]lua.LGFunction{
		"getMixesCount": r.luaGetMixesCount,
		"getMix":        r.luaGetMix,
		"insertMix":     r.luaInsertMix,
		"deleteMix":     r.luaDeleteMix,
		"deleteMixes":   r.luaDeleteMixes,
	})
	L.SetGlobal("model", model)
	return L
}

func (r *Radio) checkChannel(L *lua.LState, n int) int {
	ch := L.CheckInt(n)
	if ch < 0 || ch >= r.Model.Mixes.Channels() {
		L.ArgError(n, fmt.Sprintf("channel out of range: %d", ch))
	}
	return ch
}

func (r *Radio) luaGetMixesCount(L *lua.LState) int {
	ch := r.checkChannel(L, 1)
	start, end := r.Model.Mixes.ChannelRange(ch)
	L.Push(lua.LNumber(end - start))
	return 1
}

func (r *Radio) luaGetMix(L *lua.LState) int {
	ch := r.checkChannel(L, 1)
	idx := L.CheckInt(2)
	start, end := r.Model.Mixes.ChannelRange(ch)
	if idx < 0 || start+idx >= end {
		L.Push(lua.LNil)
		return 1
	}
	m, _ := r.Model.Mixes.Mix(start + idx)
	L.Push(mixToTable(L, &m))
	return 1
}

func (r *Radio) luaInsertMix(L *lua.LState) int {
	ch := r.checkChannel(L, 1)
	idx := L.CheckInt(2)
	tbl := L.OptTable(3, L.NewTable())
	start, end := r.Model.Mixes.ChannelRange(ch)
	if idx < 0 || start+idx > end {
		L.ArgError(2, fmt.Sprintf("mix index out of range: %d", idx))
	}
	m, err := mixFromTable(tbl, ch)
	if err != nil {
		L.ArgError(3, err.Error())
	}
	if err := r.Model.Mixes.InsertMix(start+idx, m); err != nil {
		L.RaiseError("%v", err)
	}
	return 0
}

func (r *Radio) luaDeleteMix(L *lua.LState) int {
	ch := r.checkChannel(L, 1)
	idx := L.CheckInt(2)
	start, end := r.Model.Mixes.ChannelRange(ch)
	if idx < 0 || start+idx >= end {
		return 0
	}
	if err := r.Model.Mixes.Remove(start + idx); err != nil {
		L.RaiseError("%v", err)
	}
	return 0
}

func (r *Radio) luaDeleteMixes(L *lua.LState) int {
	r.Model.Mixes.Clear()
	return 0
}

func mixToTable(L *lua.LState, m *mixer.MixData) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("name", lua.LString(m.Name))
	t.RawSetString("source", lua.LNumber(m.SrcRaw))
	t.RawSetString("sourceName", lua.LString(m.SrcRaw.String()))
	t.RawSetString("weight", lua.LNumber(m.Weight))
	t.RawSetString("offset", lua.LNumber(m.Offset))
	t.RawSetString("switch", lua.LNumber(m.Swtch))
	t.RawSetString("multiplex", lua.LString(m.Mltpx.String()))
	t.RawSetString("flightModes", lua.LNumber(m.FlightModes))
	t.RawSetString("carryTrim", lua.LBool(m.CarryTrim))
	t.RawSetString("curveType", lua.LString(m.Curve.Type.String()))
	t.RawSetString("curveValue", lua.LNumber(m.Curve.Value))
	t.RawSetString("delayUp", lua.LNumber(m.DelayUp))
	t.RawSetString("delayDown", lua.LNumber(m.DelayDown))
	t.RawSetString("speedUp", lua.LNumber(m.SpeedUp))
	t.RawSetString("speedDown", lua.LNumber(m.SpeedDown))
	return t
}

// mixFromTable reads the fields written by mixToTable; missing fields keep
// the defaults of a new mix. Fields in text form go through the same parser
// as the set command.
func mixFromTable(t *lua.LTable, ch int) (mixer.MixData, error) {
	m := mixer.MixData{DestCh: ch, Weight: 100}
	var err error
	t.ForEach(func(key, value lua.LValue) {
		if err != nil {
			return
		}
		k, ok := key.(lua.LString)
		if !ok {
			return
		}
		switch string(k) {
		case "source":
			if n, ok := value.(lua.LNumber); ok {
				m.SrcRaw = mixer.Source(n)
			} else {
				m.SrcRaw, err = mixer.ParseSource(value.String())
			}
		case "weight":
			m.Weight = int(lua.LVAsNumber(value))
		case "offset":
			m.Offset = int(lua.LVAsNumber(value))
		case "flightModes":
			m.FlightModes = uint16(lua.LVAsNumber(value))
		case "carryTrim":
			m.CarryTrim = lua.LVAsBool(value)
		case "name", "switch", "multiplex", "delayUp", "delayDown", "speedUp", "speedDown":
			err = m.SetField(luaFieldKeys[string(k)], value.String())
		}
	})
	if err != nil {
		return m, err
	}
	if m.SrcRaw < mixer.SourceNone || m.SrcRaw > mixer.SourceLast {
		return m, fmt.Errorf("source out of range: %d", m.SrcRaw)
	}
	return m, nil
}

var luaFieldKeys = map[string]string{
	"name":      "name",
	"switch":    "switch",
	"multiplex": "multiplex",
	"delayUp":   "delay_up",
	"delayDown": "delay_down",
	"speedUp":   "speed_up",
	"speedDown": "speed_down",
}
