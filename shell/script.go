package shell

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	lua "github.com/yuin/gopher-lua"
	luajson "layeh.com/gopher-json"
)

func getShell(L *lua.LState) *ShellController {
	shell := L.GetGlobal("yonmoku_shell")
	ud, ok := shell.(*lua.LUserData)
	if !ok {
		panic("luserdata not right type")
	}
	sc, ok := ud.Value.(*ShellController)
	if !ok {
		panic("shellcontroller not right type")
	}
	return sc
}

// luaCommand wraps a shell command so that scripts can call it with a
// single string of arguments. It pushes the command's output, or an
// ERROR: string.
func luaCommand(name string, fn func(*ShellController, *shellcmd) (*Response, error)) lua.LGFunction {
	return func(L *lua.LState) int {
		lv := L.OptString(1, "")
		sc := getShell(L)
		cmd, err := extractFields(strings.TrimSpace(name + " " + lv))
		if err == nil {
			var r *Response
			r, err = fn(sc, cmd)
			if err == nil {
				L.Push(lua.LString(r.message))
				// return number of results pushed to stack.
				return 1
			}
		}
		log.Err(err).Msg("error-executing-" + name)
		L.Push(lua.LString("ERROR: " + err.Error()))
		return 1
	}
}

// Metrics pushes the last search's metrics as a table.
func Metrics(L *lua.LState) int {
	sc := getShell(L)
	if sc.solver == nil {
		L.Push(lua.LNil)
		return 1
	}
	data, err := json.Marshal(sc.solver.Metrics())
	if err != nil {
		L.RaiseError("%v", err)
		return 0
	}
	v, err := luajson.Decode(L, data)
	if err != nil {
		L.RaiseError("%v", err)
		return 0
	}
	L.Push(v)
	return 1
}

func (sc *ShellController) script(cmd *shellcmd) (*Response, error) {
	if cmd.args == nil {
		return nil, errors.New("need arguments for script")
	}

	filepath := cmd.args[0]

	L := lua.NewState()
	defer L.Close()
	luajson.Preload(L)

	lsc := L.NewUserData()
	lsc.Value = sc

	L.SetGlobal("yonmoku_shell", lsc)
	L.SetGlobal("yonmoku_new", L.NewFunction(luaCommand("new", (*ShellController).newGame)))
	L.SetGlobal("yonmoku_play", L.NewFunction(luaCommand("play", (*ShellController).play)))
	L.SetGlobal("yonmoku_undo", L.NewFunction(luaCommand("undo", (*ShellController).undo)))
	L.SetGlobal("yonmoku_show", L.NewFunction(luaCommand("show", (*ShellController).show)))
	L.SetGlobal("yonmoku_solve", L.NewFunction(luaCommand("solve", (*ShellController).solve)))
	L.SetGlobal("yonmoku_recommend", L.NewFunction(luaCommand("recommend", (*ShellController).recommend)))
	L.SetGlobal("yonmoku_set", L.NewFunction(luaCommand("set", (*ShellController).set)))
	L.SetGlobal("yonmoku_metrics", L.NewFunction(Metrics))

	if err := L.DoFile(filepath); err != nil {
		log.Err(err).Msg("there was a error")
		return nil, err
	}
	return msg("script finished"), nil
}
