package main

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"textos/device/video/console"
	"textos/emu"
)

// newScriptState returns a Lua state exposing the machine to scripts:
//
//	type(str)          press and release the keys producing str
//	press(sc)          queue a make code
//	release(sc)        queue the break code of sc
//	print(str)         write str to the console
//	color(fg, bg)      select the console attribute
//	screenshot(path)   save a PNG snapshot of the screen
//	cursor()           return the cursor column and row
//	input()            return the characters collected by the keyboard driver
func newScriptState(m *emu.Machine) *lua.LState {
	L := lua.NewState()

	check := func(L *lua.LState, err error) {
		if err != nil {
			L.RaiseError("%s", err.Error())
		}
	}

	register := func(name string, fn lua.LGFunction) {
		L.SetGlobal(name, L.NewFunction(fn))
	}

	register("type", func(L *lua.LState) int {
		check(L, m.Type(L.CheckString(1)))
		return 0
	})
	register("press", func(L *lua.LState) int {
		check(L, m.Press(uint8(L.CheckInt(1))))
		return 0
	})
	register("release", func(L *lua.LState) int {
		check(L, m.Release(uint8(L.CheckInt(1))))
		return 0
	})
	register("print", func(L *lua.LState) int {
		check(L, m.Print(L.CheckString(1)))
		return 0
	})
	register("color", func(L *lua.LState) int {
		check(L, m.SetColor(console.Attr(L.CheckInt(1)), console.Attr(L.CheckInt(2))))
		return 0
	})
	register("screenshot", func(L *lua.LState) int {
		img, err := m.Snapshot()
		check(L, err)
		check(L, emu.WritePNG(L.CheckString(1), img))
		return 0
	})
	register("cursor", func(L *lua.LState) int {
		col, row := m.Cursor()
		L.Push(lua.LNumber(col))
		L.Push(lua.LNumber(row))
		return 2
	})
	register("input", func(L *lua.LState) int {
		L.Push(lua.LString(m.Input()))
		return 1
	})

	return L
}

func runScript(m *emu.Machine, path string) error {
	L := newScriptState(m)
	defer L.Close()

	if err := L.DoFile(path); err != nil {
		return fmt.Errorf("script %s: %w", path, err)
	}
	return nil
}
