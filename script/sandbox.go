package script

import (
	"sort"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/Shopify/go-lua"
)

// setupSandbox opens the safe standard libraries and removes everything
// that touches the host.
func setupSandbox(l *lua.State) {
	lua.Require(l, "_G", lua.BaseOpen, true)
	l.Pop(1)
	lua.Require(l, "string", lua.StringOpen, true)
	l.Pop(1)
	lua.Require(l, "table", lua.TableOpen, true)
	l.Pop(1)
	lua.Require(l, "math", lua.MathOpen, true)
	l.Pop(1)

	lua.Require(l, "os", lua.OSOpen, true)
	l.Pop(1)
	l.Global("os")
	for _, name := range []string{"execute", "exit", "getenv", "remove", "rename", "setlocale", "tmpname"} {
		l.PushNil()
		l.SetField(-2, name)
	}
	l.Pop(1)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "print"} {
		l.PushNil()
		l.SetGlobal(name)
	}

	l.Register("json_encode", jsonEncode)
	l.Register("json_decode", jsonDecode)
}

// pushValue converts a Go value to Lua.
func pushValue(l *lua.State, v any) {
	switch val := v.(type) {
	case nil:
		l.PushNil()
	case bool:
		l.PushBoolean(val)
	case int:
		l.PushInteger(val)
	case int64:
		l.PushInteger(int(val))
	case float64:
		l.PushNumber(val)
	case string:
		l.PushString(val)
	case []string:
		l.NewTable()
		for i, item := range val {
			l.PushInteger(i + 1)
			l.PushString(item)
			l.SetTable(-3)
		}
	case []any:
		l.NewTable()
		for i, item := range val {
			l.PushInteger(i + 1)
			pushValue(l, item)
			l.SetTable(-3)
		}
	case map[string]string:
		l.NewTable()
		for k, item := range val {
			l.PushString(item)
			l.SetField(-2, k)
		}
	case map[string]any:
		l.NewTable()
		for k, item := range val {
			pushValue(l, item)
			l.SetField(-2, k)
		}
	default:
		if data, err := json.Marshal(val); err == nil {
			l.PushString(string(data))
		} else {
			l.PushNil()
		}
	}
}

// pullValue converts the Lua value at idx to Go. Tables with only positive
// integer keys become slices, other tables become maps.
func pullValue(l *lua.State, idx int) any {
	switch l.TypeOf(idx) {
	case lua.TypeBoolean:
		return l.ToBoolean(idx)
	case lua.TypeNumber:
		n, _ := l.ToNumber(idx)
		if n == float64(int64(n)) {
			return int64(n)
		}
		return n
	case lua.TypeString:
		s, _ := l.ToString(idx)
		return s
	case lua.TypeTable:
		return pullTable(l, idx)
	default:
		return nil
	}
}

func pullTable(l *lua.State, idx int) any {
	l.PushValue(idx)
	defer l.Pop(1)

	type entry struct {
		key   any
		value any
	}
	var entries []entry
	isArray := true
	l.PushNil()
	for l.Next(-2) {
		var key any
		if l.TypeOf(-2) == lua.TypeNumber {
			n, _ := l.ToNumber(-2)
			if n < 1 || n != float64(int(n)) {
				isArray = false
			}
			key = int(n)
		} else {
			isArray = false
			// copy the key so ToString does not convert the iteration key
			l.PushValue(-2)
			key, _ = l.ToString(-1)
			l.Pop(1)
		}
		entries = append(entries, entry{key: key, value: pullValue(l, -1)})
		l.Pop(1)
	}

	if isArray && len(entries) > 0 {
		sort.Slice(entries, func(i, j int) bool { return entries[i].key.(int) < entries[j].key.(int) })
		arr := make([]any, entries[len(entries)-1].key.(int))
		for _, e := range entries {
			arr[e.key.(int)-1] = e.value
		}
		return arr
	}

	obj := make(map[string]any, len(entries))
	for _, e := range entries {
		switch k := e.key.(type) {
		case string:
			obj[k] = e.value
		case int:
			obj[strconv.Itoa(k)] = e.value
		}
	}
	return obj
}

func jsonEncode(l *lua.State) int {
	data, err := json.Marshal(pullValue(l, 1))
	if err != nil {
		l.PushNil()
		l.PushString(err.Error())
		return 2
	}
	l.PushString(string(data))
	return 1
}

func jsonDecode(l *lua.State) int {
	str := lua.CheckString(l, 1)
	var value any
	if err := json.Unmarshal([]byte(str), &value); err != nil {
		l.PushNil()
		l.PushString(err.Error())
		return 2
	}
	pushValue(l, value)
	return 1
}
