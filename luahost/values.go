package luahost

import (
	"fmt"
	"sort"

	"github.com/Shopify/go-lua"

	"github.com/wippyai/ctorbridge/behavior"
	"github.com/wippyai/ctorbridge/errors"
)

const objectTypeName = "ctorbridge.object"

func registerObjectType(l *lua.State) {
	lua.NewMetaTable(l, objectTypeName)
	lua.SetFunctions(l, objectMeta, 0)
	l.Pop(1)
}

var objectMeta = []lua.RegistryFunction{
	{Name: "__index", Function: objectIndex},
	{Name: "__newindex", Function: objectNewIndex},
	{Name: "__tostring", Function: objectToString},
}

func objectIndex(l *lua.State) int {
	obj := checkObject(l, 1)
	key := lua.CheckString(l, 2)
	v, ok := obj.Get(key)
	if !ok {
		l.PushNil()
		return 1
	}
	if err := pushValue(l, v); err != nil {
		lua.Errorf(l, "%s", err.Error())
	}
	return 1
}

func objectNewIndex(l *lua.State) int {
	obj := checkObject(l, 1)
	key := lua.CheckString(l, 2)
	v, err := toGo(l, 3)
	if err != nil {
		lua.Errorf(l, "%s", err.Error())
	}
	obj.Set(key, v)
	return 0
}

func objectToString(l *lua.State) int {
	l.PushString(checkObject(l, 1).String())
	return 1
}

func checkObject(l *lua.State, index int) *behavior.Object {
	ud := lua.CheckUserData(l, index, objectTypeName)
	if obj, ok := ud.(*behavior.Object); ok && obj != nil {
		return obj
	}
	lua.ArgumentError(l, index, "object expected")
	return nil
}

func pushObject(l *lua.State, obj *behavior.Object) {
	l.PushUserData(obj)
	lua.SetMetaTableNamed(l, objectTypeName)
}

func pushValue(l *lua.State, v any) error {
	switch v := v.(type) {
	case nil:
		l.PushNil()
	case bool:
		l.PushBoolean(v)
	case string:
		l.PushString(v)
	case int:
		l.PushNumber(float64(v))
	case int32:
		l.PushNumber(float64(v))
	case int64:
		l.PushNumber(float64(v))
	case uint32:
		l.PushNumber(float64(v))
	case uint64:
		l.PushNumber(float64(v))
	case float32:
		l.PushNumber(float64(v))
	case float64:
		l.PushNumber(v)
	case *behavior.Object:
		if v == nil {
			l.PushNil()
			return nil
		}
		pushObject(l, v)
	default:
		return errors.TypeMismatch(errors.PhaseHost, nil, fmt.Sprintf("%T", v), "nil, bool, number, string or object")
	}
	return nil
}

func toGo(l *lua.State, index int) (any, error) {
	switch l.TypeOf(index) {
	case lua.TypeNil, lua.TypeNone:
		return nil, nil
	case lua.TypeBoolean:
		return l.ToBoolean(index), nil
	case lua.TypeNumber:
		n, _ := l.ToNumber(index)
		return n, nil
	case lua.TypeString:
		s, _ := l.ToString(index)
		return s, nil
	case lua.TypeUserData:
		if obj, ok := l.ToUserData(index).(*behavior.Object); ok {
			return obj, nil
		}
	case lua.TypeTable:
		return tableToObject(l, index)
	}
	return nil, errors.TypeMismatch(errors.PhaseHost, nil, lua.TypeNameOf(l, index), "nil, boolean, number, string, table or object")
}

// tableToObject copies the string-keyed entries of a table into a plain
// object, keys sorted.
func tableToObject(l *lua.State, index int) (*behavior.Object, error) {
	index = l.AbsIndex(index)
	values := map[string]any{}
	l.PushNil()
	for l.Next(index) {
		if l.TypeOf(-2) == lua.TypeString {
			key, _ := l.ToString(-2)
			v, err := toGo(l, -1)
			if err != nil {
				l.Pop(2)
				return nil, err
			}
			values[key] = v
		}
		l.Pop(1)
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	obj := behavior.NewObject()
	for _, k := range keys {
		obj.Set(k, values[k])
	}
	return obj, nil
}

func argsFrom(l *lua.State, first int) ([]any, error) {
	top := l.Top()
	if first > top {
		return nil, nil
	}
	args := make([]any, 0, top-first+1)
	for i := first; i <= top; i++ {
		v, err := toGo(l, i)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return args, nil
}
