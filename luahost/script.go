package luahost

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Shopify/go-lua"

	"github.com/wippyai/ctorbridge/behavior"
	"github.com/wippyai/ctorbridge/errors"
)

// Script is Lua source whose global functions back initializers and methods.
// A Script is immutable and safe for concurrent use.
type Script struct {
	name   string
	source string
}

// New parses source and returns a Script. The name labels error positions.
func New(name, source string) (*Script, error) {
	l := lua.NewState()
	if err := lua.LoadBuffer(l, source, "@"+name, ""); err != nil {
		return nil, errors.ParseFailed("lua script "+name, err)
	}
	return &Script{name: name, source: source}, nil
}

// Name returns the script's label.
func (s *Script) Name() string { return s.name }

// Check runs the script once and verifies that every name is a global
// function.
func (s *Script) Check(names ...string) error {
	l, err := s.load(nil)
	if err != nil {
		return err
	}
	for _, name := range names {
		l.Global(name)
		ok := l.IsFunction(-1)
		l.Pop(1)
		if !ok {
			return errors.NotFound(errors.PhaseLoad, "lua function", name)
		}
	}
	return nil
}

// Initializer adapts the global function fn into an initializer.
// The function's return values are ignored.
func (s *Script) Initializer(fn string) behavior.Initializer {
	return func(c behavior.Call) error {
		_, err := s.exec(c, c.This(), fn, c.Args(), 0)
		return err
	}
}

// Method adapts the global function fn into a method. Its first return value
// becomes the method result. The bridge table is limited to bridge.fresh
// inside methods.
func (s *Script) Method(fn string) behavior.Method {
	return func(this *behavior.Object, args ...any) (any, error) {
		return s.exec(nil, this, fn, args, 1)
	}
}

// load creates an interpreter with the object type and bridge table
// registered and the script's top level executed.
func (s *Script) load(ex *execution) (*lua.State, error) {
	l := lua.NewState()
	lua.OpenLibraries(l)
	registerObjectType(l)
	if ex != nil {
		ex.register(l)
	}

	if err := lua.LoadBuffer(l, s.source, "@"+s.name, ""); err != nil {
		return nil, errors.ParseFailed("lua script "+s.name, err)
	}
	if err := l.ProtectedCall(0, 0, 0); err != nil {
		return nil, errors.Load("run lua script "+s.name, err)
	}
	return l, nil
}

func (s *Script) exec(c behavior.Call, this *behavior.Object, fn string, args []any, results int) (any, error) {
	ex := &execution{call: c}
	l, err := s.load(ex)
	if err != nil {
		return nil, err
	}

	l.Global(fn)
	if !l.IsFunction(-1) {
		return nil, errors.NotFound(errors.PhaseHost, "lua function", fn)
	}

	if this == nil {
		l.PushNil()
	} else {
		pushObject(l, this)
	}
	for i, a := range args {
		if err := pushValue(l, a); err != nil {
			return nil, errors.New(errors.PhaseHost, errors.KindTypeMismatch).
				Path(fn, fmt.Sprintf("arg %d", i)).
				Cause(err).
				Build()
		}
	}

	if err := l.ProtectedCall(len(args)+1, results, 0); err != nil {
		if raised := ex.escaped(err.Error()); raised != nil {
			return nil, raised
		}
		return nil, errors.Wrap(errors.PhaseHost, errors.KindInitializer, err, "lua "+fn)
	}

	if results == 0 {
		return nil, nil
	}
	return toGo(l, -1)
}

// raiseTag marks a structured error raised into Lua. The number after it
// indexes execution.raised.
const raiseTag = "[ctorbridge#"

// execution is the Go side of one Lua call. raised keeps every structured
// error raised into Lua so the one that escapes the call can be returned as is.
type execution struct {
	call   behavior.Call
	raised []error
}

func (ex *execution) register(l *lua.State) {
	l.NewTable()
	lua.SetFunctions(l, []lua.RegistryFunction{
		{Name: "super", Function: ex.super},
		{Name: "apply", Function: ex.apply},
		{Name: "construct", Function: ex.construct},
		{Name: "new", Function: ex.newObject},
		{Name: "dispatch", Function: ex.dispatch},
		{Name: "fresh", Function: ex.fresh},
		{Name: "target", Function: ex.target},
		{Name: "current", Function: ex.current},
		{Name: "bridged", Function: ex.bridged},
	}, 0)
	l.SetGlobal("bridge")
}

func (ex *execution) fail(l *lua.State, err error) int {
	ex.raised = append(ex.raised, err)
	lua.Errorf(l, "%s %s%d]", err.Error(), raiseTag, len(ex.raised)-1)
	return 0
}

// escaped returns the structured error whose tag is last in msg, or nil when
// the message carries no tag. Errors swallowed by pcall never match a later,
// unrelated failure.
func (ex *execution) escaped(msg string) error {
	i := strings.LastIndex(msg, raiseTag)
	if i < 0 {
		return nil
	}
	rest := msg[i+len(raiseTag):]
	end := strings.IndexByte(rest, ']')
	if end < 0 {
		return nil
	}
	n, err := strconv.Atoi(rest[:end])
	if err != nil || n < 0 || n >= len(ex.raised) {
		return nil
	}
	return ex.raised[n]
}

func (ex *execution) requireCall(l *lua.State, what string) behavior.Call {
	if ex.call == nil {
		ex.fail(l, errors.Unsupported(errors.PhaseHost, "bridge."+what+" outside an initializer"))
	}
	return ex.call
}

func (ex *execution) super(l *lua.State) int {
	c := ex.requireCall(l, "super")
	args, err := argsFrom(l, 1)
	if err != nil {
		return ex.fail(l, err)
	}
	if err := c.Super(args...); err != nil {
		return ex.fail(l, err)
	}
	return 0
}

func (ex *execution) apply(l *lua.State) int {
	c := ex.requireCall(l, "apply")
	name := lua.CheckString(l, 1)
	args, err := argsFrom(l, 2)
	if err != nil {
		return ex.fail(l, err)
	}
	if err := c.Apply(name, args...); err != nil {
		return ex.fail(l, err)
	}
	return 0
}

func (ex *execution) construct(l *lua.State) int {
	c := ex.requireCall(l, "construct")
	name := lua.CheckString(l, 1)
	this, err := receiver(l, name, 2)
	if err != nil {
		return ex.fail(l, err)
	}
	args, err := argsFrom(l, 3)
	if err != nil {
		return ex.fail(l, err)
	}
	if _, err := c.Construct(name, this, args...); err != nil {
		return ex.fail(l, err)
	}
	// construct hands back the receiver itself, not a second userdata.
	l.PushValue(2)
	return 1
}

// receiver reads the this argument of bridge.construct. Tables are rejected
// rather than copied, since the initializer would mutate the copy. Values
// that are neither tables nor objects go through so the invoker reports them.
func receiver(l *lua.State, name string, index int) (any, error) {
	switch l.TypeOf(index) {
	case lua.TypeTable:
		return nil, notAnObject(l, name, index)
	case lua.TypeUserData:
		if obj, ok := l.ToUserData(index).(*behavior.Object); ok {
			return obj, nil
		}
		return nil, notAnObject(l, name, index)
	}
	return toGo(l, index)
}

func notAnObject(l *lua.State, name string, index int) error {
	err := errors.NotAnObject(name, nil)
	err.Detail = "this must be an object, got lua " + lua.TypeNameOf(l, index)
	return err
}

func (ex *execution) newObject(l *lua.State) int {
	c := ex.requireCall(l, "new")
	name := lua.CheckString(l, 1)
	args, err := argsFrom(l, 2)
	if err != nil {
		return ex.fail(l, err)
	}
	obj, err := c.New(name, args...)
	if err != nil {
		return ex.fail(l, err)
	}
	pushObject(l, obj)
	return 1
}

func (ex *execution) dispatch(l *lua.State) int {
	c := ex.requireCall(l, "dispatch")
	method := lua.CheckString(l, 1)
	args, err := argsFrom(l, 2)
	if err != nil {
		return ex.fail(l, err)
	}
	v, err := c.Dispatch(method, args...)
	if err != nil {
		return ex.fail(l, err)
	}
	if err := pushValue(l, v); err != nil {
		return ex.fail(l, err)
	}
	return 1
}

func (ex *execution) fresh(l *lua.State) int {
	pushObject(l, behavior.NewObject())
	return 1
}

func (ex *execution) target(l *lua.State) int {
	l.PushString(ex.requireCall(l, "target").Target().Name())
	return 1
}

func (ex *execution) current(l *lua.State) int {
	l.PushString(ex.requireCall(l, "current").Current().Name())
	return 1
}

func (ex *execution) bridged(l *lua.State) int {
	l.PushBoolean(ex.requireCall(l, "bridged").Bridged())
	return 1
}
