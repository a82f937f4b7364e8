// Package luahost adapts Lua functions into initializers and methods.
//
// A Script holds Lua source defining global functions. Every execution runs in
// a fresh interpreter, so nested and concurrent constructions never share Lua
// state. The function receives self, a userdata view of the object being
// initialized, followed by the construction arguments:
//
//	function Point(self, x, y)
//	  self.x = x
//	  self.y = y
//	end
//
//	function Point3(self, x, y, z)
//	  bridge.super(x, y)
//	  self.z = z
//	end
//
// The global bridge table exposes the construction context:
//
//	bridge.super(...)               initialize the base on self
//	bridge.apply(name, ...)         run a legacy factory on self
//	bridge.construct(name, o, ...)  bridge name into o, returns o
//	bridge.new(name, ...)           allocate and construct
//	bridge.dispatch(method, ...)    call method through the dispatch target
//	bridge.fresh()                  a new plain object
//	bridge.target(), bridge.current(), bridge.bridged()
//
// Lua tables passed where an object is expected become plain objects with the
// table's string keys. Numbers cross the boundary as float64.
package luahost
