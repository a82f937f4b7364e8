package runtime

import (
	"context"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/wippyai/ctorbridge/behavior"
	"github.com/wippyai/ctorbridge/errors"
	"github.com/wippyai/ctorbridge/luahost"
	"github.com/wippyai/ctorbridge/manifest"
	"github.com/wippyai/ctorbridge/registry"
)

// LoadManifest declares every constructible of m in order. Wasm files are
// resolved relative to dir.
//
// Declarations rejected by chain validation are kept and loading continues;
// any other failure stops loading and is returned.
func (r *Runtime) LoadManifest(ctx context.Context, m *manifest.Manifest, dir string) ([]*Constructible, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	var script *luahost.Script
	if m.Lua != "" {
		s, err := luahost.New("manifest.lua", m.Lua)
		if err != nil {
			return nil, err
		}
		if err := s.Check(m.LuaFunctions()...); err != nil {
			return nil, err
		}
		script = s
	}

	handles := make([]*Constructible, 0, len(m.Constructibles))
	for _, c := range m.Constructibles {
		d, err := r.declaration(ctx, c, script, dir)
		if err != nil {
			return handles, err
		}

		h, err := r.Declare(d)
		if h == nil {
			return handles, err
		}
		if err != nil {
			Logger().Warn("manifest constructible rejected",
				zap.String("name", c.Name),
				zap.Error(err))
		}
		handles = append(handles, h)
	}

	Logger().Debug("manifest loaded",
		zap.Int("constructibles", len(handles)),
		zap.Int("runs", len(m.Runs)))
	return handles, nil
}

func (r *Runtime) declaration(ctx context.Context, c manifest.Constructible, script *luahost.Script, dir string) (registry.Declaration, error) {
	style, err := c.StyleValue()
	if err != nil {
		return registry.Declaration{}, err
	}

	d := registry.Declaration{
		Name:       c.Name,
		Base:       c.Base,
		Style:      style,
		Bridgeable: c.Bridgeable,
	}

	switch {
	case c.Init != "":
		d.Init = script.Initializer(c.Init)
	case c.Wasm != nil:
		init, err := r.wasmInitializer(ctx, c.Wasm, dir)
		if err != nil {
			return registry.Declaration{}, errors.New(errors.PhaseLoad, errors.KindInvalidData).
				Constructible(c.Name).
				Detail("wasm initializer").
				Cause(err).
				Build()
		}
		d.Init = init
	}

	if len(c.Methods) > 0 {
		d.Methods = make(map[string]behavior.Method, len(c.Methods))
		for name, fn := range c.Methods {
			d.Methods[name] = script.Method(fn)
		}
	}
	return d, nil
}

func (r *Runtime) wasmInitializer(ctx context.Context, w *manifest.Wasm, dir string) (behavior.Initializer, error) {
	path := w.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	wasm, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Load("read "+path, err)
	}

	host, err := r.wasmHost(ctx)
	if err != nil {
		return nil, err
	}
	mod, err := host.Compile(ctx, wasm, w.Fields)
	if err != nil {
		return nil, err
	}
	return mod.Initializer(w.ExportName())
}
