package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/ctorbridge/behavior"
	"github.com/wippyai/ctorbridge/errors"
)

func TestLoad_YAML(t *testing.T) {
	m, err := Load("testdata/shapes.yaml")
	require.NoError(t, err)

	require.Len(t, m.Constructibles, 3)
	circle := m.Constructibles[1]
	assert.Equal(t, "Circle", circle.Name)
	assert.Equal(t, "Shape", circle.Base)
	assert.Equal(t, "Circle", circle.Init)
	assert.Equal(t, map[string]string{"kind": "circleKind"}, circle.Methods)
	assert.Nil(t, circle.Bridgeable)

	style, err := m.Constructibles[2].StyleValue()
	require.NoError(t, err)
	assert.Equal(t, behavior.Modern, style)

	require.Len(t, m.Runs, 4)
	assert.Equal(t, OpConstruct, m.Runs[0].Op)
	assert.True(t, m.Runs[0].Fresh)
	assert.Equal(t, []any{"c", 2}, m.Runs[0].Args)
	assert.Equal(t, 5, m.Runs[2].This)
	assert.Equal(t, "not_an_object", m.Runs[2].Error)

	assert.Equal(t, []string{"Shape", "shapeKind", "Circle", "circleKind"}, m.LuaFunctions())
}

func TestLoad_CUE(t *testing.T) {
	m, err := Load("testdata/shapes.cue")
	require.NoError(t, err)

	require.Len(t, m.Constructibles, 2)
	point := m.Constructibles[0]
	require.NotNil(t, point.Bridgeable)
	assert.True(t, *point.Bridgeable)
	assert.Equal(t, "modern", point.Style)
	assert.Contains(t, m.Lua, "function Point")

	wasm := m.Constructibles[1].Wasm
	require.NotNil(t, wasm)
	assert.Equal(t, "point3.wasm", wasm.File)
	assert.Equal(t, "init", wasm.ExportName())
	assert.Equal(t, []string{"x", "y", "z"}, wasm.Fields)

	require.Len(t, m.Runs, 1)
	assert.Len(t, m.Runs[0].Args, 2)
	assert.Len(t, m.Runs[0].Expect, 2)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		phase errors.Phase
		kind  errors.Kind
	}{
		{"unknown yaml field", "testdata/unknown_field.yaml", errors.PhaseParse, errors.KindInvalidData},
		{"schema violation", "testdata/bad_op.cue", errors.PhaseParse, errors.KindInvalidData},
		{"missing file", "testdata/nope.yaml", errors.PhaseLoad, errors.KindInvalidData},
		{"unknown extension", "testdata/shapes.toml", errors.PhaseLoad, errors.KindUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path)
			require.Error(t, err)
			var e *errors.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, tt.phase, e.Phase)
			assert.Equal(t, tt.kind, e.Kind)
		})
	}
}

func TestParse_SchemaRejectsBadNames(t *testing.T) {
	_, err := Parse([]byte("constructibles:\n  - name: \"has space\"\n"), FormatYAML, "inline.yaml")
	assert.Equal(t, errors.KindInvalidData, errors.KindOf(err))
}

func TestParse_CUEClosed(t *testing.T) {
	src := `constructibles: [{name: "A", color: "red"}]`
	_, err := Parse([]byte(src), FormatCUE, "inline.cue")
	assert.Equal(t, errors.KindInvalidData, errors.KindOf(err))
}

func TestValidate(t *testing.T) {
	yes := true
	tests := []struct {
		name string
		m    Manifest
		ok   bool
	}{
		{"empty", Manifest{}, true},
		{"duplicate constructible", Manifest{Constructibles: []Constructible{{Name: "A"}, {Name: "A"}}}, false},
		{"bad style", Manifest{Constructibles: []Constructible{{Name: "A", Style: "ancient"}}}, false},
		{"init and wasm", Manifest{Lua: "x", Constructibles: []Constructible{{Name: "A", Init: "A", Wasm: &Wasm{File: "a.wasm"}}}}, false},
		{"init without lua", Manifest{Constructibles: []Constructible{{Name: "A", Init: "A"}}}, false},
		{"wasm without file", Manifest{Constructibles: []Constructible{{Name: "A", Wasm: &Wasm{}}}}, false},
		{"bridgeable override", Manifest{Constructibles: []Constructible{{Name: "A", Style: "modern", Bridgeable: &yes}}}, true},
		{"unknown op", Manifest{Runs: []Run{{Name: "r", Op: "drop", Target: "A"}}}, false},
		{"duplicate run", Manifest{Runs: []Run{{Name: "r", Op: OpNew, Target: "A"}, {Name: "r", Op: OpNew, Target: "A"}}}, false},
		{"new with receiver", Manifest{Runs: []Run{{Name: "r", Op: OpNew, Target: "A", Fresh: true}}}, false},
		{"fresh and this", Manifest{Runs: []Run{{Name: "r", Op: OpConstruct, Target: "A", Fresh: true, This: 1}}}, false},
		{"expect and error", Manifest{Runs: []Run{{Name: "r", Op: OpConstruct, Target: "A", Error: "x", Expect: map[string]any{"a": 1}}}}, false},
		{"call with receiver", Manifest{Runs: []Run{{Name: "r", Op: OpCall, Target: "A", This: map[string]any{}}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.m.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, errors.KindInvalidData, errors.KindOf(err))
		})
	}
}

func TestFormatFromPath(t *testing.T) {
	for path, want := range map[string]Format{
		"a.yaml": FormatYAML,
		"a.YML":  FormatYAML,
		"a.json": FormatYAML,
		"a.cue":  FormatCUE,
	} {
		got, ok := FormatFromPath(path)
		assert.True(t, ok, path)
		assert.Equal(t, want, got, path)
	}
	_, ok := FormatFromPath("a.txt")
	assert.False(t, ok)
}
