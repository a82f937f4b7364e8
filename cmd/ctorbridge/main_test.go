package main

import (
	"bytes"
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/ctorbridge/behavior"
	"github.com/wippyai/ctorbridge/registry"
	"github.com/wippyai/ctorbridge/runtime"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func golden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestInspect(t *testing.T) {
	out, err := execute(t, "inspect", "--plain", "testdata/chains.yaml")
	require.NoError(t, err)
	golden(t).Assert(t, "inspect", []byte(out))
}

func TestRun(t *testing.T) {
	out, err := execute(t, "run", "-p", "1", "testdata/chains.yaml")
	var failed errRunsFailed
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, 1, failed.failed)
	assert.Equal(t, 2, failed.total)
	golden(t).Assert(t, "run", []byte(out))
}

func TestRun_Only(t *testing.T) {
	out, err := execute(t, "run", "--only", "circle", "testdata/chains.yaml")
	require.NoError(t, err)
	assert.Equal(t, "PASS circle\n\n1 runs, 1 passed, 0 failed\n", out)

	_, err = execute(t, "run", "--only", "nope", "testdata/chains.yaml")
	assert.ErrorContains(t, err, `no run named "nope"`)
}

func TestRun_MissingManifest(t *testing.T) {
	_, err := execute(t, "run", "testdata/missing.yaml")
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := loadConfig()
		require.NoError(t, err)
		assert.Equal(t, "warn", cfg.LogLevel)
		assert.Equal(t, 4, cfg.Parallel)
		assert.False(t, cfg.LogJSON)
		assert.Empty(t, cfg.OtelEndpoint)
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("CTORBRIDGE_LOG_LEVEL", "debug")
		t.Setenv("CTORBRIDGE_LOG_JSON", "true")
		t.Setenv("CTORBRIDGE_PARALLEL", "8")
		cfg, err := loadConfig()
		require.NoError(t, err)
		assert.Equal(t, Config{LogLevel: "debug", LogJSON: true, Parallel: 8}, cfg)

		logger, err := newLogger(cfg)
		require.NoError(t, err)
		assert.True(t, logger.Core().Enabled(-1))
	})

	t.Run("invalid parallel", func(t *testing.T) {
		t.Setenv("CTORBRIDGE_PARALLEL", "0")
		_, err := loadConfig()
		assert.Error(t, err)
	})

	t.Run("unparsable parallel", func(t *testing.T) {
		t.Setenv("CTORBRIDGE_PARALLEL", "many")
		_, err := loadConfig()
		assert.Error(t, err)
	})

	t.Run("invalid level", func(t *testing.T) {
		_, err := newLogger(Config{LogLevel: "loud", Parallel: 1})
		assert.Error(t, err)
	})
}

func TestSetupTracing_Disabled(t *testing.T) {
	tp, shutdown, err := setupTracing(context.Background(), "")
	require.NoError(t, err)
	require.NotNil(t, tp)
	assert.NoError(t, shutdown(context.Background()))
}

func TestParseArgs(t *testing.T) {
	args, err := parseArgs(`1, two, {b: 2, a: 1}`)
	require.NoError(t, err)
	require.Len(t, args, 3)
	assert.Equal(t, 1, args[0])
	assert.Equal(t, "two", args[1])
	obj, ok := args[2].(*behavior.Object)
	require.True(t, ok)
	assert.Equal(t, "{a: 1, b: 2}", obj.String())

	args, err = parseArgs("")
	require.NoError(t, err)
	assert.Empty(t, args)

	_, err = parseArgs("{unclosed")
	assert.Error(t, err)
}

func exploreRuntime(t *testing.T) *runtime.Runtime {
	t.Helper()
	rt := runtime.New()
	t.Cleanup(func() { rt.Close(context.Background()) })

	_, err := rt.Declare(registry.Declaration{
		Name: "Point",
		Init: func(c behavior.Call) error {
			c.This().Set("x", c.Arg(0))
			return nil
		},
	})
	require.NoError(t, err)
	_, err = rt.Declare(registry.Declaration{
		Name: "Point3",
		Base: "Point",
		Init: func(c behavior.Call) error {
			if err := c.Super(c.Arg(0)); err != nil {
				return err
			}
			c.This().Set("z", c.Arg(1))
			return nil
		},
	})
	require.NoError(t, err)
	return rt
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m *exploreModel, msg tea.Msg) tea.Cmd {
	t.Helper()
	next, cmd := m.Update(msg)
	require.Same(t, m, next)
	return cmd
}

func TestExplore_BridgeFreshObject(t *testing.T) {
	m := newExploreModel(context.Background(), "inline", exploreRuntime(t))
	assert.Nil(t, m.Init())

	send(t, m, keyPress("down"))
	assert.Equal(t, 1, m.selected)

	send(t, m, keyPress("b"))
	require.Equal(t, stateInputArgs, m.state)
	assert.Equal(t, opBridge, m.op)

	send(t, m, keyPress("1, 2"))
	assert.Equal(t, "1, 2", m.input.Value())

	cmd := send(t, m, keyPress("enter"))
	require.NotNil(t, cmd)
	send(t, m, cmd())

	require.Equal(t, stateShowResult, m.state)
	require.NoError(t, m.err)
	assert.Equal(t, "{x: 1, z: 2}\nlast bridged: Point", m.result)
	assert.Contains(t, m.View(), "construct Point3")

	send(t, m, keyPress("esc"))
	assert.Equal(t, stateSelect, m.state)
	assert.Empty(t, m.result)
}

func TestExplore_New(t *testing.T) {
	m := newExploreModel(context.Background(), "inline", exploreRuntime(t))

	send(t, m, keyPress("enter"))
	require.Equal(t, stateInputArgs, m.state)
	assert.Equal(t, opNew, m.op)

	send(t, m, keyPress("7"))
	cmd := send(t, m, keyPress("enter"))
	send(t, m, cmd())

	require.NoError(t, m.err)
	assert.Equal(t, "{x: 7}\nchain: Point", m.result)
}

func TestExplore_Errors(t *testing.T) {
	m := newExploreModel(context.Background(), "inline", exploreRuntime(t))

	send(t, m, keyPress("n"))
	send(t, m, keyPress("{bad"))
	cmd := send(t, m, keyPress("enter"))
	send(t, m, cmd())

	assert.Error(t, m.err)
	assert.Contains(t, m.View(), "Error:")
}

func TestExplore_Quit(t *testing.T) {
	m := newExploreModel(context.Background(), "inline", exploreRuntime(t))

	cmd := send(t, m, keyPress("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())

	send(t, m, keyPress("b"))
	send(t, m, keyPress("q"))
	assert.Equal(t, stateInputArgs, m.state, "q is text while typing arguments")
	assert.Equal(t, "q", m.input.Value())
}
