package terminal

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harshit-164/clio-agent-editor/internal/engine"
	"github.com/harshit-164/clio-agent-editor/internal/engine/enginetest"
)

func newTestShell() *Shell {
	return NewShell(Config{
		Command: "/bin/sh",
		Size:    engine.TerminalSize{Cols: 80, Rows: 24},
	}, nil)
}

func connected(t *testing.T, s *Shell, inst *enginetest.Instance) *enginetest.Process {
	t.Helper()
	require.NoError(t, s.Connect(context.Background(), inst))
	procs := inst.Processes()
	require.NotEmpty(t, procs)
	return procs[len(procs)-1]
}

func TestShellStates(t *testing.T) {
	s := newTestShell()
	inst := enginetest.NewInstance()

	assert.Equal(t, StateUninitialized, s.State())
	assert.Nil(t, s.View())
	assert.ErrorIs(t, s.Connect(context.Background(), inst), ErrNoView)
	assert.ErrorIs(t, s.Connect(context.Background(), nil), ErrNoInstance)

	a := s.Attach()
	defer a.Close()
	assert.Equal(t, StateTerminalReady, s.State())
	assert.False(t, s.Connected())

	proc := connected(t, s, inst)
	assert.Equal(t, StateShellAttached, s.State())
	assert.True(t, s.Connected())
	assert.Equal(t, "/bin/sh", proc.Command)

	proc.Exit(3)
	require.Eventually(t, func() bool { return s.State() == StateExited }, time.Second, time.Millisecond)
	assert.False(t, s.Connected())
	assert.Contains(t, s.View().Text(), "[Process exited with code 3]")
	assert.ErrorIs(t, s.WriteInput([]byte("ls\r")), ErrNotAttached)
}

func TestShellConcurrentConnectSpawnsOnce(t *testing.T) {
	s := newTestShell()
	inst := enginetest.NewInstance()
	s.Attach()

	var hooks atomic.Int32
	s.OnAttached(func() { hooks.Add(1) })

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Connect(context.Background(), inst))
		}()
	}
	wg.Wait()

	assert.Len(t, inst.Processes(), 1)
	assert.Equal(t, int32(1), hooks.Load())
}

func TestShellSpawnFailure(t *testing.T) {
	s := newTestShell()
	inst := enginetest.NewInstance()
	inst.FailNextSpawn(errors.New("jsh not found"))

	var changes atomic.Int32
	s.OnChange(func() { changes.Add(1) })

	s.Attach()
	err := s.Connect(context.Background(), inst)
	require.Error(t, err)

	assert.False(t, s.Connected())
	assert.Equal(t, StateTerminalReady, s.State())
	assert.Contains(t, s.View().Text(), "Failed to start shell: jsh not found")
	assert.EqualError(t, s.Err(), "jsh not found")
	assert.GreaterOrEqual(t, changes.Load(), int32(2))

	connected(t, s, inst)
	assert.NoError(t, s.Err())
}

func TestShellOutputAndInput(t *testing.T) {
	s := newTestShell()
	inst := enginetest.NewInstance()
	a := s.Attach()
	defer a.Close()

	proc := connected(t, s, inst)

	require.NoError(t, proc.Emit("$ "))
	select {
	case got := <-a.Output():
		assert.Equal(t, "$ ", string(got))
	case <-time.After(time.Second):
		t.Fatal("no output delivered")
	}

	require.NoError(t, a.Input([]byte("ls\r")))
	assert.Equal(t, "ls\r", proc.Written())
}

func TestShellDetachKeepsShellRunning(t *testing.T) {
	s := newTestShell()
	inst := enginetest.NewInstance()
	first := s.Attach()

	proc := connected(t, s, inst)
	require.NoError(t, proc.Emit("hello\r\n"))
	require.Eventually(t, func() bool { return strings.Contains(s.View().Text(), "hello") }, time.Second, time.Millisecond)

	first.Close()
	first.Close()
	assert.Equal(t, StateShellAttached, s.State())
	assert.True(t, s.Connected())
	select {
	case <-proc.Done():
		t.Fatal("detach must not end the shell")
	default:
	}

	second := s.Attach()
	defer second.Close()
	assert.Contains(t, string(<-second.Output()), "hello")

	require.NoError(t, s.Connect(context.Background(), inst))
	assert.Len(t, inst.Processes(), 1)
}

func TestShellResize(t *testing.T) {
	s := newTestShell()
	inst := enginetest.NewInstance()

	require.NoError(t, s.Resize(engine.TerminalSize{Cols: 120, Rows: 40}))
	s.Attach()
	assert.Equal(t, engine.TerminalSize{Cols: 120, Rows: 40}, s.View().Size())

	proc := connected(t, s, inst)
	big := engine.TerminalSize{Cols: 200, Rows: 50}
	require.NoError(t, s.Resize(big))
	require.NoError(t, s.Resize(big))

	assert.Equal(t, []engine.TerminalSize{{Cols: 120, Rows: 40}, big}, proc.Sizes())
	assert.ErrorIs(t, s.Resize(engine.TerminalSize{}), engine.ErrInvalidSize)
}

func TestShellResizeRejectsOversized(t *testing.T) {
	s := newTestShell()
	inst := enginetest.NewInstance()
	s.Attach()
	proc := connected(t, s, inst)

	for _, size := range []engine.TerminalSize{
		{Cols: 65636, Rows: 24},
		{Cols: 100000, Rows: 100000},
		{Cols: 80, Rows: engine.MaxTerminalDimension + 1},
	} {
		assert.ErrorIs(t, s.Resize(size), engine.ErrInvalidSize)
	}

	assert.Equal(t, engine.TerminalSize{Cols: 80, Rows: 24}, s.View().Size())
	assert.Equal(t, []engine.TerminalSize{{Cols: 80, Rows: 24}}, proc.Sizes())
}

func TestShellRespawnAfterExit(t *testing.T) {
	s := newTestShell()
	inst := enginetest.NewInstance()
	s.Attach()

	proc := connected(t, s, inst)
	proc.Exit(0)
	require.Eventually(t, func() bool { return s.State() == StateExited }, time.Second, time.Millisecond)

	connected(t, s, inst)
	assert.Len(t, inst.Processes(), 2)
	assert.Equal(t, StateShellAttached, s.State())
}

func TestStateTextRoundTrip(t *testing.T) {
	for _, st := range []State{StateUninitialized, StateTerminalReady, StateShellAttached, StateExited} {
		text, err := st.MarshalText()
		require.NoError(t, err)

		var got State
		require.NoError(t, got.UnmarshalText(text))
		assert.Equal(t, st, got, string(text))
	}

	var st State
	assert.Error(t, st.UnmarshalText([]byte("suspended")))
}
