package local

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/harshit-164/clio-agent-editor/internal/engine"
)

func bootInstance(t *testing.T, cfg Config) *Instance {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("pty engine requires a unix host")
	}
	cfg.Root = t.TempDir()
	e := New(cfg, zap.NewNop())

	inst, err := e.Boot(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Shutdown(context.Background()) })
	return inst.(*Instance)
}

func TestMountWritesTree(t *testing.T) {
	inst := bootInstance(t, Config{})

	tree := engine.Tree{
		"package.json": engine.File(`{"name":"app"}`),
		"src": engine.Dir(engine.Tree{
			"index.js": engine.File("x"),
			"empty":    engine.Dir(nil),
		}),
	}
	require.NoError(t, inst.Mount(context.Background(), tree))

	data, err := os.ReadFile(filepath.Join(inst.Dir(), "src", "index.js"))
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))

	info, err := os.Stat(filepath.Join(inst.Dir(), "src", "empty"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestWriteFileStaysInsideRoot(t *testing.T) {
	inst := bootInstance(t, Config{})
	ctx := context.Background()

	require.NoError(t, inst.FS().WriteFile(ctx, "../../escape.txt", "nope"))
	_, err := os.Stat(filepath.Join(inst.Dir(), "escape.txt"))
	assert.NoError(t, err, "path is clamped into the instance root")

	require.NoError(t, inst.FS().WriteFile(ctx, "src/app.ts", "ok"))
	data, err := os.ReadFile(filepath.Join(inst.Dir(), "src", "app.ts"))
	require.NoError(t, err)
	assert.Equal(t, "ok", string(data))

	assert.ErrorIs(t, inst.FS().WriteFile(ctx, "", "x"), engine.ErrInvalidPath)
	assert.ErrorIs(t, inst.FS().WriteFile(ctx, "/", "x"), engine.ErrInvalidPath)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpawnRunsUnderPTY(t *testing.T) {
	inst := bootInstance(t, Config{})

	proc, err := inst.Spawn(context.Background(), "/bin/sh",
		[]string{"-c", "echo hello $TERM; sleep 0.3; exit 3"},
		engine.SpawnOptions{Terminal: engine.TerminalSize{Cols: 100, Rows: 30}})
	require.NoError(t, err)

	var out syncBuffer
	go func() {
		buf := make([]byte, 1024)
		for {
			n, err := proc.Output().Read(buf)
			if n > 0 {
				out.Write(buf[:n])
			}
			if err != nil {
				return
			}
		}
	}()

	require.Eventually(t, func() bool {
		return bytes.Contains([]byte(out.String()), []byte("hello xterm-256color"))
	}, 5*time.Second, 20*time.Millisecond)

	select {
	case <-proc.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("process did not exit")
	}
	assert.Equal(t, 3, proc.ExitCode())
	assert.ErrorIs(t, proc.Resize(engine.TerminalSize{Cols: 10, Rows: 10}), engine.ErrProcessEnded)
}

func TestSpawnRejectsInvalidSize(t *testing.T) {
	inst := bootInstance(t, Config{})
	_, err := inst.Spawn(context.Background(), "/bin/sh", nil, engine.SpawnOptions{})
	assert.ErrorIs(t, err, engine.ErrInvalidSize)
}

func TestSpawnMissingCommand(t *testing.T) {
	inst := bootInstance(t, Config{})
	_, err := inst.Spawn(context.Background(), "/definitely/not/here", nil,
		engine.SpawnOptions{Terminal: engine.TerminalSize{Cols: 80, Rows: 24}})
	assert.Error(t, err)
}

func TestProbeRaisesServerReady(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	inst := bootInstance(t, Config{Ports: []int{port}, ProbeInterval: 20 * time.Millisecond})

	type ready struct {
		port int
		url  string
	}
	got := make(chan ready, 4)
	inst.OnServerReady(func(p int, u string) {
		select {
		case got <- ready{p, u}:
		default:
		}
	})

	select {
	case r := <-got:
		assert.Equal(t, port, r.port)
		assert.Contains(t, r.url, "http://localhost:")
	case <-time.After(5 * time.Second):
		t.Fatal("no server-ready notification")
	}
}

func TestShutdownRemovesInstanceDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("pty engine requires a unix host")
	}
	e := New(Config{Root: t.TempDir()}, zap.NewNop())
	inst, err := e.Boot(context.Background())
	require.NoError(t, err)
	dir := inst.(*Instance).Dir()

	proc, err := inst.Spawn(context.Background(), "/bin/sh", []string{"-c", "sleep 30"},
		engine.SpawnOptions{Terminal: engine.TerminalSize{Cols: 80, Rows: 24}})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, e.Shutdown(ctx))

	<-proc.Done()
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}
