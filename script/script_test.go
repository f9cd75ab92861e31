package script

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/kravl/errors"
	"github.com/kbukum/kravl/httpclient"
	"github.com/kbukum/kravl/logger"
	"github.com/kbukum/kravl/pack"
	"github.com/kbukum/kravl/pipeline"
)

func runTask(t *testing.T, r *Runner, task Task) ([]*pack.Package, error) {
	t.Helper()
	var out []*pack.Package
	err := r.Run(context.Background(), task, func(p *pack.Package) error {
		out = append(out, p)
		return nil
	})
	return out, err
}

func body(t *testing.T, p *pack.Package) string {
	t.Helper()
	data, err := p.Bytes(context.Background())
	require.NoError(t, err)
	return string(data)
}

func TestRun_EmitStringsAndTables(t *testing.T) {
	task := Task{Name: "demo", Args: map[string]any{"count": 2, "prefix": "item"}, Source: `
function run(task)
  for i = 1, task.args.count do
    emit(task.args.prefix .. i .. ".txt", "value " .. i)
  end
  emit("summary.json", { task = task.name, items = { "a", "b" }, total = task.args.count })
  emit("page", "<p>x</p>", "text/html")
end
`}
	pkgs, err := runTask(t, &Runner{}, task)
	require.NoError(t, err)
	require.Len(t, pkgs, 4)

	assert.Equal(t, "item1.txt", pkgs[0].Path)
	assert.Equal(t, "text/plain", pkgs[0].Mime)
	assert.Equal(t, "value 1", body(t, pkgs[0]))
	assert.Equal(t, "demo", pkgs[0].Task())

	assert.Equal(t, "application/json", pkgs[2].Mime)
	assert.JSONEq(t, `{"task":"demo","items":["a","b"],"total":2}`, body(t, pkgs[2]))

	assert.Equal(t, "text/html", pkgs[3].Mime)
}

func TestRun_TopLevelEmitWithoutRun(t *testing.T) {
	pkgs, err := runTask(t, &Runner{}, Task{Name: "flat", Source: `emit("a.txt", "a")`})
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
}

func TestRun_ScriptErrors(t *testing.T) {
	_, err := runTask(t, &Runner{}, Task{Name: "broken", Source: `function run(`})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeScript))

	_, err = runTask(t, &Runner{}, Task{Name: "raises", Source: `function run() error("boom") end`})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeScript))
	assert.Contains(t, err.Error(), "boom")

	_, err = runTask(t, &Runner{}, Task{Name: "escape", Source: `emit("../x", "x")`})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "emit")
}

func TestRun_Sandbox(t *testing.T) {
	pkgs, err := runTask(t, &Runner{}, Task{Name: "sandbox", Source: `
emit("probe.json", {
  execute = os.execute == nil,
  getenv = os.getenv == nil,
  require = require == nil,
  dofile = dofile == nil,
  clock = type(os.clock) == "function",
})
`})
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	assert.JSONEq(t, `{"execute":true,"getenv":true,"require":true,"dofile":true,"clock":true}`, body(t, pkgs[0]))
}

func TestRun_EmitErrorAborts(t *testing.T) {
	stop := errors.New(errors.CodeDest, "sink full")
	calls := 0
	err := (&Runner{}).Run(context.Background(), Task{Name: "t", Source: `for i = 1, 10 do emit(i .. ".txt", "x") end`}, func(*pack.Package) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestRun_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, "remote:"+r.URL.Path)
	}))
	defer srv.Close()
	client, err := httpclient.New(httpclient.Config{BaseURL: srv.URL}, logger.Nop())
	require.NoError(t, err)

	pkgs, err := runTask(t, &Runner{Client: client}, Task{Name: "fetcher", Source: `
emit("ok.txt", fetch("/hello"))
local body, err = fetch("/missing")
emit("missing.json", { body = body == nil, err = err ~= nil })
`})
	require.NoError(t, err)
	require.Len(t, pkgs, 2)
	assert.Equal(t, "remote:/hello", body(t, pkgs[0]))
	assert.JSONEq(t, `{"body":true,"err":true}`, body(t, pkgs[1]))

	_, err = runTask(t, &Runner{}, Task{Name: "offline", Source: `fetch("/x")`})
	assert.Error(t, err)
}

func TestJSONHelpers(t *testing.T) {
	pkgs, err := runTask(t, &Runner{}, Task{Name: "json", Source: `
local v = json_decode('{"a":[1,2,3],"b":{"c":true}}')
emit("out.txt", json_encode({ n = #v.a, c = v.b.c }))
`})
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":3,"c":true}`, body(t, pkgs[0]))
}

func TestLoadTask(t *testing.T) {
	dir := t.TempDir()
	named := filepath.Join(dir, "a.lua")
	require.NoError(t, os.WriteFile(named, []byte("-- @name: crawler\n-- other\nemit('x', 'y')\n"), 0o644))
	plain := filepath.Join(dir, "plain.lua")
	require.NoError(t, os.WriteFile(plain, []byte("emit('x', 'y')\n"), 0o644))

	task, err := LoadTask(named, nil)
	require.NoError(t, err)
	assert.Equal(t, "crawler", task.Name)

	task, err = LoadTask(plain, map[string]any{"k": "v"})
	require.NoError(t, err)
	assert.Equal(t, "plain", task.Name)
	assert.Equal(t, "v", task.Args["k"])

	_, err = LoadTask(filepath.Join(dir, "none.lua"), nil)
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
}

func TestSource_RunsTasksConcurrently(t *testing.T) {
	r := &Runner{Concurrency: 2, Buffer: 1, Log: logger.Nop()}
	var tasks []Task
	for _, name := range []string{"a", "b", "c"} {
		tasks = append(tasks, Task{Name: name, Source: `for i = 1, 3 do emit(task.name .. "/" .. i .. ".txt", task.name) end`})
	}
	tasks = append(tasks, Task{Name: "bad", Source: `error("nope")`})

	results, err := pipeline.CollectResults[*pack.Package](context.Background(), r.Source(tasks...))
	require.NoError(t, err)

	var paths []string
	failures := 0
	for _, res := range results {
		if res.Err != nil {
			failures++
			assert.True(t, errors.IsCode(res.Err, errors.CodeScript))
			continue
		}
		paths = append(paths, res.Value.Path)
		assert.Equal(t, res.Value.Path[:1], res.Value.Task())
	}
	sort.Strings(paths)
	assert.Equal(t, 1, failures)
	assert.Equal(t, []string{"a/1.txt", "a/2.txt", "a/3.txt", "b/1.txt", "b/2.txt", "b/3.txt", "c/1.txt", "c/2.txt", "c/3.txt"}, paths)
}

func TestSource_CloseStopsTasks(t *testing.T) {
	r := &Runner{Concurrency: 1, Buffer: 1}
	src := r.Source(Task{Name: "endless", Source: `local i = 0 while true do i = i + 1 emit(i .. ".txt", "x") end`})

	it := src.Iter(context.Background())
	_, ok, err := it.Next(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, it.Close())
}
