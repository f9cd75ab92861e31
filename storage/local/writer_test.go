package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/kravl/errors"
	"github.com/kbukum/kravl/logger"
	"github.com/kbukum/kravl/pack"
	"github.com/kbukum/kravl/pipeline"
)

// slowReader yields its content in small chunks with a pause between them so
// concurrent writes overlap in time.
type slowReader struct {
	data  []byte
	chunk int
	pause time.Duration
}

func (r *slowReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	time.Sleep(r.pause)
	n := min(r.chunk, len(p), len(r.data))
	copy(p, r.data[:n])
	r.data = r.data[n:]
	return n, nil
}

func (r *slowReader) Close() error { return nil }

func newWriter(t *testing.T, appendMimes ...string) *Writer {
	t.Helper()
	w, err := NewWriter(&Config{Root: t.TempDir(), AppendMimes: appendMimes}, logger.Nop())
	require.NoError(t, err)
	return w
}

func mustPackage(t *testing.T, p, mime string, body pack.Body) *pack.Package {
	t.Helper()
	pkg, err := pack.New(p, mime, body)
	require.NoError(t, err)
	return pkg
}

func readFile(t *testing.T, w *Writer, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(w.Root(), filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func TestWriter_TruncateAndCreateDirs(t *testing.T) {
	w := newWriter(t)
	ctx := context.Background()

	require.NoError(t, w.Call(ctx, mustPackage(t, "a/b/c.txt", "", pack.StringBody("first version"))))
	require.NoError(t, w.Call(ctx, mustPackage(t, "a/b/c.txt", "", pack.StringBody("second"))))
	assert.Equal(t, "second", readFile(t, w, "a/b/c.txt"))
}

func TestWriter_AppendWithSeparator(t *testing.T) {
	w := newWriter(t, "application/json")
	ctx := context.Background()

	require.NoError(t, w.Call(ctx, mustPackage(t, "items.json", "", pack.StringBody(`{"n":1}`))))
	require.NoError(t, w.Call(ctx, mustPackage(t, "items.json", "", pack.StringBody(`{"n":2}`))))
	assert.Equal(t, "{\"n\":1}\n{\"n\":2}\n", readFile(t, w, "items.json"))
}

func TestWriter_AppendMatcherAndSeparator(t *testing.T) {
	w, err := NewWriter(&Config{
		Root:      t.TempDir(),
		Separator: "\n---\n",
		Append:    []pack.Matcher{pack.MatchGlob("logs/**")},
	}, logger.Nop())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, w.Call(ctx, mustPackage(t, "logs/x.md", "", pack.StringBody("a"))))
	require.NoError(t, w.Call(ctx, mustPackage(t, "logs/x.md", "", pack.StringBody("b"))))
	assert.Equal(t, "a\n---\nb\n---\n", readFile(t, w, "logs/x.md"))
}

func TestWriter_FileBody(t *testing.T) {
	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "in.bin")
	require.NoError(t, os.WriteFile(src, []byte{1, 2, 3}, 0o644))

	w := newWriter(t)
	require.NoError(t, w.Call(context.Background(), mustPackage(t, "copy.bin", "", pack.FileBody(src))))
	assert.Equal(t, string([]byte{1, 2, 3}), readFile(t, w, "copy.bin"))
}

func TestWriter_FileBodyOntoItself(t *testing.T) {
	ctx := context.Background()

	t.Run("replace", func(t *testing.T) {
		w := newWriter(t)
		src := filepath.Join(w.Root(), "a.txt")
		require.NoError(t, os.WriteFile(src, []byte("hello"), 0o644))

		require.NoError(t, w.Call(ctx, mustPackage(t, "a.txt", "", pack.FileBody(src))))
		assert.Equal(t, "hello", readFile(t, w, "a.txt"))
	})

	t.Run("append", func(t *testing.T) {
		w := newWriter(t, "text/plain")
		src := filepath.Join(w.Root(), "log.txt")
		require.NoError(t, os.WriteFile(src, []byte("x\n"), 0o644))

		require.NoError(t, w.Call(ctx, mustPackage(t, "log.txt", "text/plain", pack.FileBody(src))))
		assert.Equal(t, "x\nx\n\n", readFile(t, w, "log.txt"))
	})
}

func TestWriter_ConcurrentAppendAndTruncateNeverInterleave(t *testing.T) {
	w := newWriter(t, "application/json")
	ctx := context.Background()
	appendData := strings.Repeat("a", 4096)
	truncData := strings.Repeat("t", 4096)

	for round := range 5 {
		rel := fmt.Sprintf("round-%d.out", round)
		appendPkg := mustPackage(t, rel, "application/json", pack.StreamBody(&slowReader{data: []byte(appendData), chunk: 512, pause: time.Millisecond}))
		truncPkg := mustPackage(t, rel, "text/plain", pack.StreamBody(&slowReader{data: []byte(truncData), chunk: 512, pause: time.Millisecond}))

		var wg sync.WaitGroup
		for _, p := range []*pack.Package{appendPkg, truncPkg} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, w.Call(ctx, p))
			}()
		}
		wg.Wait()

		got := readFile(t, w, rel)
		valid := got == truncData || got == truncData+appendData+"\n"
		assert.True(t, valid, "round %d: interleaved or unexpected content of length %d", round, len(got))
	}
}

func TestWriter_ConcurrentAppendsKeepLinesIntact(t *testing.T) {
	w := newWriter(t, "application/json")
	ctx := context.Background()
	const n = 20

	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			line := fmt.Sprintf(`{"i":%02d,"pad":"%s"}`, i, strings.Repeat("x", 256))
			p := mustPackage(t, "all.json", "", pack.StreamBody(&slowReader{data: []byte(line), chunk: 64}))
			assert.NoError(t, w.Call(ctx, p))
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(readFile(t, w, "all.json"), "\n"), "\n")
	require.Len(t, lines, n)
	sort.Strings(lines)
	for i, line := range lines {
		assert.Equal(t, fmt.Sprintf(`{"i":%02d,"pad":"%s"}`, i, strings.Repeat("x", 256)), line)
	}
}

func TestWriter_WaitHonorsContext(t *testing.T) {
	w := newWriter(t)
	target, err := pack.Resolve(w.Root(), "busy.txt")
	require.NoError(t, err)
	require.NoError(t, w.acquire(context.Background(), target))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = w.Call(ctx, mustPackage(t, "busy.txt", "", pack.StringBody("x")))
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	w.release(target)
	require.NoError(t, w.Call(context.Background(), mustPackage(t, "busy.txt", "", pack.StringBody("x"))))
}

func TestWriter_ReleasesOnFailure(t *testing.T) {
	w := newWriter(t)
	ctx := context.Background()
	bad := mustPackage(t, "f.txt", "", pack.FileBody(filepath.Join(t.TempDir(), "missing")))

	err := w.Call(ctx, bad)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))

	done := make(chan error, 1)
	go func() { done <- w.Call(ctx, mustPackage(t, "f.txt", "", pack.StringBody("ok"))) }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("path stayed locked after a failed write")
	}
	assert.Equal(t, "ok", readFile(t, w, "f.txt"))
}

func TestWriter_AsWorkInConcurrentPipeline(t *testing.T) {
	w := newWriter(t, "text/*")
	pkgs := make([]*pack.Package, 10)
	for i := range pkgs {
		pkgs[i] = mustPackage(t, "log.txt", "", pack.StringBody(fmt.Sprintf("line %d", i)))
	}
	out := pipeline.Concurrent[*pack.Package, *pack.Package](pipeline.FromSlice(pkgs), w.Work(), 4)
	err := pipeline.Drive[*pack.Package](out, pipeline.Discard[*pack.Package](), pipeline.WithErrorPolicy(pipeline.Abort), pipeline.WithLogger(logger.Nop())).Run(context.Background())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(readFile(t, w, "log.txt"), "\n"), "\n")
	assert.Len(t, lines, 10)
}
