package pack

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/kravl/errors"
	"github.com/kbukum/kravl/pipeline"
)

type trackingReader struct {
	io.Reader
	reads  int
	closed bool
}

func (r *trackingReader) Read(p []byte) (int, error) {
	r.reads++
	return r.Reader.Read(p)
}

func (r *trackingReader) Close() error {
	r.closed = true
	return nil
}

func TestBody_LoadIdempotent(t *testing.T) {
	ctx := context.Background()
	b := BytesBody([]byte("hello"))
	require.NoError(t, b.Load(ctx))
	require.NoError(t, b.Load(ctx))

	data, err := b.Bytes(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	assert.Equal(t, KindBytes, b.Kind())
}

func TestBody_StreamPromotesOnce(t *testing.T) {
	ctx := context.Background()
	r := &trackingReader{Reader: strings.NewReader("stream data")}
	b := StreamBody(r)
	assert.Equal(t, -1, b.Len())
	assert.False(t, b.IsLoaded())

	first, err := b.Bytes(ctx)
	require.NoError(t, err)
	reads := r.reads

	second, err := b.Bytes(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, reads, r.reads, "a loaded body must not read again")
	assert.True(t, r.closed)
	assert.Equal(t, KindBytes, b.Kind())
	assert.Equal(t, len("stream data"), b.Len())
}

func TestBody_FileLoad(t *testing.T) {
	p := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(p, []byte("on disk"), 0o644))

	b := FileBody(p)
	got, ok := b.FilePath()
	assert.True(t, ok)
	assert.Equal(t, p, got)

	data, err := b.Bytes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "on disk", string(data))
	_, ok = b.FilePath()
	assert.False(t, ok)
}

func TestBody_FileMissing(t *testing.T) {
	b := FileBody(filepath.Join(t.TempDir(), "missing"))
	err := b.Load(context.Background())
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
	assert.Equal(t, KindPath, b.Kind())
}

func TestBody_CloneIsIndependent(t *testing.T) {
	ctx := context.Background()
	b := StreamBody(io.NopCloser(strings.NewReader("abc")))
	c, err := b.Clone(ctx)
	require.NoError(t, err)

	orig, _ := b.Bytes(ctx)
	dup, _ := c.Bytes(ctx)
	dup[0] = 'X'
	assert.Equal(t, "abc", string(orig))
	assert.Equal(t, "Xbc", string(dup))
}

func TestBody_Empty(t *testing.T) {
	var b Body
	data, err := b.Bytes(context.Background())
	require.NoError(t, err)
	assert.Empty(t, data)
	assert.Equal(t, "empty", b.Kind().String())

	c, err := b.Clone(context.Background())
	require.NoError(t, err)
	assert.Equal(t, KindEmpty, c.Kind())
}

func TestBody_ReaderHandsOverStream(t *testing.T) {
	b := StreamBody(io.NopCloser(strings.NewReader("xyz")))
	r, err := b.Reader(context.Background())
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "xyz", string(data))
	assert.Equal(t, KindEmpty, b.Kind())
}

func TestBody_CopyTo(t *testing.T) {
	var sb strings.Builder
	b := StringBody("copy me")
	n, err := b.CopyTo(context.Background(), &sb)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	assert.Equal(t, "copy me", sb.String())
	assert.Equal(t, KindBytes, b.Kind())
}

func TestBody_LoadCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := StreamBody(io.NopCloser(strings.NewReader("x")))
	assert.ErrorIs(t, b.Load(ctx), context.Canceled)
	assert.Equal(t, KindStream, b.Kind())
}

func TestBody_LoadedIgnoresCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := BytesBody([]byte("x"))
	require.NoError(t, b.Load(ctx))
	got, err := b.Bytes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), got)

	r, err := b.Reader(ctx)
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))

	var empty Body
	got, err = empty.Bytes(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMeta_NilInterfaceValue(t *testing.T) {
	var m Meta
	_, replaced := Insert[error](&m, nil)
	assert.False(t, replaced)

	got, ok := Get[error](&m)
	assert.True(t, ok)
	assert.NoError(t, got)

	old, replaced := Insert[error](&m, errors.New(errors.CodeInternal, "x"))
	assert.True(t, replaced)
	assert.Nil(t, old)

	removed, ok := Remove[error](&m)
	assert.True(t, ok)
	assert.Error(t, removed)
	assert.Equal(t, 0, m.Len())
}

func TestMeta_InsertReturnsPrevious(t *testing.T) {
	var m Meta
	_, replaced := Insert(&m, TaskName("first"))
	assert.False(t, replaced)

	old, replaced := Insert(&m, TaskName("second"))
	assert.True(t, replaced)
	assert.Equal(t, TaskName("first"), old)

	got, ok := Get[TaskName](&m)
	require.True(t, ok)
	assert.Equal(t, TaskName("second"), got)
	assert.Equal(t, 1, m.Len())
}

func TestMeta_TypeIndexed(t *testing.T) {
	var m Meta
	Insert(&m, TaskName("news"))
	Insert(&m, SourceURL("https://example.com"))
	Insert(&m, 42)

	name, _ := Get[TaskName](&m)
	url, _ := Get[SourceURL](&m)
	n, _ := Get[int](&m)
	assert.Equal(t, TaskName("news"), name)
	assert.Equal(t, SourceURL("https://example.com"), url)
	assert.Equal(t, 42, n)

	_, ok := Get[string](&m)
	assert.False(t, ok, "string and TaskName are distinct keys")

	removed, ok := Remove[int](&m)
	assert.True(t, ok)
	assert.Equal(t, 42, removed)
	assert.Equal(t, 2, m.Len())
}

func TestMeta_Clone(t *testing.T) {
	var m Meta
	Insert(&m, TaskName("a"))
	c := m.Clone()
	Insert(&c, TaskName("b"))

	orig, _ := Get[TaskName](&m)
	assert.Equal(t, TaskName("a"), orig)
}

func TestCleanPath(t *testing.T) {
	valid := map[string]string{
		"a.txt":          "a.txt",
		"dir/./b.json":   "dir/b.json",
		"dir/../c.png":   "c.png",
		`win\style\d.md`: "win/style/d.md",
		"a//b/":          "a/b",
	}
	for in, want := range valid {
		got, err := CleanPath(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", ".", "..", "../x", "a/../../x", "/etc/passwd"} {
		_, err := CleanPath(in)
		assert.True(t, errors.IsCode(err, errors.CodeInvalidPath), in)
	}
}

func TestResolveAndRel(t *testing.T) {
	root := t.TempDir()
	p, err := Resolve(root, "a/b.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "a", "b.txt"), p)

	rel, err := Rel(root, p)
	require.NoError(t, err)
	assert.Equal(t, "a/b.txt", rel)

	_, err = Resolve(root, "../escape")
	assert.Error(t, err)
}

func TestMimeFromPath(t *testing.T) {
	cases := map[string]string{
		"a.json":   "application/json",
		"b/c.PNG":  "image/png",
		"d.txt":    "text/plain",
		"e.html":   "text/html",
		"f.yml":    "application/yaml",
		"noext":    OctetStream,
		"g.zzzzzz": OctetStream,
	}
	for in, want := range cases {
		assert.Equal(t, want, MimeFromPath(in), in)
	}
}

func TestDetect_Sniffs(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	assert.Equal(t, "image/png", Detect("blob", png))
	assert.Equal(t, "application/json", Detect("x.json", png))
	assert.Equal(t, OctetStream, Detect("blob", nil))
}

func TestExtFor(t *testing.T) {
	assert.Equal(t, ".jpg", ExtFor("image/jpeg"))
	assert.Equal(t, ".json", ExtFor("application/json; charset=utf-8"))
}

func TestMatchMime(t *testing.T) {
	assert.True(t, MatchMime("application/json", "application/json; charset=utf-8"))
	assert.True(t, MatchMime("image/*", "image/png"))
	assert.True(t, MatchMime("*/*", "text/plain"))
	assert.False(t, MatchMime("image/*", "text/plain"))
	assert.False(t, MatchMime("application/json", "application/yaml"))
}

func TestMatchGlob(t *testing.T) {
	mk := func(p string) *Package { return &Package{Path: p} }
	json := MatchGlob("**/*.json")
	assert.True(t, json.Match(mk("a.json")))
	assert.True(t, json.Match(mk("x/y/z.json")))
	assert.False(t, json.Match(mk("x/y/z.yaml")))

	top := MatchGlob("img/*.png")
	assert.True(t, top.Match(mk("img/a.png")))
	assert.False(t, top.Match(mk("img/sub/a.png")))

	assert.True(t, GlobMatch("docs/**", "docs/a/b.md"))
	assert.True(t, Any(MatchGlob("*.txt"), MatchMimeType("image/*")).Match(&Package{Path: "p.bin", Mime: "image/gif"}))
	assert.False(t, Any().Match(mk("a")))
}

func TestPackage_New(t *testing.T) {
	p, err := New("./out/data.json", "", StringBody("{}"))
	require.NoError(t, err)
	assert.Equal(t, "out/data.json", p.Path)
	assert.Equal(t, "application/json", p.Mime)
	assert.Equal(t, "data.json", p.Name())
	assert.Equal(t, "out", p.Dir())
	assert.Equal(t, ".json", p.Ext())

	p.SetExt(".yaml")
	assert.Equal(t, "out/data.yaml", p.Path)

	_, err = New("../oops", "", Body{})
	assert.True(t, errors.IsCode(err, errors.CodeInvalidPath))
}

func TestPackage_AsyncClone(t *testing.T) {
	ctx := context.Background()
	p, err := New("a.txt", "text/plain", StreamBody(io.NopCloser(strings.NewReader("body"))))
	require.NoError(t, err)
	Insert(&p.Meta, TaskName("t"))

	c, err := p.AsyncClone(ctx)
	require.NoError(t, err)
	assert.Equal(t, KindBytes, p.Body.Kind(), "cloning loads the original")
	assert.Equal(t, "t", c.Task())

	a, _ := p.Bytes(ctx)
	b, _ := c.Bytes(ctx)
	assert.Equal(t, a, b)
	b[0] = 'B'
	assert.Equal(t, "body", string(a))
}

func TestPackage_TakeBody(t *testing.T) {
	p, _ := FromBytes("a.bin", "", []byte{1})
	b := p.TakeBody()
	assert.Equal(t, KindBytes, b.Kind())
	assert.Equal(t, KindEmpty, p.Body.Kind())
}

func TestAsyncClonedPackages(t *testing.T) {
	p, _ := FromBytes("img.png", "", []byte("png"))
	suffix := func(s string) pipeline.WorkFunc[*Package, string] {
		return func(_ context.Context, p *Package) (string, error) {
			return p.Path + s, nil
		}
	}
	src := pipeline.AsyncCloned[*Package, string](pipeline.FromSlice([]*Package{p}), suffix("#1"), suffix("#2"))
	got, err := pipeline.Collect[string](context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, []string{"img.png#1", "img.png#2"}, got)
}

type note string

func (n note) IntoPackage(context.Context) (*Package, error) {
	return FromBytes("notes/"+string(n)+".txt", "", []byte(n))
}

func TestConvertAndRename(t *testing.T) {
	work := pipeline.And[note, *Package, *Package](Convert[note](), Rename(func(p string) string {
		return strings.ToUpper(p)
	}))
	p, err := work.Call(context.Background(), note("hi"))
	require.NoError(t, err)
	assert.Equal(t, "NOTES/HI.TXT", p.Path)
	assert.Equal(t, "text/plain", p.Mime)

	loaded, err := Load().Call(context.Background(), p)
	require.NoError(t, err)
	assert.True(t, loaded.Body.IsLoaded())
	assert.True(t, Matching(MatchGlob("NOTES/*"))(loaded))
}
