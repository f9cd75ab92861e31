package version

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func restore(t *testing.T) {
	t.Helper()
	v, c, b := Version, GitCommit, BuildTime
	t.Cleanup(func() { Version, GitCommit, BuildTime = v, c, b })
}

func TestGet_LinkerValues(t *testing.T) {
	restore(t)
	Version = "v1.2.0"
	GitCommit = "0123456789abcdef"
	BuildTime = "2026-01-15T10:30:00Z"

	info := Get()
	assert.Equal(t, "v1.2.0", info.Version)
	assert.Equal(t, "0123456789abcdef", info.GitCommit)
	assert.Equal(t, "0123456", info.ShortCommit())
	assert.Equal(t, time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC), info.BuildTime)
	assert.NotEmpty(t, info.GoVersion)
	assert.Contains(t, info.Platform, "/")
}

func TestGet_BadBuildTime(t *testing.T) {
	restore(t)
	BuildTime = "yesterday"
	Version = "v1.0.0"
	info := Get()
	assert.Equal(t, "v1.0.0", info.Version)
}

func TestInfo_Short(t *testing.T) {
	assert.Equal(t, "dev", Info{Version: "dev"}.Short())
	assert.Equal(t, "v1.0.0-abcdef1", Info{Version: "v1.0.0", GitCommit: "abcdef123"}.Short())
	assert.Equal(t, "v1.0.0-abcdef1-dirty", Info{Version: "v1.0.0", GitCommit: "abcdef1", Dirty: true}.Short())
}

func TestInfo_IsRelease(t *testing.T) {
	assert.False(t, Info{Version: "dev"}.IsRelease())
	assert.True(t, Info{Version: "v1.0.0"}.IsRelease())
	assert.False(t, Info{Version: "v1.0.0", Dirty: true}.IsRelease())
	assert.False(t, Info{Version: "v1.0.0-dirty"}.IsRelease())
}

func TestInfo_String(t *testing.T) {
	info := Info{
		Version:   "v2.0.0",
		GoVersion: "go1.26.0",
		Platform:  "linux/amd64",
		BuildTime: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, "kravl v2.0.0 (go1.26.0 linux/amd64, built 2026-03-01T00:00:00Z)", info.String())

	info.BuildTime = time.Time{}
	assert.Equal(t, "kravl v2.0.0 (go1.26.0 linux/amd64)", info.String())
}

func TestUserAgent(t *testing.T) {
	assert.True(t, strings.HasPrefix(UserAgent(), "kravl/"))
}
