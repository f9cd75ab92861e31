// Package version reports the kravl build.
//
// Version, GitCommit and BuildTime are set at link time:
//
//	go build -ldflags "-X github.com/kbukum/kravl/version.Version=v0.3.0" ./cmd/kravl
//
// Values left unset are filled from the module build info when available.
package version
