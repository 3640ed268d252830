// Package version provides build version information embedding for
// adkit binaries.
//
// Version, git commit, branch, and build date are set at compile time
// via -ldflags:
//
//	go build -ldflags "-X github.com/promoflow/adkit/version.Version=1.0.0"
package version
