// Package version reports the glmchat build version.
//
// Version, commit, branch and build time are set at link time:
//
//	go build -ldflags "-X github.com/kbukum/glmkit/version.Version=1.0.0" ./cmd/glmchat
//
// Unset values fall back to the VCS stamp in the binary's build info.
package version
