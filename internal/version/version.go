// Package version holds the build identifier, set at link time:
//
//	go build -ldflags "-X smartpro-bot/internal/version.Version=$(git describe --tags)"
package version

var Version = "dev"
