package version

// version is set at build time:
// go build -ldflags "-X github.com/bkimball/guessbot/pkg/version.version=v1.0.0"
var version = "dev"

// Get returns the build version.
func Get() string {
	return version
}
