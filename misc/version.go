// Package misc keeps build time information about the program.
package misc

// Values below are set at link time with -ldflags "-X spritegen/misc.version=..."
var (
	appName = "spritegen"
	version = "dev"
	gitHash = "unknown"
)

func GetAppName() string {
	return appName
}

func GetVersion() string {
	return version
}

func GetGitHash() string {
	return gitHash
}
