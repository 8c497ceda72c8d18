package version

import "runtime/debug"

var (
	// Version is the release version (set via -ldflags).
	Version = ""
	// Commit is the git commit hash (set via -ldflags).
	Commit = ""
)

type Info struct {
	Version string
	Commit  string
}

// Resolve prefers the -ldflags values and falls back to the build info the
// Go toolchain embeds in the binary.
func Resolve() Info {
	resolved := Info{Version: Version, Commit: Commit}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		if resolved.Version == "" {
			resolved.Version = "devel"
		}
		return resolved
	}
	if resolved.Version == "" {
		resolved.Version = bi.Main.Version
	}
	if resolved.Version == "" || resolved.Version == "(devel)" {
		resolved.Version = "devel"
	}
	if resolved.Commit == "" {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" {
				resolved.Commit = s.Value
			}
		}
	}
	return resolved
}

func String() string {
	info := Resolve()
	if info.Commit == "" {
		return info.Version
	}
	return info.Version + " (" + shortCommit(info.Commit) + ")"
}

func shortCommit(commit string) string {
	if len(commit) <= 12 {
		return commit
	}
	return commit[:12]
}
