package version

import (
	"fmt"
	"runtime/debug"
	"strings"
	"time"
)

var (
	// These variables are set at build time using -ldflags
	Version   = "dev"
	GitCommit = ""
	GitBranch = ""
	BuildDate = ""
	GoVersion = ""
)

// BuildInfo describes the running binary. Served by the monitor /version route.
type BuildInfo struct {
	Version   string    `json:"version"`
	GitCommit string    `json:"git_commit"`
	GitBranch string    `json:"git_branch,omitempty"`
	GoVersion string    `json:"go_version"`
	BuildDate time.Time `json:"build_date"`
	IsRelease bool      `json:"is_release"`
	IsDirty   bool      `json:"is_dirty"`
}

// Info returns the build information, filling gaps from debug.ReadBuildInfo
// when the -ldflags variables were not set.
func Info() *BuildInfo {
	info := &BuildInfo{
		Version:   Version,
		GitCommit: GitCommit,
		GitBranch: GitBranch,
		GoVersion: GoVersion,
		IsRelease: Version != "dev" && !strings.Contains(Version, "dirty"),
	}

	if BuildDate != "" {
		if t, err := time.Parse(time.RFC3339, BuildDate); err == nil {
			info.BuildDate = t
		}
	}

	if buildInfo, ok := debug.ReadBuildInfo(); ok {
		if GoVersion == "" {
			info.GoVersion = buildInfo.GoVersion
		}
		for _, setting := range buildInfo.Settings {
			switch setting.Key {
			case "vcs.revision":
				if GitCommit == "" {
					info.GitCommit = setting.Value
					if len(info.GitCommit) > 7 {
						info.GitCommit = info.GitCommit[:7]
					}
				}
			case "vcs.modified":
				info.IsDirty = setting.Value == "true"
			case "vcs.time":
				if BuildDate == "" {
					if t, err := time.Parse(time.RFC3339, setting.Value); err == nil {
						info.BuildDate = t
					}
				}
			}
		}
	}

	if info.BuildDate.IsZero() {
		info.BuildDate = time.Now().UTC()
	}

	return info
}

// Short returns a compact version string such as "1.2.0-abc1234".
func Short() string {
	info := Info()
	if info.GitCommit != "" {
		if info.IsDirty {
			return fmt.Sprintf("%s-%s-dirty", info.Version, info.GitCommit)
		}
		return fmt.Sprintf("%s-%s", info.Version, info.GitCommit)
	}
	return info.Version
}

// Full returns a detailed version string including branch and build date.
func Full() string {
	info := Info()
	parts := []string{info.Version}
	if info.GitCommit != "" {
		parts = append(parts, info.GitCommit)
	}
	if info.GitBranch != "" && info.GitBranch != "main" && info.GitBranch != "master" {
		parts = append(parts, info.GitBranch)
	}
	if info.IsDirty {
		parts = append(parts, "dirty")
	}
	version := strings.Join(parts, "-")
	if !info.BuildDate.IsZero() {
		version += fmt.Sprintf(" (built %s)", info.BuildDate.Format("2006-01-02T15:04:05Z"))
	}
	return version
}
