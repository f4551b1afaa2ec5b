package version

import (
	"runtime/debug"
	"strings"
)

const (
	unknownBuildVersionConstant = "unknown"
	develBuildVersionConstant   = "(devel)"
	vcsRevisionSettingConstant  = "vcs.revision"
	vcsModifiedSettingConstant  = "vcs.modified"
	vcsModifiedTrueConstant     = "true"
	dirtyRevisionSuffixConstant = "-dirty"
	shortRevisionLengthConstant = 12
)

// BuildInfoReader returns the build metadata embedded in the running binary.
type BuildInfoReader func() (*debug.BuildInfo, bool)

// BuildVersion reports the module version the binary was built at. Development builds fall back to the
// short VCS revision, suffixed with -dirty for modified checkouts, and then to "unknown".
func BuildVersion(readBuildInfo BuildInfoReader) string {
	if readBuildInfo == nil {
		readBuildInfo = debug.ReadBuildInfo
	}

	buildInfo, available := readBuildInfo()
	if !available || buildInfo == nil {
		return unknownBuildVersionConstant
	}

	if moduleVersion := strings.TrimSpace(buildInfo.Main.Version); len(moduleVersion) > 0 && moduleVersion != develBuildVersionConstant {
		return moduleVersion
	}

	revision := ""
	modified := false
	for _, setting := range buildInfo.Settings {
		switch setting.Key {
		case vcsRevisionSettingConstant:
			revision = strings.TrimSpace(setting.Value)
		case vcsModifiedSettingConstant:
			modified = setting.Value == vcsModifiedTrueConstant
		}
	}
	if len(revision) == 0 {
		return unknownBuildVersionConstant
	}

	if len(revision) > shortRevisionLengthConstant {
		revision = revision[:shortRevisionLengthConstant]
	}
	if modified {
		revision += dirtyRevisionSuffixConstant
	}
	return revision
}
