package packages

import "strings"

const (
	defaultSetupScriptConstant             = "setup.py"
	defaultArtifactGlobConstant            = "dist/*"
	defaultPullRequestVariableConstant     = "TRAVIS_PULL_REQUEST"
	defaultReleaseTagVariableConstant      = "TRAVIS_TAG"
	defaultProductionRepositoryURLConstant = "https://upload.pypi.org/legacy/"
	defaultTestRepositoryURLConstant       = "https://test.pypi.org/legacy/"
	defaultSSHKeyPathConstant              = "~/.ssh/id_rsa"
	sourceDistributionFormatConstant       = "sdist"
	windowsInstallerFormatConstant         = "bdist_wininst"
)

// Configuration aggregates settings for building and uploading Python distributions.
type Configuration struct {
	SetupScript             string   `mapstructure:"setup_script"`
	ArtifactGlob            string   `mapstructure:"artifact_glob"`
	PullRequestVariable     string   `mapstructure:"pull_request_variable"`
	ReleaseTagVariable      string   `mapstructure:"release_tag_variable"`
	ProductionRepositoryURL string   `mapstructure:"production_repository_url"`
	TestRepositoryURL       string   `mapstructure:"test_repository_url"`
	SSHKeyPath              string   `mapstructure:"ssh_key"`
	LegacyFormats           []string `mapstructure:"legacy_formats"`
}

// DefaultConfiguration supplies baseline values for packaging.
func DefaultConfiguration() Configuration {
	return Configuration{
		SetupScript:             defaultSetupScriptConstant,
		ArtifactGlob:            defaultArtifactGlobConstant,
		PullRequestVariable:     defaultPullRequestVariableConstant,
		ReleaseTagVariable:      defaultReleaseTagVariableConstant,
		ProductionRepositoryURL: defaultProductionRepositoryURLConstant,
		TestRepositoryURL:       defaultTestRepositoryURLConstant,
		SSHKeyPath:              defaultSSHKeyPathConstant,
		LegacyFormats:           []string{sourceDistributionFormatConstant, windowsInstallerFormatConstant},
	}
}

// Sanitize trims configured values and falls back to defaults for empty entries.
func (configuration Configuration) Sanitize() Configuration {
	defaults := DefaultConfiguration()
	sanitized := Configuration{
		SetupScript:             valueOrDefault(configuration.SetupScript, defaults.SetupScript),
		ArtifactGlob:            valueOrDefault(configuration.ArtifactGlob, defaults.ArtifactGlob),
		PullRequestVariable:     valueOrDefault(configuration.PullRequestVariable, defaults.PullRequestVariable),
		ReleaseTagVariable:      valueOrDefault(configuration.ReleaseTagVariable, defaults.ReleaseTagVariable),
		ProductionRepositoryURL: valueOrDefault(configuration.ProductionRepositoryURL, defaults.ProductionRepositoryURL),
		TestRepositoryURL:       valueOrDefault(configuration.TestRepositoryURL, defaults.TestRepositoryURL),
		SSHKeyPath:              valueOrDefault(configuration.SSHKeyPath, defaults.SSHKeyPath),
	}

	for _, format := range configuration.LegacyFormats {
		if trimmed := strings.TrimSpace(format); len(trimmed) > 0 {
			sanitized.LegacyFormats = append(sanitized.LegacyFormats, trimmed)
		}
	}
	if len(sanitized.LegacyFormats) == 0 {
		sanitized.LegacyFormats = defaults.LegacyFormats
	}
	return sanitized
}

func valueOrDefault(value string, fallback string) string {
	if trimmed := strings.TrimSpace(value); len(trimmed) > 0 {
		return trimmed
	}
	return fallback
}
