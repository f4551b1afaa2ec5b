package cli

import (
	_ "embed"

	"github.com/tyemirov/tasker/internal/releasetasks"
)

const embeddedConfigurationTypeConstant = "yaml"

//go:embed config.yaml
var embeddedDefaultConfiguration []byte

// EmbeddedDefaultConfiguration returns the configuration compiled into the binary together with its format.
func EmbeddedDefaultConfiguration() ([]byte, string) {
	return append([]byte{}, embeddedDefaultConfiguration...), embeddedConfigurationTypeConstant
}

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common                     ApplicationCommonConfiguration `mapstructure:"common"`
	releasetasks.Configuration `mapstructure:",squash"`
}

// ApplicationCommonConfiguration stores logging defaults shared across tasks.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// TaskConfiguration returns the sanitized release task settings.
func (configuration ApplicationConfiguration) TaskConfiguration() releasetasks.Configuration {
	return configuration.Configuration.Sanitize()
}
