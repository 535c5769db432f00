package config

import (
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"
)

// envPrefix marks a setting whose value is read from the named environment
// variable, e.g. "env/SAKURACLOUD_ACCESS_TOKEN".
const envPrefix = "env/"

// ProviderConfig holds the DNS provider type and provider-specific
// connection settings.
type ProviderConfig struct {
	Provider string            `yaml:"provider"`
	Settings map[string]string `yaml:"settings"`
}

// LoadProviderConfig reads the DNS provider configuration from the path
// specified by the DNS_PROVIDER_PATH environment variable, defaulting to
// "configs/dns-provider.yaml".
func LoadProviderConfig() (*ProviderConfig, error) {
	path := os.Getenv("DNS_PROVIDER_PATH")
	if path == "" {
		path = "configs/dns-provider.yaml"
	}
	return LoadProviderConfigFromPath(path)
}

// LoadProviderConfigFromPath reads the DNS provider configuration from the
// given file path.
func LoadProviderConfigFromPath(path string) (*ProviderConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading provider config file: %w", err)
	}

	var cfg ProviderConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing provider config file: %w", err)
	}

	if cfg.Provider == "" {
		return nil, fmt.Errorf("provider config: missing required field 'provider'")
	}

	for k, v := range cfg.Settings {
		resolved, err := resolveSetting(v)
		if err != nil {
			return nil, fmt.Errorf("provider config: setting %q: %w", k, err)
		}
		cfg.Settings[k] = resolved
	}

	return &cfg, nil
}

// resolveSetting expands ${ENV_VAR} references and env/ENV_VAR indirection.
// An env/ reference to an unset variable is an error; ${} references to
// unset variables expand to "".
func resolveSetting(v string) (string, error) {
	if name, ok := strings.CutPrefix(v, envPrefix); ok {
		val, set := os.LookupEnv(name)
		if !set {
			return "", fmt.Errorf("environment variable %s is not set", name)
		}
		return val, nil
	}
	return os.ExpandEnv(v), nil
}
