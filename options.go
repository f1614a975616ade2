package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

const (
	defaultRegion = "us-east-1"
	tokenEnv      = "GITHUB_TOKEN"
	profileEnv    = "AWS_PROFILE"
)

type Options struct {
	Source      string
	Destination string
	Region      string
	Profile     string
	GithubToken string
	ConfigFile  string
}

// fileDefaults is the shape of the optional --config YAML file.
type fileDefaults struct {
	Region      string `yaml:"region"`
	Profile     string `yaml:"profile"`
	GithubToken string `yaml:"github_token"`
}

// resolve fills unset fields from the environment and the defaults file,
// then validates the result. Precedence per field: flag, environment, file,
// builtin default.
func (o *Options) resolve() error {
	defaults, err := readDefaults(o.ConfigFile)
	if err != nil {
		return err
	}

	if o.Region == "" {
		o.Region = defaults.Region
	}
	if o.Region == "" {
		o.Region = defaultRegion
	}

	if o.Profile == "" {
		o.Profile = os.Getenv(profileEnv)
	}
	if o.Profile == "" {
		o.Profile = defaults.Profile
	}

	if o.GithubToken == "" {
		o.GithubToken = os.Getenv(tokenEnv)
	}
	if o.GithubToken == "" {
		o.GithubToken = defaults.GithubToken
	}

	if o.Source == "" {
		return fmt.Errorf("source image reference is required")
	}
	if o.Destination == "" {
		return fmt.Errorf("destination image reference is required")
	}

	return nil
}

func readDefaults(path string) (fileDefaults, error) {
	var d fileDefaults
	if path == "" {
		return d, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return d, fmt.Errorf("reading defaults file: %w", err)
	}

	if err := yaml.Unmarshal(b, &d); err != nil {
		return d, fmt.Errorf("parsing defaults file %s: %w", path, err)
	}

	return d, nil
}
