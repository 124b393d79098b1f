package settings

import (
	"net/url"
	"os"
	"strings"

	"github.com/creasty/defaults"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Build tools and clocks accepted in Settings.
const (
	BuildToolMaven      = "maven"
	BuildToolDescriptor = "descriptor"

	ClockSystem = "system"
	ClockDate   = "date"
)

type Settings struct {
	Token       string `yaml:"token"`
	AuthorName  string `yaml:"authorName"`
	AuthorEmail string `yaml:"authorEmail"`

	// Repository is owner/repo; the owner is the login of the credential file.
	Repository string `yaml:"repository"`
	Host       string `yaml:"host" default:"github.com"`
	Home       string `yaml:"home"`
	Ref        string `yaml:"ref"`
	Remote     string `yaml:"remote"`
	Dir        string `yaml:"dir" default:"."`

	BuildTool   string   `yaml:"buildTool" default:"maven"`
	MavenBin    string   `yaml:"mavenBin" default:"mvn"`
	HelpPlugin  string   `yaml:"helpPlugin" default:"org.apache.maven.plugins:maven-help-plugin:3.2.0"`
	Descriptor  string   `yaml:"descriptor" default:"pom.xml"`
	ProjectName string   `yaml:"projectName"`
	BumpFiles   []string `yaml:"bumpFiles"`

	Clock  string `yaml:"clock" default:"system"`
	DryRun bool   `yaml:"dryRun"`

	LogDir   string `yaml:"logDir"`
	LogLevel int    `yaml:"logLevel" default:"4"` // 2 error, 3 warn, 4 info, 5 debug
}

// Default returns settings with only the defaults applied.
func Default() (*Settings, error) {
	s := new(Settings)
	if err := defaults.Set(s); err != nil {
		return nil, errors.Wrap(err, "set default error")
	}
	return s, nil
}

// LoadSettings reads a YAML settings file. Fields the file leaves empty get
// their defaults.
func LoadSettings(filePath string) (*Settings, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, errors.Errorf("settings file %q not found", filePath)
	}
	file, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "reading settings file %q", filePath)
	}

	s := new(Settings)
	if err := yaml.Unmarshal(file, s); err != nil {
		return nil, errors.Wrap(err, "decoding settings")
	}
	if err := defaults.Set(s); err != nil {
		return nil, errors.Wrap(err, "set default error")
	}
	return s, nil
}

// LookupFunc reads one environment variable, like os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Input returns the environment variable GitHub Actions uses for the action
// input name: spaces become underscores and the name is upper-cased.
func Input(name string) string {
	return "INPUT_" + strings.ToUpper(strings.ReplaceAll(name, " ", "_"))
}

// ApplyEnv overrides settings from the environment of a GitHub Actions run.
// Unset or empty variables leave the current value alone.
func (s *Settings) ApplyEnv(lookup LookupFunc) error {
	str := func(dst *string, key string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	str(&s.Token, Input("token"))
	str(&s.AuthorName, Input("authorName"))
	str(&s.AuthorEmail, Input("authorEmail"))
	str(&s.BuildTool, Input("buildTool"))
	str(&s.Descriptor, Input("descriptor"))
	str(&s.ProjectName, Input("projectName"))
	str(&s.Repository, "GITHUB_REPOSITORY")
	str(&s.Ref, "GITHUB_REF")
	str(&s.Dir, "GITHUB_WORKSPACE")
	str(&s.Home, "HOME")

	if v, ok := lookup("GITHUB_SERVER_URL"); ok && v != "" {
		u, err := url.Parse(v)
		if err != nil || u.Host == "" {
			return errors.Errorf("GITHUB_SERVER_URL %q is not a valid URL", v)
		}
		s.Host = u.Host
	}
	return nil
}

// Validate checks required inputs and enumerations.
func (s *Settings) Validate() error {
	required := []struct {
		name, value string
	}{
		{"token", s.Token},
		{"authorName", s.AuthorName},
		{"authorEmail", s.AuthorEmail},
	}
	for _, r := range required {
		if r.value == "" {
			return errors.Errorf("Input required and not supplied: %s", r.name)
		}
	}

	switch s.BuildTool {
	case BuildToolMaven, BuildToolDescriptor:
	default:
		return errors.Errorf("unknown build tool %q (want %s or %s)", s.BuildTool, BuildToolMaven, BuildToolDescriptor)
	}
	switch s.Clock {
	case ClockSystem, ClockDate:
	default:
		return errors.Errorf("unknown clock %q (want %s or %s)", s.Clock, ClockSystem, ClockDate)
	}
	if s.LogLevel < 2 || s.LogLevel > 5 {
		return errors.Errorf("log level %d out of range 2..5", s.LogLevel)
	}
	return nil
}
