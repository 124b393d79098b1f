package calversion

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Build metadata expressions understood by every BuildTool.
const (
	ExprProjectVersion = "project.version"
	ExprProjectName    = "project.name"
)

// BuildTool reads and updates the project descriptor of the build system.
type BuildTool interface {
	// Evaluate returns the value of a project metadata expression.
	Evaluate(ctx context.Context, expr string) (string, error)
	// SetVersion rewrites the project version in place.
	SetVersion(ctx context.Context, version string) error
	// Descriptor is the path of the file SetVersion modifies, relative to the repository.
	Descriptor() string
}

// DefaultHelpPlugin is the maven-help-plugin used to evaluate expressions.
const DefaultHelpPlugin = "org.apache.maven.plugins:maven-help-plugin:3.2.0"

// Maven drives mvn for expression evaluation and version updates.
type Maven struct {
	exec       Executor
	dir        string
	bin        string
	helpPlugin string
}

// NewMaven returns a Maven tool for the project in dir. Empty bin and
// helpPlugin fall back to "mvn" and DefaultHelpPlugin.
func NewMaven(exec Executor, dir, bin, helpPlugin string) *Maven {
	if bin == "" {
		bin = "mvn"
	}
	if helpPlugin == "" {
		helpPlugin = DefaultHelpPlugin
	}
	return &Maven{exec: exec, dir: dir, bin: bin, helpPlugin: helpPlugin}
}

func (m *Maven) Evaluate(ctx context.Context, expr string) (string, error) {
	args := []string{m.helpPlugin + ":evaluate", "-Dexpression=" + expr, "-q", "-DforceStdout"}
	res, err := m.exec.Run(ctx, m.bin, args, RunOpts{Dir: m.dir})
	if err != nil {
		return "", errors.Wrapf(err, "evaluate %s", expr)
	}
	value := strings.TrimSpace(res.Stdout)
	if value == "" {
		return "", errors.Errorf("evaluate %s: empty result", expr)
	}
	return value, nil
}

func (m *Maven) SetVersion(ctx context.Context, version string) error {
	args := []string{
		"build-helper:parse-version",
		"versions:set",
		"-DnewVersion=" + version,
		"versions:commit",
		"--no-transfer-progress",
	}
	if _, err := m.exec.Run(ctx, m.bin, args, RunOpts{Dir: m.dir}); err != nil {
		return errors.Wrapf(err, "set version %s", version)
	}
	return nil
}

func (m *Maven) Descriptor() string {
	return "pom.xml"
}

// DescriptorFile reads and writes the version directly in a descriptor file
// such as pom.xml, package.json, Cargo.toml or a plain VERSION file.
type DescriptorFile struct {
	dir         string
	path        string
	projectName string
}

// NewDescriptorFile returns a tool for the descriptor at path (relative to
// dir). When projectName is empty it is read from the descriptor.
func NewDescriptorFile(dir, path, projectName string) *DescriptorFile {
	return &DescriptorFile{dir: dir, path: path, projectName: projectName}
}

func (d *DescriptorFile) fullPath() string {
	if filepath.IsAbs(d.path) {
		return d.path
	}
	return filepath.Join(d.dir, d.path)
}

func (d *DescriptorFile) Evaluate(_ context.Context, expr string) (string, error) {
	switch expr {
	case ExprProjectVersion:
		match, err := FindMainVersionInFile(d.fullPath())
		if err != nil {
			return "", err
		}
		return match.Value, nil
	case ExprProjectName:
		if d.projectName != "" {
			return d.projectName, nil
		}
		return FindProjectNameInFile(d.fullPath())
	}
	return "", errors.Errorf("unsupported expression %q", expr)
}

func (d *DescriptorFile) SetVersion(_ context.Context, version string) error {
	ok, err := BumpVersionInFile(d.fullPath(), version)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrapf(ErrNoVersionField, "%s", d.path)
	}
	return nil
}

func (d *DescriptorFile) Descriptor() string {
	return d.path
}
