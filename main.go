// Package main implements a CLI tool that derives the next calendar version,
// commits it to the build descriptor, tags the commit and pushes.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/bcomnes/calversion/logger"
	calversion "github.com/bcomnes/calversion/pkg"
	"github.com/bcomnes/calversion/settings"
)

func usage(fs *pflag.FlagSet) func() {
	return func() {
		msg := `Usage:
  calversion [options]

Derives the next calendar version (year.month.patch) for the checked-out branch, writes it to the
build descriptor, commits with "<project>-<version>" as the message, creates an annotated tag of the
same name and pushes branch and tag. Branches ending in "-hotfix" get a -HF<n> hotfix counter instead.

Examples:
  calversion --token "$TOKEN" --author-name ci --author-email ci@example.com --repository acme/shop
  calversion --build-tool descriptor --descriptor package.json --dry-run --token x --author-name ci --author-email ci@example.com

Options:
`
		fmt.Fprint(os.Stderr, msg)
		fs.PrintDefaults()
	}
}

func main() {
	fs := pflag.NewFlagSet("calversion", pflag.ContinueOnError)
	configFile := fs.String("config", "", "YAML settings file")
	token := fs.String("token", "", "Token written to the .netrc credential file (required)")
	authorName := fs.String("author-name", "", "Commit author name (required)")
	authorEmail := fs.String("author-email", "", "Commit author email (required)")
	repository := fs.String("repository", "", "Repository as owner/repo; the owner is the .netrc login")
	host := fs.String("host", "", "Git host written to .netrc (default github.com)")
	home := fs.String("home", "", "Directory the .netrc file is written to (default $HOME)")
	ref := fs.String("ref", "", "Ref being released, e.g. refs/heads/main (default: checked-out branch)")
	remote := fs.String("remote", "", "Remote to push to (default: branch upstream)")
	dir := fs.StringP("dir", "C", "", "Repository working tree (default .)")
	buildTool := fs.String("build-tool", "", `Build tool: "maven" or "descriptor"`)
	descriptor := fs.String("descriptor", "", "Descriptor file edited in descriptor mode (default pom.xml)")
	projectName := fs.String("project-name", "", "Project name used in the tag in descriptor mode (default: read from descriptor)")
	bumpFiles := fs.StringArray("bump-file", nil, "Additional file whose version field is rewritten and committed. May be repeated.")
	clock := fs.String("clock", "", `Calendar source: "system" or "date"`)
	dryRun := fs.Bool("dry-run", false, "Print the next version and tag without modifying files or the repository")
	logDir := fs.String("log-dir", "", "Directory for a rotated JSON log file")
	logLevel := fs.Int("log-level", 0, "Log level: 2 error, 3 warn, 4 info, 5 debug")
	showVersion := fs.BoolP("version", "v", false, "Show CLI version and exit")
	help := fs.BoolP("help", "h", false, "Show help message and exit")
	fs.Usage = usage(fs)

	if err := fs.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		fs.Usage()
		os.Exit(1)
	}

	if *help {
		fs.Usage()
		os.Exit(0)
	}
	if *showVersion {
		fmt.Println("calversion CLI version", Version)
		os.Exit(0)
	}
	if fs.NArg() > 0 {
		fail(errors.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " ")))
	}

	var s *settings.Settings
	var err error
	if *configFile != "" {
		s, err = settings.LoadSettings(*configFile)
	} else {
		s, err = settings.Default()
	}
	if err != nil {
		fail(err)
	}
	if err := s.ApplyEnv(os.LookupEnv); err != nil {
		fail(err)
	}

	// Flags win over file and environment, but only when given.
	setString := func(name string, dst *string, v *string) {
		if fs.Changed(name) {
			*dst = *v
		}
	}
	setString("token", &s.Token, token)
	setString("author-name", &s.AuthorName, authorName)
	setString("author-email", &s.AuthorEmail, authorEmail)
	setString("repository", &s.Repository, repository)
	setString("host", &s.Host, host)
	setString("home", &s.Home, home)
	setString("ref", &s.Ref, ref)
	setString("remote", &s.Remote, remote)
	setString("dir", &s.Dir, dir)
	setString("build-tool", &s.BuildTool, buildTool)
	setString("descriptor", &s.Descriptor, descriptor)
	setString("project-name", &s.ProjectName, projectName)
	setString("clock", &s.Clock, clock)
	setString("log-dir", &s.LogDir, logDir)
	if fs.Changed("bump-file") {
		s.BumpFiles = *bumpFiles
	}
	if fs.Changed("dry-run") {
		s.DryRun = *dryRun
	}
	if fs.Changed("log-level") {
		s.LogLevel = *logLevel
	}

	if err := s.Validate(); err != nil {
		fail(err)
	}

	log := logger.New(s.LogDir, s.LogLevel)
	defer log.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := newPipeline(s, log)
	var meta calversion.VersionMeta
	if s.DryRun {
		meta, err = p.DryRun(ctx)
	} else {
		meta, err = p.Run(ctx)
	}
	if err != nil {
		fail(err)
	}

	if s.DryRun {
		fmt.Println("Dry run complete, no files were modified.")
	} else {
		fmt.Println("Version increment successful!")
	}
	printSummary(os.Stdout, meta, s.DryRun)
}

func newPipeline(s *settings.Settings, log *zap.SugaredLogger) *calversion.Pipeline {
	exec := calversion.NewLocalExecutor(log)

	var tool calversion.BuildTool
	switch s.BuildTool {
	case settings.BuildToolDescriptor:
		tool = calversion.NewDescriptorFile(s.Dir, s.Descriptor, s.ProjectName)
	default:
		tool = calversion.NewMaven(exec, s.Dir, s.MavenBin, s.HelpPlugin)
	}

	var clock calversion.Clock = calversion.SystemClock{}
	if s.Clock == settings.ClockDate {
		clock = calversion.DateClock{Exec: exec}
	}

	cfg := calversion.Config{
		Dir:         s.Dir,
		AuthorName:  s.AuthorName,
		AuthorEmail: s.AuthorEmail,
		Credentials: calversion.Credentials{
			Host:       s.Host,
			Repository: s.Repository,
			Token:      s.Token,
		},
		Home:      s.Home,
		Ref:       s.Ref,
		Remote:    s.Remote,
		BumpFiles: s.BumpFiles,
	}
	return calversion.NewPipeline(cfg, exec, tool, clock, log)
}

func printSummary(w io.Writer, meta calversion.VersionMeta, dryRun bool) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Field", "Value"})
	t.AppendRow(table.Row{"Branch", meta.Branch})
	t.AppendRow(table.Row{"Hotfix", meta.Hotfix})
	t.AppendRow(table.Row{"Old Version", meta.OldVersion})
	t.AppendRow(table.Row{"New Version", meta.NewVersion})
	t.AppendRow(table.Row{"Tag", meta.TagName})
	files := "Files updated"
	if dryRun {
		files = "Files that would be updated"
	}
	t.AppendRow(table.Row{files, strings.Join(meta.UpdatedFiles, "\n")})
	t.Render()
}

// fail reports err as the failure reason of the run and exits. Inside GitHub
// Actions the message is emitted as an error workflow command.
func fail(err error) {
	if os.Getenv("GITHUB_ACTIONS") == "true" {
		fmt.Fprintf(os.Stdout, "::error::%s\n", escapeData(err.Error()))
	} else {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(1)
}

// escapeData escapes a workflow command message the way the Actions toolkit does.
func escapeData(s string) string {
	r := strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A")
	return r.Replace(s)
}
