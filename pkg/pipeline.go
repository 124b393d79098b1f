package calversion

import (
	"context"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Config holds the inputs of one release increment.
type Config struct {
	// Dir is the repository working tree.
	Dir         string
	AuthorName  string
	AuthorEmail string
	Credentials Credentials
	// Home is where the credential file is written.
	Home string
	// Ref is the ref that triggered the run, e.g. refs/heads/main. When empty
	// the checked-out branch is used.
	Ref string
	// Remote to push to; empty pushes to the branch's upstream.
	Remote string
	// BumpFiles are extra files whose version field is rewritten and committed.
	BumpFiles []string
}

// VersionMeta holds metadata about the version increment.
type VersionMeta struct {
	Branch       string
	Hotfix       bool
	OldVersion   string
	NewVersion   string
	TagName      string
	UpdatedFiles []string // paths staged in the release commit
	Steps        []string // steps that completed, in order
}

// Pipeline performs a release increment as an ordered list of named steps.
// The first failing step aborts the run; earlier side effects are kept.
type Pipeline struct {
	cfg   Config
	git   *Git
	tool  BuildTool
	clock Clock
	log   *zap.SugaredLogger
}

// NewPipeline wires a pipeline for the repository at cfg.Dir.
func NewPipeline(cfg Config, exec Executor, tool BuildTool, clock Clock, log *zap.SugaredLogger) *Pipeline {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Pipeline{
		cfg:   cfg,
		git:   NewGit(exec, cfg.Dir),
		tool:  tool,
		clock: clock,
		log:   log,
	}
}

type step struct {
	name string
	run  func(ctx context.Context, st *runState) error
}

type runState struct {
	meta     VersionMeta
	current  Version
	calendar Calendar
}

// Run configures git, writes credentials, derives the next version, commits
// it to the descriptor, tags the commit and pushes branch and tag.
func (p *Pipeline) Run(ctx context.Context) (VersionMeta, error) {
	return p.execute(ctx, []step{
		{"check-git", p.checkGit},
		{"configure-git", p.configureGit},
		{"write-credentials", p.writeCredentials},
		{"resolve-branch", p.resolveBranch},
		{"read-version", p.readVersion},
		{"read-calendar", p.readCalendar},
		{"derive", p.derive},
		{"checkout", p.checkout},
		{"set-version", p.setVersion},
		{"resolve-tag", p.resolveTag},
		{"commit", p.commit},
		{"tag", p.tag},
		{"push", p.push},
	})
}

// DryRun derives the next version and tag name without writing any file or
// running any mutating git command.
func (p *Pipeline) DryRun(ctx context.Context) (VersionMeta, error) {
	return p.execute(ctx, []step{
		{"resolve-branch", p.resolveBranch},
		{"read-version", p.readVersion},
		{"read-calendar", p.readCalendar},
		{"derive", p.derive},
		{"resolve-tag", p.previewTag},
	})
}

func (p *Pipeline) execute(ctx context.Context, steps []step) (VersionMeta, error) {
	st := &runState{}
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return st.meta, errors.Wrap(err, s.name)
		}
		p.log.Debugw("step", "name", s.name)
		if err := s.run(ctx, st); err != nil {
			return st.meta, errors.Wrap(err, s.name)
		}
		st.meta.Steps = append(st.meta.Steps, s.name)
	}
	return st.meta, nil
}

func (p *Pipeline) checkGit(ctx context.Context, _ *runState) error {
	return p.git.Check(ctx)
}

func (p *Pipeline) configureGit(ctx context.Context, _ *runState) error {
	p.log.Info("Configuring git...")
	return p.git.ConfigUser(ctx, p.cfg.AuthorName, p.cfg.AuthorEmail)
}

func (p *Pipeline) writeCredentials(_ context.Context, _ *runState) error {
	path, err := WriteNetrc(p.cfg.Home, p.cfg.Credentials)
	if err != nil {
		return err
	}
	p.log.Debugw("credentials written", "path", path, "machine", p.cfg.Credentials.Host)
	return nil
}

func (p *Pipeline) resolveBranch(ctx context.Context, st *runState) error {
	branch, err := p.git.CurrentBranch(ctx, p.cfg.Ref)
	if err != nil {
		return err
	}
	st.meta.Branch = branch
	st.meta.Hotfix = IsHotfixBranch(branch)
	p.log.Infow("resolved branch", "CURRENT_BRANCH", branch, "hotfix", st.meta.Hotfix)
	return nil
}

func (p *Pipeline) readVersion(ctx context.Context, st *runState) error {
	raw, err := p.tool.Evaluate(ctx, ExprProjectVersion)
	if err != nil {
		return err
	}
	st.meta.OldVersion = raw
	v, err := ParseVersion(raw)
	if err != nil {
		return err
	}
	st.current = v
	p.log.Infow("read version",
		"CURRENT_VERSION", raw,
		"CURRENT_VERSION_YEAR", v.Year,
		"CURRENT_VERSION_MONTH", v.Month,
		"CURRENT_VERSION_PATCH", v.Patch.String(),
	)
	return nil
}

func (p *Pipeline) readCalendar(ctx context.Context, st *runState) error {
	cal, err := p.clock.Calendar(ctx)
	if err != nil {
		return err
	}
	st.calendar = cal
	p.log.Infow("read calendar", "CURRENT_MONTH", cal.Month, "CURRENT_YEAR", cal.Year)
	return nil
}

func (p *Pipeline) derive(_ context.Context, st *runState) error {
	p.log.Info("Incrementing version...")
	next, err := Derive(st.current, st.meta.Branch, st.calendar)
	if err != nil {
		return err
	}
	if !st.meta.Hotfix && sortsBefore(next, st.current) {
		p.log.Warnw("derived version sorts before the current version; is the clock behind?",
			"current", st.current.String(), "next", next.String())
	}
	st.meta.NewVersion = next.String()
	p.log.Infow("derived version", "NEW_VERSION", st.meta.NewVersion)
	return nil
}

func (p *Pipeline) checkout(ctx context.Context, st *runState) error {
	return p.git.Checkout(ctx, st.meta.Branch)
}

func (p *Pipeline) setVersion(ctx context.Context, st *runState) error {
	p.log.Info("committing new version")
	if err := p.tool.SetVersion(ctx, st.meta.NewVersion); err != nil {
		return err
	}
	files := []string{p.tool.Descriptor()}
	for _, f := range p.cfg.BumpFiles {
		ok, err := BumpVersionInFile(p.repoPath(f), st.meta.NewVersion)
		if err != nil {
			return errors.Wrapf(err, "bump %s", f)
		}
		if !ok {
			p.log.Warnw("no version field found, file left unchanged", "file", f)
			continue
		}
		files = append(files, f)
	}
	st.meta.UpdatedFiles = lo.Uniq(files)
	return nil
}

func (p *Pipeline) resolveTag(ctx context.Context, st *runState) error {
	name, err := p.tool.Evaluate(ctx, ExprProjectName)
	if err != nil {
		return err
	}
	written, err := p.tool.Evaluate(ctx, ExprProjectVersion)
	if err != nil {
		return err
	}
	if written != st.meta.NewVersion {
		return errors.Errorf("build metadata reports version %s after update, expected %s", written, st.meta.NewVersion)
	}
	tag := TagName(name, written)
	if err := CheckTagName(tag); err != nil {
		return err
	}
	st.meta.TagName = tag
	return nil
}

func (p *Pipeline) previewTag(ctx context.Context, st *runState) error {
	name, err := p.tool.Evaluate(ctx, ExprProjectName)
	if err != nil {
		return err
	}
	tag := TagName(name, st.meta.NewVersion)
	if err := CheckTagName(tag); err != nil {
		return err
	}
	st.meta.TagName = tag

	files := []string{p.tool.Descriptor()}
	for _, f := range p.cfg.BumpFiles {
		if _, err := FindMainVersionInFile(p.repoPath(f)); err != nil {
			if errors.Is(err, ErrNoVersionField) {
				p.log.Warnw("no version field found, file would be left unchanged", "file", f)
				continue
			}
			return errors.Wrapf(err, "bump %s", f)
		}
		files = append(files, f)
	}
	st.meta.UpdatedFiles = lo.Uniq(files)
	return nil
}

func (p *Pipeline) commit(ctx context.Context, st *runState) error {
	if err := p.git.Add(ctx, st.meta.UpdatedFiles...); err != nil {
		return err
	}
	return p.git.Commit(ctx, st.meta.TagName)
}

func (p *Pipeline) tag(ctx context.Context, st *runState) error {
	p.log.Infof("tagging version %s", st.meta.TagName)
	return p.git.AnnotatedTag(ctx, st.meta.TagName, st.meta.TagName)
}

func (p *Pipeline) push(ctx context.Context, _ *runState) error {
	if err := p.git.Push(ctx, p.cfg.Remote); err != nil {
		return err
	}
	p.log.Info("...done")
	return nil
}

func (p *Pipeline) repoPath(f string) string {
	if p.cfg.Dir == "" || filepath.IsAbs(f) {
		return f
	}
	return filepath.Join(p.cfg.Dir, f)
}
