package calversion

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Git runs git subcommands in a single working tree.
type Git struct {
	exec Executor
	dir  string
}

// NewGit returns a Git bound to the repository checked out at dir.
func NewGit(exec Executor, dir string) *Git {
	return &Git{exec: exec, dir: dir}
}

func (g *Git) run(ctx context.Context, args ...string) (string, error) {
	res, err := g.exec.Run(ctx, "git", args, RunOpts{Dir: g.dir})
	if err != nil {
		return "", errors.Wrapf(err, "git %s", args[0])
	}
	return strings.TrimSpace(res.Stdout), nil
}

// Check verifies that git is available on the system. It does not depend on
// the working tree, so a bad directory surfaces in the first real command.
func (g *Git) Check(ctx context.Context) error {
	if _, err := g.exec.Run(ctx, "git", []string{"--version"}, RunOpts{}); err != nil {
		return errors.Wrap(err, "git is not available on the system")
	}
	return nil
}

// ConfigUser sets the commit identity for this repository only.
func (g *Git) ConfigUser(ctx context.Context, name, email string) error {
	if _, err := g.run(ctx, "config", "--local", "user.name", name); err != nil {
		return err
	}
	_, err := g.run(ctx, "config", "--local", "user.email", email)
	return err
}

// CurrentBranch returns the branch named by ref (e.g. refs/heads/main).
// With an empty ref the branch checked out in the working tree is used.
func (g *Git) CurrentBranch(ctx context.Context, ref string) (string, error) {
	if ref != "" {
		return BranchFromRef(ref), nil
	}
	branch, err := g.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	if branch == "HEAD" {
		return "", errors.New("working tree is in detached HEAD state and no ref was supplied")
	}
	return branch, nil
}

// BranchFromRef strips the refs/heads/ prefix from a fully qualified ref.
func BranchFromRef(ref string) string {
	return strings.TrimPrefix(ref, "refs/heads/")
}

// CheckTagName reports whether name can be used as refs/tags/<name>,
// following the rules of git check-ref-format.
func CheckTagName(name string) error {
	bad := func(reason string) error {
		return errors.Errorf("invalid tag name %q: %s", name, reason)
	}
	switch {
	case name == "" || name == "@":
		return bad("empty or \"@\"")
	case strings.HasPrefix(name, "-"):
		return bad("starts with \"-\"")
	case strings.HasSuffix(name, "/") || strings.HasSuffix(name, "."):
		return bad("ends with \"/\" or \".\"")
	case strings.Contains(name, "..") || strings.Contains(name, "@{") || strings.Contains(name, "//"):
		return bad("contains \"..\", \"@{\" or \"//\"")
	}
	for _, r := range name {
		if r < 0x20 || r == 0x7f || strings.ContainsRune(" ~^:?*[\\", r) {
			return bad(fmt.Sprintf("contains %q", r))
		}
	}
	for _, part := range strings.Split(name, "/") {
		if strings.HasPrefix(part, ".") || strings.HasSuffix(part, ".lock") {
			return bad("path component starts with \".\" or ends with \".lock\"")
		}
	}
	return nil
}

// Checkout switches the working tree to branch.
func (g *Git) Checkout(ctx context.Context, branch string) error {
	_, err := g.run(ctx, "checkout", branch)
	return err
}

// Add stages files.
func (g *Git) Add(ctx context.Context, files ...string) error {
	if len(files) == 0 {
		return errors.New("no files to stage")
	}
	_, err := g.run(ctx, append([]string{"add"}, files...)...)
	return err
}

// Commit records the staged changes with msg.
func (g *Git) Commit(ctx context.Context, msg string) error {
	_, err := g.run(ctx, "commit", "-m", msg)
	return err
}

// AnnotatedTag creates an annotated tag on HEAD.
func (g *Git) AnnotatedTag(ctx context.Context, name, msg string) error {
	_, err := g.run(ctx, "tag", "-a", name, "-m", msg)
	return err
}

// Push pushes the current branch together with the annotated tags reachable
// from it. An empty remote uses the branch's configured upstream.
func (g *Git) Push(ctx context.Context, remote string) error {
	args := []string{"push", "--follow-tags"}
	if remote != "" {
		args = append(args, remote, "HEAD")
	}
	_, err := g.run(ctx, args...)
	return err
}
