// Package main implements the calversion CLI tool.
//
// calversion is the version-increment step of a release workflow. It reads
// the current version of a project from its build descriptor, derives the next
// calendar version, writes it back, commits the descriptor, creates an
// annotated tag and pushes branch and tag.
//
// Versions have the form year.month.patch where year is the two-digit year
// minus 18. On a release branch the patch is incremented, or restarts at 0
// with the current year and month once the calendar has moved on. On a branch
// whose name ends in "-hotfix" year, month and patch are kept and a hotfix
// counter is appended (7.3.2 → 7.3.2-HF0) or incremented (7.3.2-HF0 → 7.3.2-HF1).
// The tag and the commit message are both "<project name>-<new version>".
//
// Command Usage:
//
//	calversion [flags]
//
// Flags:
//
//	--config:        YAML settings file.
//	--token:         Token written to ~/.netrc for pushing (required).
//	--author-name:   Commit author name (required).
//	--author-email:  Commit author email (required).
//	--repository:    owner/repo; the owner is the .netrc login.
//	--ref:           Ref being released, e.g. refs/heads/main. Defaults to the checked-out branch.
//	--build-tool:    "maven" (default) or "descriptor" to edit the descriptor file directly.
//	--descriptor:    Descriptor edited in descriptor mode (default pom.xml).
//	--bump-file:     Additional file whose version field is rewritten and committed. May be repeated.
//	--clock:         "system" (default) or "date" to read the calendar from date(1).
//	--dry-run:       Print the next version and tag without changing anything.
//
// Inside GitHub Actions the inputs are read from INPUT_TOKEN, INPUT_AUTHORNAME
// and INPUT_AUTHOREMAIL, the repository and ref from GITHUB_REPOSITORY and
// GITHUB_REF, and failures are reported as ::error:: workflow commands.
//
// Examples:
//
//	# Release the current branch of a Maven project
//	calversion --token "$TOKEN" --author-name ci --author-email ci@example.com --repository acme/shop
//
//	# Preview the next version of a package.json project
//	calversion --build-tool descriptor --descriptor package.json --dry-run \
//	    --token x --author-name ci --author-email ci@example.com
package main
