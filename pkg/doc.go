// Package calversion implements calendar-based release versioning for
// repositories whose version lives in a build descriptor.
//
// A version has the form year.month.patch, where year is the two-digit
// calendar year minus EpochOffset. It provides functionalities for:
//   - Parsing versions and deriving the next one: release branches increment
//     the patch or restart it at 0 when the calendar month changes; branches
//     ending in "-hotfix" append or increment a -HF<n> counter instead.
//   - Reading and writing the version through Maven or directly in a
//     descriptor file (pom.xml, package.json, Cargo.toml, VERSION).
//   - Writing the .netrc credential used by git to push.
//   - Committing the new version with "<project>-<version>" as the commit
//     message, creating an annotated tag of the same name and pushing both.
//
// Usage Example:
//
//	exec := calversion.NewLocalExecutor(log)
//	p := calversion.NewPipeline(cfg, exec,
//	    calversion.NewMaven(exec, cfg.Dir, "", ""),
//	    calversion.SystemClock{}, log)
//	meta, err := p.Run(ctx)
//	if err != nil {
//	    log.Fatalf("version increment failed: %v", err)
//	}
//	log.Infof("released %s", meta.TagName)
package calversion
