// Package gitctx discovers which files to review by shelling out to git.
//
// [ChangedFiles] compares the current branch against origin/<base> and falls
// back to uncommitted changes. [StagedFiles] serves pre-commit use and
// [TrackedFiles] lists the whole repository. [FilterExtensions] and
// [Exclude] narrow any of these lists.
package gitctx
