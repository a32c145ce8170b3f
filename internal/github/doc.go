// Package github is a minimal GitHub REST client for CI use.
//
// [PRContextFromEnv] reads the pull request context from the GitHub Actions
// environment. [Client] lists the files a pull request touches and posts
// the review as a conversation comment. Authentication uses GITHUB_TOKEN.
package github
