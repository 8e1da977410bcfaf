// Package commits turns a project's repository list into commit history
// fetched from the hosting provider's API.
package commits

import (
	"fmt"
	"regexp"
)

// Only GitHub is recognised. Other providers would need their own pattern
// and endpoint template here.
var githubRepo = regexp.MustCompile(`^(?:https?://)?github\.com/(\S+?)/(\S+?)/?$`)

const githubCommitsEndpoint = "https://api.github.com/repos/%s/%s/commits?per_page=100"

// Match maps a free-text repository URL to its commit API endpoint.
// Unsupported URLs report false.
func Match(url string) (string, bool) {
	m := githubRepo.FindStringSubmatch(url)
	if m == nil {
		return "", false
	}
	return fmt.Sprintf(githubCommitsEndpoint, m[1], m[2]), true
}

// Endpoints applies Match to every entry and keeps the matches in order.
func Endpoints(repos []string) []string {
	endpoints := make([]string, 0, len(repos))
	for _, repo := range repos {
		if endpoint, ok := Match(repo); ok {
			endpoints = append(endpoints, endpoint)
		}
	}
	return endpoints
}
