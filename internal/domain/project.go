package domain

import (
	"encoding/json"
	"fmt"
)

type Project struct {
	ID      int64    `json:"id"`
	Name    string   `json:"name"`
	OwnerID int64    `json:"owner_id"`
	Active  bool     `json:"active"`
	Repos   []string `json:"repos"`
}

// ProjectDraft is a create/edit submission. Repos holds the encoded
// (JSON array) repository list exactly as the client sent it.
type ProjectDraft struct {
	Name    string
	OwnerID int64
	Active  bool
	Repos   string
}

// ProjectDetail is a project together with its joined members.
type ProjectDetail struct {
	*Project
	Members []*User `json:"members"`
}

// DecodeRepos parses an encoded repository list. An empty input is an
// empty list.
func DecodeRepos(encoded string) ([]string, error) {
	if encoded == "" {
		return []string{}, nil
	}

	var repos []string
	if err := json.Unmarshal([]byte(encoded), &repos); err != nil {
		return nil, fmt.Errorf("%w: repos must be a json array of strings: %v", ErrValidation, err)
	}
	if repos == nil {
		repos = []string{}
	}
	return repos, nil
}

// EncodeRepos is the storage form of a repository list.
func EncodeRepos(repos []string) string {
	if repos == nil {
		repos = []string{}
	}
	// marshalling a []string cannot fail
	data, _ := json.Marshal(repos)
	return string(data)
}

// NormalizeRepos decodes an encoded list and drops empty entries.
// Duplicates and unsupported URLs are kept verbatim.
func NormalizeRepos(encoded string) ([]string, error) {
	repos, err := DecodeRepos(encoded)
	if err != nil {
		return nil, err
	}

	normalized := make([]string, 0, len(repos))
	for _, repo := range repos {
		if repo == "" {
			continue
		}
		normalized = append(normalized, repo)
	}
	return normalized, nil
}
