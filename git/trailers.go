package git

import (
	"regexp"
	"strings"
)

// coAuthorRegex matches a "Name <email>" trailer value.
var coAuthorRegex = regexp.MustCompile(`^\s*(.+?)\s*<([^>]+)>\s*$`)

// ParseTrailers parses the unfolded trailers block of a commit message into
// token/value pairs. Malformed lines are skipped.
func ParseTrailers(block string) []Trailer {
	var trailers []Trailer

	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		idx := strings.Index(line, ":")
		if idx <= 0 {
			continue
		}

		trailers = append(trailers, Trailer{
			Token: strings.TrimSpace(line[:idx]),
			Value: strings.TrimSpace(line[idx+1:]),
		})
	}

	return trailers
}

// CoAuthorsFromTrailers derives co-author identities from Co-Authored-By
// trailers. Token matching is case-insensitive; values that don't parse as
// "Name <email>" are ignored.
func CoAuthorsFromTrailers(trailers []Trailer) []CommitIdentity {
	var coAuthors []CommitIdentity

	for _, t := range trailers {
		if !strings.EqualFold(t.Token, "Co-Authored-By") {
			continue
		}

		matches := coAuthorRegex.FindStringSubmatch(t.Value)
		if matches == nil {
			continue
		}

		coAuthors = append(coAuthors, CommitIdentity{
			Name:  matches[1],
			Email: matches[2],
		})
	}

	return coAuthors
}

// FormatCoAuthorTrailers renders co-author identities back into trailer lines
// for appending to a commit message.
func FormatCoAuthorTrailers(coAuthors []CommitIdentity) []string {
	lines := make([]string, 0, len(coAuthors))
	for _, ca := range coAuthors {
		lines = append(lines, "Co-Authored-By: "+ca.Name+" <"+ca.Email+">")
	}
	return lines
}
