package note

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
)

// Meta holds parsed frontmatter fields.
type Meta struct {
	Title   string   `yaml:"title" json:"title,omitempty"`
	Tags    []string `yaml:"tags" json:"tags,omitempty"`
	Aliases []string `yaml:"aliases" json:"aliases,omitempty"`
	Created string   `yaml:"created" json:"created,omitempty"`
}

// Parsed holds the parsed content of a markdown note.
type Parsed struct {
	Meta Meta
	Body string
}

// ParseMeta parses a note's frontmatter and body. On a frontmatter parse
// error the full content is kept as the body so callers can choose between
// linting the error and ignoring it.
func ParseMeta(content string) (Parsed, error) {
	var meta Meta
	body, err := frontmatter.Parse(strings.NewReader(content), &meta)
	if err != nil {
		return Parsed{Body: content}, fmt.Errorf("parse frontmatter: %w", err)
	}
	return Parsed{Meta: meta, Body: string(body)}, nil
}

// Info describes a note: frontmatter metadata plus file facts.
type Info struct {
	Path       string   `json:"path"`
	Title      string   `json:"title,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Aliases    []string `json:"aliases,omitempty"`
	Created    string   `json:"created,omitempty"`
	SizeBytes  int64    `json:"size_bytes"`
	Modified   string   `json:"modified"`
	Suspicious bool     `json:"suspicious,omitempty"`
}

// Info reads a note and returns its metadata. Suspicious is set when the body
// trips the injection screen.
func (s *Store) Info(path string) (*Info, error) {
	abs, err := s.guard.Resolve(path)
	if err != nil {
		return nil, err
	}
	content, err := s.Read(path)
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat note: %w", err)
	}

	// A malformed frontmatter block is not an error here; the note is simply
	// reported without metadata.
	parsed, _ := ParseMeta(content)

	return &Info{
		Path:       s.guard.Rel(abs),
		Title:      parsed.Meta.Title,
		Tags:       parsed.Meta.Tags,
		Aliases:    parsed.Meta.Aliases,
		Created:    parsed.Meta.Created,
		SizeBytes:  fi.Size(),
		Modified:   fi.ModTime().UTC().Format(time.RFC3339),
		Suspicious: Suspicious(parsed.Body),
	}, nil
}
