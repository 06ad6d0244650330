package markdown

import (
	"bytes"
	"fmt"
	"time"

	"github.com/adrg/frontmatter"

	"github.com/goliatone/go-blogfront/pkg/interfaces"
)

// ParseFrontMatter extracts metadata and Markdown body content from the
// provided source bytes. Sources without front matter return an empty
// FrontMatter and the full body.
func ParseFrontMatter(source []byte) (interfaces.FrontMatter, []byte, error) {
	var meta frontMatterEnvelope

	body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil {
		return interfaces.FrontMatter{}, nil, fmt.Errorf("parse frontmatter: %w", err)
	}

	return envelopeToFrontMatter(meta), body, nil
}

// BuildDocument assembles an interfaces.Document from the supplied file path,
// raw content and modification time. BodyHTML is left empty so callers can
// render lazily.
func BuildDocument(path string, source []byte, modified time.Time) (*interfaces.Document, error) {
	fm, body, err := ParseFrontMatter(source)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if fm.Slug == "" && fm.Title != "" {
		fm.Slug = HeadingID(fm.Title)
	}

	return &interfaces.Document{
		FilePath:     path,
		FrontMatter:  fm,
		Body:         body,
		LastModified: modified,
	}, nil
}

type frontMatterEnvelope struct {
	Title    string         `yaml:"title"`
	Slug     string         `yaml:"slug"`
	Summary  string         `yaml:"summary"`
	Category string         `yaml:"category"`
	Tags     []string       `yaml:"tags"`
	Author   string         `yaml:"author"`
	Cover    string         `yaml:"cover"`
	Date     time.Time      `yaml:"date"`
	Draft    bool           `yaml:"draft"`
	Custom   map[string]any `yaml:",inline"`
}

func envelopeToFrontMatter(env frontMatterEnvelope) interfaces.FrontMatter {
	raw := make(map[string]any, len(env.Custom)+9)
	for key, value := range env.Custom {
		raw[key] = value
	}

	setString := func(key, value string) {
		if value != "" {
			raw[key] = value
		}
	}
	setString("title", env.Title)
	setString("slug", env.Slug)
	setString("summary", env.Summary)
	setString("category", env.Category)
	setString("author", env.Author)
	setString("cover", env.Cover)
	if len(env.Tags) > 0 {
		raw["tags"] = append([]string(nil), env.Tags...)
	}
	if !env.Date.IsZero() {
		raw["date"] = env.Date
	}
	raw["draft"] = env.Draft

	return interfaces.FrontMatter{
		Title:    env.Title,
		Slug:     env.Slug,
		Summary:  env.Summary,
		Category: env.Category,
		Tags:     append([]string(nil), env.Tags...),
		Author:   env.Author,
		Cover:    env.Cover,
		Date:     env.Date,
		Draft:    env.Draft,
		Custom:   cloneMap(env.Custom),
		Raw:      raw,
	}
}

func cloneMap(input map[string]any) map[string]any {
	out := make(map[string]any, len(input))
	for key, value := range input {
		out[key] = value
	}
	return out
}
