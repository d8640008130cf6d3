// Package content serves the editorial pages of the site: blog posts and
// per-city landing pages. Content ships embedded in the binary as YAML.
package content

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gosimple/slug"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

//go:embed content.yaml
var embedded []byte

const maxDescriptionLength = 160

// Meta holds the SEO metadata of a page
type Meta struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Canonical   string `json:"canonical"`
}

// Post is a blog article
type Post struct {
	Slug        string    `yaml:"slug" json:"slug"`
	Title       string    `yaml:"title" json:"title"`
	Summary     string    `yaml:"summary" json:"summary"`
	Body        string    `yaml:"body" json:"-"`
	PublishedAt time.Time `yaml:"published_at" json:"published_at"`
	Tags        []string  `yaml:"tags" json:"tags"`

	HTML string `yaml:"-" json:"html,omitempty"`
	Meta Meta   `yaml:"-" json:"meta"`
}

// City is a landing page for one served city
type City struct {
	Slug        string  `yaml:"slug" json:"slug"`
	Name        string  `yaml:"name" json:"name"`
	State       string  `yaml:"state" json:"state"`
	Irradiation float64 `yaml:"irradiation_kwh_m2_day" json:"irradiation_kwh_m2_day"`
	Intro       string  `yaml:"intro" json:"-"`

	HTML string `yaml:"-" json:"html,omitempty"`
	Meta Meta   `yaml:"-" json:"meta"`
}

type document struct {
	SiteName string  `yaml:"site_name"`
	Posts    []*Post `yaml:"posts"`
	Cities   []*City `yaml:"cities"`
}

// Store is an immutable, indexed view of the site content
type Store struct {
	posts      []*Post
	postBySlug map[string]*Post
	cities     []*City
	cityBySlug map[string]*City
}

// Default loads the content embedded in the binary
func Default() (*Store, error) {
	return Load(embedded)
}

// Load parses YAML content, normalizes slugs, renders markdown and checks
// that every page has a title and a unique slug.
func Load(data []byte) (*Store, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse content: %w", err)
	}
	siteName := doc.SiteName
	if siteName == "" {
		siteName = "Solarsite"
	}

	s := &Store{
		postBySlug: make(map[string]*Post, len(doc.Posts)),
		cityBySlug: make(map[string]*City, len(doc.Cities)),
	}
	var result *multierror.Error

	for i, p := range doc.Posts {
		if p == nil || strings.TrimSpace(p.Title) == "" {
			result = multierror.Append(result, fmt.Errorf("post #%d: title is required", i+1))
			continue
		}
		if p.Slug == "" {
			p.Slug = p.Title
		}
		p.Slug = slug.Make(p.Slug)
		if _, dup := s.postBySlug[p.Slug]; dup {
			result = multierror.Append(result, fmt.Errorf("post %q: duplicate slug", p.Slug))
			continue
		}
		p.HTML = RenderMarkdown(p.Body)
		p.Meta = Meta{
			Title:       fmt.Sprintf("%s | %s", p.Title, siteName),
			Description: describe(p.Summary, p.Body),
			Canonical:   "/blog/" + p.Slug,
		}
		s.postBySlug[p.Slug] = p
		s.posts = append(s.posts, p)
	}

	for i, c := range doc.Cities {
		if c == nil || strings.TrimSpace(c.Name) == "" {
			result = multierror.Append(result, fmt.Errorf("city #%d: name is required", i+1))
			continue
		}
		if c.Slug == "" {
			c.Slug = c.Name + " " + c.State
		}
		c.Slug = slug.Make(c.Slug)
		if _, dup := s.cityBySlug[c.Slug]; dup {
			result = multierror.Append(result, fmt.Errorf("city %q: duplicate slug", c.Slug))
			continue
		}
		c.HTML = RenderMarkdown(c.Intro)
		c.Meta = Meta{
			Title:       fmt.Sprintf("Energia solar em %s - %s | %s", c.Name, c.State, siteName),
			Description: describe("", c.Intro),
			Canonical:   "/cidades/" + c.Slug,
		}
		s.cityBySlug[c.Slug] = c
		s.cities = append(s.cities, c)
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("invalid content: %w", err)
	}

	sort.SliceStable(s.posts, func(i, j int) bool {
		return s.posts[i].PublishedAt.After(s.posts[j].PublishedAt)
	})
	sort.SliceStable(s.cities, func(i, j int) bool {
		return s.cities[i].Name < s.cities[j].Name
	})
	return s, nil
}

// Posts returns all posts, newest first
func (s *Store) Posts() []*Post {
	return s.posts
}

// Post looks up a post; the slug is normalized first so "Energia Solar" finds "energia-solar"
func (s *Store) Post(postSlug string) (*Post, bool) {
	p, ok := s.postBySlug[slug.Make(postSlug)]
	return p, ok
}

// Cities returns all city pages ordered by name
func (s *Store) Cities() []*City {
	return s.cities
}

// City looks up a city page by slug
func (s *Store) City(citySlug string) (*City, bool) {
	c, ok := s.cityBySlug[slug.Make(citySlug)]
	return c, ok
}

// describe picks the summary, or the first paragraph of the markdown, cut to a search snippet
func describe(summary, markdown string) string {
	text := strings.TrimSpace(summary)
	if text == "" {
		para, _, _ := strings.Cut(strings.TrimSpace(markdown), "\n\n")
		text = strings.NewReplacer("#", "", "*", "", "_", "", "`", "", "\n", " ").Replace(para)
		text = strings.Join(strings.Fields(text), " ")
	}
	if utf8.RuneCountInString(text) <= maxDescriptionLength {
		return text
	}
	r := []rune(text)
	return strings.TrimSpace(string(r[:maxDescriptionLength-1])) + "…"
}
