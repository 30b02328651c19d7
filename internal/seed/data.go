package seed

import (
	"bytes"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed sample.yaml
var sampleYAML []byte

// Data is a seed file. Cross references (a post's category and series, a
// project's technologies) are by human-readable name.
type Data struct {
	Profile      *Profile     `yaml:"profile"`
	Categories   []Category   `yaml:"categories"`
	Technologies []Technology `yaml:"technologies"`
	Series       []Series     `yaml:"series"`
	Posts        []Post       `yaml:"posts"`
	Projects     []Project    `yaml:"projects"`
	TechStack    []TechItem   `yaml:"tech_stack"`
	SocialLinks  []SocialLink `yaml:"social_links"`
	Guestbook    []Guestbook  `yaml:"guestbook"`
}

type Profile struct {
	Name             string `yaml:"name"`
	Headline         string `yaml:"headline"`
	Bio              string `yaml:"bio"`
	Email            string `yaml:"email"`
	Location         string `yaml:"location"`
	AvatarURL        string `yaml:"avatar_url"`
	ResumeURL        string `yaml:"resume_url"`
	AvailableForHire bool   `yaml:"available_for_hire"`
}

type Category struct {
	Name        string `yaml:"name"`
	Slug        string `yaml:"slug"`
	Description string `yaml:"description"`
}

type Technology struct {
	Name string `yaml:"name"`
	Icon string `yaml:"icon"`
	URL  string `yaml:"url"`
}

type Series struct {
	Title       string `yaml:"title"`
	Slug        string `yaml:"slug"`
	Description string `yaml:"description"`
	Completed   bool   `yaml:"completed"`
}

type Post struct {
	Title          string   `yaml:"title"`
	Slug           string   `yaml:"slug"`
	Excerpt        string   `yaml:"excerpt"`
	Content        string   `yaml:"content"`
	CoverImage     string   `yaml:"cover_image"`
	Category       string   `yaml:"category"` // required
	Series         string   `yaml:"series"`   // optional
	SeriesPosition *int     `yaml:"series_position"`
	Tags           []string `yaml:"tags"`
	Published      bool     `yaml:"published"`
	PublishedAt    string   `yaml:"published_at"`
	ReadingMinutes int      `yaml:"reading_minutes"`
}

type Project struct {
	Title        string   `yaml:"title"`
	Slug         string   `yaml:"slug"`
	Summary      string   `yaml:"summary"`
	Description  string   `yaml:"description"`
	ImageURL     string   `yaml:"image_url"`
	RepoURL      string   `yaml:"repo_url"`
	LiveURL      string   `yaml:"live_url"`
	Technologies []string `yaml:"technologies"`
	Featured     bool     `yaml:"featured"`
	Priority     *int     `yaml:"priority"`
}

type TechItem struct {
	Name        string  `yaml:"name"`
	Category    string  `yaml:"category"`
	Icon        string  `yaml:"icon"`
	Proficiency float64 `yaml:"proficiency"`
	Priority    *int    `yaml:"priority"`
}

type SocialLink struct {
	Platform string `yaml:"platform"`
	URL      string `yaml:"url"`
	Icon     string `yaml:"icon"`
	Priority *int   `yaml:"priority"`
}

type Guestbook struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Message  string `yaml:"message"`
	Approved bool   `yaml:"approved"`
}

// Parse decodes a seed file. Unknown keys are rejected.
func Parse(b []byte) (*Data, error) {
	var d Data
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("parse seed data: %w", err)
	}
	return &d, nil
}

// Sample returns the built-in sample content.
func Sample() (*Data, error) {
	return Parse(sampleYAML)
}
