package content

import "time"

// Meta carries the system fields every document has. Collection fills it
// from the backend; it is never written back.
type Meta struct {
	ID        string    `json:"$id" mapstructure:"-"`
	CreatedAt time.Time `json:"$createdAt" mapstructure:"-"`
	UpdatedAt time.Time `json:"$updatedAt" mapstructure:"-"`
}

func (m *Meta) setMeta(v Meta) { *m = v }

type Profile struct {
	Meta             `mapstructure:"-"`
	Name             string `json:"name" mapstructure:"name"`
	Headline         string `json:"headline" mapstructure:"headline"`
	Bio              string `json:"bio" mapstructure:"bio"`
	Email            string `json:"email,omitempty" mapstructure:"email,omitempty"`
	Location         string `json:"location" mapstructure:"location"`
	AvatarURL        string `json:"avatar_url" mapstructure:"avatar_url"`
	ResumeURL        string `json:"resume_url" mapstructure:"resume_url"`
	AvailableForHire bool   `json:"available_for_hire" mapstructure:"available_for_hire"`
}

type Category struct {
	Meta        `mapstructure:"-"`
	Name        string `json:"name" mapstructure:"name"`
	Slug        string `json:"slug" mapstructure:"slug"`
	Description string `json:"description" mapstructure:"description"`
}

type Technology struct {
	Meta `mapstructure:"-"`
	Name string `json:"name" mapstructure:"name"`
	Icon string `json:"icon" mapstructure:"icon"`
	URL  string `json:"url" mapstructure:"url"`
}

type Series struct {
	Meta        `mapstructure:"-"`
	Title       string `json:"title" mapstructure:"title"`
	Slug        string `json:"slug" mapstructure:"slug"`
	Description string `json:"description" mapstructure:"description"`
	Completed   bool   `json:"completed" mapstructure:"completed"`
}

// BlogPost references its category and series by document id.
// SeriesPosition orders posts within a series.
type BlogPost struct {
	Meta           `mapstructure:"-"`
	Title          string   `json:"title" mapstructure:"title"`
	Slug           string   `json:"slug" mapstructure:"slug"`
	Excerpt        string   `json:"excerpt" mapstructure:"excerpt"`
	Content        string   `json:"content" mapstructure:"content"`
	CoverImage     string   `json:"cover_image" mapstructure:"cover_image"`
	CategoryID     string   `json:"category_id" mapstructure:"category_id"`
	SeriesID       string   `json:"series_id,omitempty" mapstructure:"series_id,omitempty"`
	SeriesPosition int      `json:"series_position" mapstructure:"series_position"`
	Tags           []string `json:"tags" mapstructure:"tags"`
	Published      bool     `json:"published" mapstructure:"published"`
	PublishedAt    string   `json:"published_at,omitempty" mapstructure:"published_at,omitempty"`
	ReadingMinutes int      `json:"reading_minutes" mapstructure:"reading_minutes"`
}

type Project struct {
	Meta         `mapstructure:"-"`
	Title        string   `json:"title" mapstructure:"title"`
	Slug         string   `json:"slug" mapstructure:"slug"`
	Summary      string   `json:"summary" mapstructure:"summary"`
	Description  string   `json:"description" mapstructure:"description"`
	ImageURL     string   `json:"image_url" mapstructure:"image_url"`
	RepoURL      string   `json:"repo_url" mapstructure:"repo_url"`
	LiveURL      string   `json:"live_url" mapstructure:"live_url"`
	Technologies []string `json:"technologies" mapstructure:"technologies"`
	Featured     bool     `json:"featured" mapstructure:"featured"`
	Priority     int      `json:"priority" mapstructure:"priority"`
}

type TechStackItem struct {
	Meta        `mapstructure:"-"`
	Name        string  `json:"name" mapstructure:"name"`
	Category    string  `json:"category" mapstructure:"category"`
	Icon        string  `json:"icon" mapstructure:"icon"`
	Proficiency float64 `json:"proficiency" mapstructure:"proficiency"`
	Priority    int     `json:"priority" mapstructure:"priority"`
}

type SocialLink struct {
	Meta     `mapstructure:"-"`
	Platform string `json:"platform" mapstructure:"platform"`
	URL      string `json:"url" mapstructure:"url"`
	Icon     string `json:"icon" mapstructure:"icon"`
	Priority int    `json:"priority" mapstructure:"priority"`
}

type GuestbookEntry struct {
	Meta     `mapstructure:"-"`
	Name     string `json:"name" mapstructure:"name"`
	Email    string `json:"email,omitempty" mapstructure:"email,omitempty"`
	Message  string `json:"message" mapstructure:"message"`
	Approved bool   `json:"approved" mapstructure:"approved"`
}

// PublicGuestbookEntry is the unauthenticated view of an entry. The
// signer's email is only visible to the operator.
type PublicGuestbookEntry struct {
	ID        string    `json:"$id"`
	CreatedAt time.Time `json:"$createdAt"`
	Name      string    `json:"name"`
	Message   string    `json:"message"`
	Approved  bool      `json:"approved"`
}

func (e GuestbookEntry) Public() PublicGuestbookEntry {
	return PublicGuestbookEntry{
		ID:        e.ID,
		CreatedAt: e.CreatedAt,
		Name:      e.Name,
		Message:   e.Message,
		Approved:  e.Approved,
	}
}

type VisitorCounter struct {
	Meta  `mapstructure:"-"`
	Count int64 `json:"count" mapstructure:"count"`
}
