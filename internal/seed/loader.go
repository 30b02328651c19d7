// Package seed loads sample content into a provisioned backend. It is a
// development convenience: cross references are resolved by name on a
// best-effort basis and lookup misses never fail the load.
package seed

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"portfolio-backend/internal/baas"
	"portfolio-backend/internal/schema"
)

// idNamespace scopes deterministic seed document ids.
var idNamespace = uuid.MustParse("6f1c9c52-5a43-4d0e-9d0b-2c8f4f2b7a61")

// DocumentID derives a stable document id from a record's natural key, so
// seeding twice targets the same documents.
func DocumentID(collectionID, naturalKey string) string {
	return uuid.NewSHA1(idNamespace, []byte(collectionID+"/"+naturalKey)).String()
}

// Lookup maps a human-readable name to a document id.
type Lookup map[string]string

func (l Lookup) Resolve(name string) (string, bool) {
	id, ok := l[name]
	return id, ok
}

// Result counts what a load did.
type Result struct {
	Created  int
	Existing int
	Skipped  int
	Warnings []string
}

type Loader struct {
	docs baas.Documents
	log  *zap.Logger
}

type Option func(*Loader)

func WithLogger(log *zap.Logger) Option {
	return func(l *Loader) {
		if log != nil {
			l.log = log
		}
	}
}

func NewLoader(docs baas.Documents, opts ...Option) *Loader {
	l := &Loader{docs: docs, log: zap.NewNop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load inserts data. Referenced collections go first; their lookups are
// then built from what the backend holds, so records created earlier by
// hand resolve too. Re-running Load reuses existing documents.
func (l *Loader) Load(ctx context.Context, data *Data) (*Result, error) {
	res := &Result{}

	for _, c := range data.Categories {
		if err := l.put(ctx, res, schema.CollectionCategories, c.Slug, map[string]any{
			"name":        c.Name,
			"slug":        c.Slug,
			"description": c.Description,
		}); err != nil {
			return res, err
		}
	}
	for _, t := range data.Technologies {
		if err := l.put(ctx, res, schema.CollectionTechnologies, t.Name, map[string]any{
			"name": t.Name,
			"icon": t.Icon,
			"url":  t.URL,
		}); err != nil {
			return res, err
		}
	}
	for _, s := range data.Series {
		if err := l.put(ctx, res, schema.CollectionSeries, s.Slug, map[string]any{
			"title":       s.Title,
			"slug":        s.Slug,
			"description": s.Description,
			"completed":   s.Completed,
		}); err != nil {
			return res, err
		}
	}

	categories, err := l.lookup(ctx, schema.CollectionCategories, "name")
	if err != nil {
		return res, err
	}
	technologies, err := l.lookup(ctx, schema.CollectionTechnologies, "name")
	if err != nil {
		return res, err
	}
	series, err := l.lookup(ctx, schema.CollectionSeries, "title")
	if err != nil {
		return res, err
	}

	if err := l.loadPosts(ctx, res, data.Posts, categories, series); err != nil {
		return res, err
	}

	for i, p := range data.Projects {
		techIDs := make([]string, 0, len(p.Technologies))
		for _, name := range p.Technologies {
			id, ok := technologies.Resolve(name)
			if !ok {
				l.warn(res, "unknown technology, storing the name", zap.String("project", p.Slug), zap.String("technology", name))
				id = name
			}
			techIDs = append(techIDs, id)
		}
		if err := l.put(ctx, res, schema.CollectionProjects, p.Slug, map[string]any{
			"title":        p.Title,
			"slug":         p.Slug,
			"summary":      p.Summary,
			"description":  p.Description,
			"image_url":    p.ImageURL,
			"repo_url":     p.RepoURL,
			"live_url":     p.LiveURL,
			"technologies": techIDs,
			"featured":     p.Featured,
			"priority":     positionOr(p.Priority, i+1),
		}); err != nil {
			return res, err
		}
	}

	for i, t := range data.TechStack {
		if err := l.put(ctx, res, schema.CollectionTechStack, t.Name, map[string]any{
			"name":        t.Name,
			"category":    t.Category,
			"icon":        t.Icon,
			"proficiency": t.Proficiency,
			"priority":    positionOr(t.Priority, i+1),
		}); err != nil {
			return res, err
		}
	}

	for i, s := range data.SocialLinks {
		if err := l.put(ctx, res, schema.CollectionSocialLinks, s.Platform, map[string]any{
			"platform": s.Platform,
			"url":      s.URL,
			"icon":     s.Icon,
			"priority": positionOr(s.Priority, i+1),
		}); err != nil {
			return res, err
		}
	}

	if p := data.Profile; p != nil {
		if err := l.put(ctx, res, schema.CollectionProfile, "profile", map[string]any{
			"name":               p.Name,
			"headline":           p.Headline,
			"bio":                p.Bio,
			"email":              optional(p.Email),
			"location":           p.Location,
			"avatar_url":         p.AvatarURL,
			"resume_url":         p.ResumeURL,
			"available_for_hire": p.AvailableForHire,
		}); err != nil {
			return res, err
		}
	}

	for _, g := range data.Guestbook {
		if err := l.put(ctx, res, schema.CollectionGuestbook, g.Name+"\n"+g.Message, map[string]any{
			"name":     g.Name,
			"email":    optional(g.Email),
			"message":  g.Message,
			"approved": g.Approved,
		}); err != nil {
			return res, err
		}
	}

	l.log.Info("seed complete",
		zap.Int("created", res.Created),
		zap.Int("existing", res.Existing),
		zap.Int("skipped", res.Skipped),
		zap.Int("warnings", len(res.Warnings)),
	)
	return res, nil
}

// loadPosts applies the post reference policies: the category is required
// and falls back to the raw name when unknown; the series is optional and
// a post naming an unknown series is skipped.
func (l *Loader) loadPosts(ctx context.Context, res *Result, posts []Post, categories, series Lookup) error {
	nextInSeries := make(map[string]int)
	for _, p := range posts {
		categoryID, ok := categories.Resolve(p.Category)
		if !ok {
			// TODO: decide with product whether an unknown category should
			// reject the post instead of storing the name as its id.
			l.warn(res, "unknown category, storing the name", zap.String("post", p.Slug), zap.String("category", p.Category))
			categoryID = p.Category
		}

		doc := map[string]any{
			"title":           p.Title,
			"slug":            p.Slug,
			"excerpt":         p.Excerpt,
			"content":         p.Content,
			"cover_image":     p.CoverImage,
			"category_id":     categoryID,
			"tags":            p.Tags,
			"published":       p.Published,
			"published_at":    p.PublishedAt,
			"reading_minutes": p.ReadingMinutes,
		}

		if p.Series != "" {
			seriesID, ok := series.Resolve(p.Series)
			if !ok {
				l.warn(res, "unknown series, skipping post", zap.String("post", p.Slug), zap.String("series", p.Series))
				res.Skipped++
				continue
			}
			nextInSeries[seriesID]++
			doc["series_id"] = seriesID
			doc["series_position"] = positionOr(p.SeriesPosition, nextInSeries[seriesID])
		}

		if err := l.put(ctx, res, schema.CollectionPosts, p.Slug, doc); err != nil {
			return err
		}
	}
	return nil
}

// put creates a document with a deterministic id. An existing document is
// left as it is.
func (l *Loader) put(ctx context.Context, res *Result, collectionID, naturalKey string, data map[string]any) error {
	id := DocumentID(collectionID, naturalKey)
	_, err := l.docs.CreateDocument(ctx, collectionID, id, data)
	switch {
	case err == nil:
		res.Created++
	case baas.IsConflict(err):
		res.Existing++
		l.log.Debug("document already exists", zap.String("collection", collectionID), zap.String("id", id))
	default:
		return fmt.Errorf("seed %s %q: %w", collectionID, naturalKey, err)
	}
	return nil
}

// lookupPageSize bounds one listing while building a lookup.
const lookupPageSize = 100

func (l *Loader) lookup(ctx context.Context, collectionID, nameField string) (Lookup, error) {
	docs, err := baas.ListAll(ctx, l.docs, collectionID, lookupPageSize, baas.OrderAsc(schema.FieldCreatedAt))
	if err != nil {
		return nil, fmt.Errorf("build %s lookup: %w", collectionID, err)
	}
	out := make(Lookup, len(docs))
	for _, d := range docs {
		if name, ok := d.Data[nameField].(string); ok {
			if _, dup := out[name]; !dup {
				out[name] = d.ID
			}
		}
	}
	return out, nil
}

func (l *Loader) warn(res *Result, msg string, fields ...zap.Field) {
	l.log.Warn(msg, fields...)
	res.Warnings = append(res.Warnings, msg)
}

func positionOr(p *int, fallback int) int {
	if p != nil {
		return *p
	}
	return fallback
}

// optional maps an empty string to nil so optional typed attributes such
// as emails are left unset.
func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}
