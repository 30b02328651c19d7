// Package content exposes the portfolio's collections as typed records and
// implements the site's read paths, the guestbook, the visitor counter and
// manual reordering.
package content

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"portfolio-backend/internal/baas"
	"portfolio-backend/internal/ordering"
	"portfolio-backend/internal/schema"
)

var (
	ErrNotOrdered = errors.New("content: collection is not manually ordered")
	ErrUngrouped  = errors.New("content: document is not in an ordering group")
)

// VisitorCounterID is the id of the single visitors document.
const VisitorCounterID = "site"

// groupPageSize bounds one listing while loading an ordering group.
const groupPageSize = 100

type Service struct {
	docs     baas.Documents
	registry *schema.Registry
	log      *zap.Logger

	Profiles     *Collection[Profile, *Profile]
	Categories   *Collection[Category, *Category]
	Technologies *Collection[Technology, *Technology]
	Series       *Collection[Series, *Series]
	Posts        *Collection[BlogPost, *BlogPost]
	Projects     *Collection[Project, *Project]
	TechStack    *Collection[TechStackItem, *TechStackItem]
	SocialLinks  *Collection[SocialLink, *SocialLink]
	Guestbook    *Collection[GuestbookEntry, *GuestbookEntry]
	Visitors     *Collection[VisitorCounter, *VisitorCounter]
}

type Option func(*Service)

func WithLogger(log *zap.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

func NewService(docs baas.Documents, registry *schema.Registry, opts ...Option) *Service {
	s := &Service{
		docs:         docs,
		registry:     registry,
		log:          zap.NewNop(),
		Profiles:     NewCollection[Profile](docs, schema.CollectionProfile),
		Categories:   NewCollection[Category](docs, schema.CollectionCategories),
		Technologies: NewCollection[Technology](docs, schema.CollectionTechnologies),
		Series:       NewCollection[Series](docs, schema.CollectionSeries),
		Posts:        NewCollection[BlogPost](docs, schema.CollectionPosts),
		Projects:     NewCollection[Project](docs, schema.CollectionProjects),
		TechStack:    NewCollection[TechStackItem](docs, schema.CollectionTechStack),
		SocialLinks:  NewCollection[SocialLink](docs, schema.CollectionSocialLinks),
		Guestbook:    NewCollection[GuestbookEntry](docs, schema.CollectionGuestbook),
		Visitors:     NewCollection[VisitorCounter](docs, schema.CollectionVisitors),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetProfile returns the site profile, the oldest profile document.
func (s *Service) GetProfile(ctx context.Context) (*Profile, error) {
	return s.Profiles.First(ctx, baas.OrderAsc(schema.FieldCreatedAt))
}

// PublishedPosts lists published posts newest first. A zero limit means
// no limit.
func (s *Service) PublishedPosts(ctx context.Context, limit, offset int) ([]BlogPost, error) {
	queries := []baas.Query{
		baas.Equal("published", true),
		baas.OrderDesc("published_at"),
	}
	if limit > 0 {
		queries = append(queries, baas.Limit(limit))
	}
	if offset > 0 {
		queries = append(queries, baas.Offset(offset))
	}
	return s.Posts.List(ctx, queries...)
}

// PostBySlug returns a published post. Drafts are reported as not found.
func (s *Service) PostBySlug(ctx context.Context, slug string) (*BlogPost, error) {
	return s.Posts.First(ctx, baas.Equal("slug", slug), baas.Equal("published", true))
}

// SeriesPosts lists the published posts of a series in reading order.
func (s *Service) SeriesPosts(ctx context.Context, seriesID string) ([]BlogPost, error) {
	if _, err := s.Series.Get(ctx, seriesID); err != nil {
		return nil, err
	}
	return s.Posts.List(ctx,
		baas.Equal("series_id", seriesID),
		baas.Equal("published", true),
		baas.OrderAsc("series_position"),
	)
}

func (s *Service) ListProjects(ctx context.Context, featuredOnly bool) ([]Project, error) {
	var queries []baas.Query
	if featuredOnly {
		queries = append(queries, baas.Equal("featured", true))
	}
	return s.Projects.List(ctx, append(queries, baas.OrderAsc("priority"))...)
}

func (s *Service) ListTechStack(ctx context.Context) ([]TechStackItem, error) {
	return s.TechStack.List(ctx, baas.OrderAsc("priority"))
}

func (s *Service) ListSocialLinks(ctx context.Context) ([]SocialLink, error) {
	return s.SocialLinks.List(ctx, baas.OrderAsc("priority"))
}

// SignGuestbook records a visitor's message. New entries always await
// approval.
func (s *Service) SignGuestbook(ctx context.Context, entry GuestbookEntry) (*GuestbookEntry, error) {
	entry.Approved = false
	return s.Guestbook.Create(ctx, "", &entry)
}

// ApprovedGuestbook lists approved entries, newest first.
func (s *Service) ApprovedGuestbook(ctx context.Context) ([]GuestbookEntry, error) {
	return s.Guestbook.List(ctx, baas.Equal("approved", true), baas.OrderDesc(schema.FieldCreatedAt))
}

func (s *Service) ApproveGuestbook(ctx context.Context, id string) (*GuestbookEntry, error) {
	return s.Guestbook.Update(ctx, id, map[string]any{"approved": true})
}

// Hit increments the visitor counter and returns the new count. The
// read-increment-write is not atomic; concurrent hits may be lost.
func (s *Service) Hit(ctx context.Context) (int64, error) {
	counter, err := s.Visitors.Get(ctx, VisitorCounterID)
	switch {
	case err == nil:
	case baas.IsNotFound(err):
		created, err := s.Visitors.Create(ctx, VisitorCounterID, &VisitorCounter{Count: 1})
		if err == nil {
			return created.Count, nil
		}
		if !baas.IsConflict(err) {
			return 0, fmt.Errorf("create visitor counter: %w", err)
		}
		// Another request created it first.
		if counter, err = s.Visitors.Get(ctx, VisitorCounterID); err != nil {
			return 0, fmt.Errorf("read visitor counter: %w", err)
		}
	default:
		return 0, fmt.Errorf("read visitor counter: %w", err)
	}

	updated, err := s.Visitors.Update(ctx, VisitorCounterID, map[string]any{"count": counter.Count + 1})
	if err != nil {
		return 0, fmt.Errorf("update visitor counter: %w", err)
	}
	return updated.Count, nil
}

// Move moves a document of an ordered collection one step up or down
// within its group. The group is re-read from the backend on every call.
func (s *Service) Move(ctx context.Context, collectionID, docID string, dir ordering.Direction) ([]ordering.Update, error) {
	def, err := s.ordered(collectionID)
	if err != nil {
		return nil, err
	}
	target, err := s.docs.GetDocument(ctx, collectionID, docID)
	if err != nil {
		return nil, err
	}
	group, err := s.group(ctx, def, target.Data)
	if err != nil {
		return nil, err
	}

	plan, err := s.mover(def).Move(ctx, group, docID, dir)
	if err != nil {
		return nil, err
	}
	s.log.Info("document moved",
		zap.String("collection", collectionID),
		zap.String("id", docID),
		zap.Stringer("direction", dir),
		zap.Int("writes", len(plan)),
	)
	return plan, nil
}

// NextPosition returns the position a new document with the given data
// takes when appended to its group.
func (s *Service) NextPosition(ctx context.Context, collectionID string, data map[string]any) (int, error) {
	def, err := s.ordered(collectionID)
	if err != nil {
		return 0, err
	}
	group, err := s.group(ctx, def, data)
	if errors.Is(err, ErrUngrouped) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	next := ordering.NextPosition(group)
	// Past the field's upper bound the record ties with the last one and
	// still sorts after it by creation time.
	if attr := def.GetAttribute(def.Ordering.Field); attr != nil && attr.Max != nil && next > int(*attr.Max) {
		next = int(*attr.Max)
	}
	return next, nil
}

// Compact renumbers the group holding docID densely from 1.
func (s *Service) Compact(ctx context.Context, collectionID, docID string) ([]ordering.Update, error) {
	def, err := s.ordered(collectionID)
	if err != nil {
		return nil, err
	}
	target, err := s.docs.GetDocument(ctx, collectionID, docID)
	if err != nil {
		return nil, err
	}
	group, err := s.group(ctx, def, target.Data)
	if err != nil {
		return nil, err
	}
	return s.mover(def).Compact(ctx, group)
}

func (s *Service) ordered(collectionID string) (*schema.Definition, error) {
	def := s.registry.Get(collectionID)
	if def == nil {
		return nil, baas.NotFound("collection %s is not defined", collectionID)
	}
	if def.Ordering == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotOrdered, collectionID)
	}
	return def, nil
}

// group loads the records sharing data's group value, sorted into their
// effective order.
func (s *Service) group(ctx context.Context, def *schema.Definition, data map[string]any) ([]ordering.Record, error) {
	queries := []baas.Query{baas.OrderAsc(def.Ordering.Field)}
	if by := def.Ordering.GroupBy; by != "" {
		value, _ := data[by].(string)
		if value == "" {
			return nil, fmt.Errorf("%w: %s has no %s", ErrUngrouped, def.ID, by)
		}
		queries = append(queries, baas.Equal(by, value))
	}
	docs, err := baas.ListAll(ctx, s.docs, def.ID, groupPageSize, queries...)
	if err != nil {
		return nil, fmt.Errorf("load %s group: %w", def.ID, err)
	}
	return ordering.Sort(ordering.RecordsFromDocuments(docs, def.Ordering.Field)), nil
}

func (s *Service) mover(def *schema.Definition) *ordering.Mover {
	return ordering.NewMover(ordering.DocumentWriter{
		Docs:         s.docs,
		CollectionID: def.ID,
		Field:        def.Ordering.Field,
	})
}
