package schema

// Collection ids of the portfolio site.
const (
	CollectionProfile      = "profile"
	CollectionCategories   = "categories"
	CollectionTechnologies = "technologies"
	CollectionSeries       = "series"
	CollectionPosts        = "blog_posts"
	CollectionProjects     = "projects"
	CollectionTechStack    = "tech_stack"
	CollectionSocialLinks  = "social_links"
	CollectionGuestbook    = "guestbook"
	CollectionVisitors     = "visitors"
)

func publicRead() []Permission {
	return []Permission{
		Read(RoleAny),
		Create(RoleAdmin),
		Update(RoleAdmin),
		Delete(RoleAdmin),
	}
}

// Portfolio returns the definitions of every portfolio collection, in the
// order they must be provisioned.
func Portfolio() []Definition {
	return []Definition{
		{
			ID:          CollectionProfile,
			Name:        "Profile",
			Permissions: publicRead(),
			Attributes: []AttributeSpec{
				String("name", 128).Req(),
				String("headline", 256),
				LongText("bio"),
				Email("email"),
				String("location", 128),
				String("avatar_url", 2048),
				String("resume_url", 2048),
				Boolean("available_for_hire").WithDefault(false),
			},
		},
		{
			ID:          CollectionCategories,
			Name:        "Categories",
			Permissions: publicRead(),
			Attributes: []AttributeSpec{
				String("name", 128).Req(),
				String("slug", 128).Req(),
				String("description", 1024),
			},
			Indexes: []IndexSpec{
				{Key: "slug_unique", Kind: IndexUnique, Attributes: []string{"slug"}},
			},
		},
		{
			ID:          CollectionTechnologies,
			Name:        "Technologies",
			Permissions: publicRead(),
			Attributes: []AttributeSpec{
				String("name", 128).Req(),
				String("icon", 256),
				String("url", 2048),
			},
			Indexes: []IndexSpec{
				{Key: "name_unique", Kind: IndexUnique, Attributes: []string{"name"}},
			},
		},
		{
			ID:          CollectionSeries,
			Name:        "Series",
			Permissions: publicRead(),
			Attributes: []AttributeSpec{
				String("title", 256).Req(),
				String("slug", 256).Req(),
				String("description", 2048),
				Boolean("completed").WithDefault(false),
			},
			Indexes: []IndexSpec{
				{Key: "slug_unique", Kind: IndexUnique, Attributes: []string{"slug"}},
			},
		},
		{
			ID:          CollectionPosts,
			Name:        "Blog Posts",
			Permissions: publicRead(),
			Attributes: []AttributeSpec{
				String("title", 256).Req(),
				String("slug", 256).Req(),
				String("excerpt", 1024),
				LongText("content"),
				String("cover_image", 2048),
				String("category_id", 64),
				String("series_id", 64),
				Integer("series_position").Range(0, 10000).WithDefault(int64(0)),
				StringArray("tags", 64),
				Boolean("published").WithDefault(false),
				String("published_at", 64),
				Integer("reading_minutes").Range(0, 600),
			},
			Indexes: []IndexSpec{
				{Key: "slug_unique", Kind: IndexUnique, Attributes: []string{"slug"}},
				{Key: "published_idx", Kind: IndexKey, Attributes: []string{"published", "published_at"}, Orders: []string{"ASC", "DESC"}},
				{Key: "series_idx", Kind: IndexKey, Attributes: []string{"series_id", "series_position"}},
				{Key: "category_idx", Kind: IndexKey, Attributes: []string{"category_id"}},
			},
			Ordering: &OrderingSpec{Field: "series_position", GroupBy: "series_id"},
		},
		{
			ID:          CollectionProjects,
			Name:        "Projects",
			Permissions: publicRead(),
			Attributes: []AttributeSpec{
				String("title", 256).Req(),
				String("slug", 256).Req(),
				String("summary", 1024),
				LongText("description"),
				String("image_url", 2048),
				String("repo_url", 2048),
				String("live_url", 2048),
				StringArray("technologies", 64),
				Boolean("featured").WithDefault(false),
				Integer("priority").Range(0, 10000).WithDefault(int64(0)),
			},
			Indexes: []IndexSpec{
				{Key: "slug_unique", Kind: IndexUnique, Attributes: []string{"slug"}},
				{Key: "priority_idx", Kind: IndexKey, Attributes: []string{"priority"}},
			},
			Ordering: &OrderingSpec{Field: "priority"},
		},
		{
			ID:          CollectionTechStack,
			Name:        "Tech Stack",
			Permissions: publicRead(),
			Attributes: []AttributeSpec{
				String("name", 128).Req(),
				String("category", 64),
				String("icon", 256),
				Float("proficiency").Range(0, 100),
				Integer("priority").Range(0, 10000).WithDefault(int64(0)),
			},
			Indexes: []IndexSpec{
				{Key: "priority_idx", Kind: IndexKey, Attributes: []string{"priority"}},
			},
			Ordering: &OrderingSpec{Field: "priority"},
		},
		{
			ID:          CollectionSocialLinks,
			Name:        "Social Links",
			Permissions: publicRead(),
			Attributes: []AttributeSpec{
				String("platform", 64).Req(),
				String("url", 2048).Req(),
				String("icon", 256),
				Integer("priority").Range(0, 10000).WithDefault(int64(0)),
			},
			Indexes: []IndexSpec{
				{Key: "priority_idx", Kind: IndexKey, Attributes: []string{"priority"}},
			},
			Ordering: &OrderingSpec{Field: "priority"},
		},
		{
			ID:   CollectionGuestbook,
			Name: "Guestbook",
			Permissions: []Permission{
				Read(RoleAny),
				Create(RoleAny),
				Update(RoleAdmin),
				Delete(RoleAdmin),
			},
			Attributes: []AttributeSpec{
				String("name", 128).Req(),
				Email("email"),
				String("message", 2000).Req(),
				Boolean("approved").WithDefault(false),
			},
			Indexes: []IndexSpec{
				{Key: "approved_idx", Kind: IndexKey, Attributes: []string{"approved", FieldCreatedAt}, Orders: []string{"ASC", "DESC"}},
			},
		},
		{
			ID:   CollectionVisitors,
			Name: "Visitors",
			Permissions: []Permission{
				Read(RoleAny),
				Create(RoleAny),
				Update(RoleAny),
			},
			Attributes: []AttributeSpec{
				Integer("count").Range(0, 1<<53).WithDefault(int64(0)),
			},
		},
	}
}
