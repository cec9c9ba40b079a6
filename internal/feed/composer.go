// Package feed composes the personalized home feed and the explore feed.
package feed

import (
	"time"

	"github.com/whisperecho/backend/internal/metrics"
	"github.com/whisperecho/backend/internal/models"
	"github.com/whisperecho/backend/internal/reactions"
	"github.com/whisperecho/backend/internal/vanish"
	"gorm.io/gorm"
)

// ExploreSort is the ordering for the explore feed
type ExploreSort string

const (
	SortTrending ExploreSort = "trending"
	SortRecent   ExploreSort = "recent"
	SortPopular  ExploreSort = "popular"
)

// Valid reports whether s is a known explore sort
func (s ExploreSort) Valid() bool {
	return s == SortTrending || s == SortRecent || s == SortPopular
}

// AnnotatedPost is a post plus the viewer's held reaction kind, if any
type AnnotatedPost struct {
	models.Post
	ViewerReaction models.ReactionKind `json:"viewer_reaction,omitempty"`
}

// Page is one page of feed results
type Page struct {
	Posts    []AnnotatedPost `json:"posts"`
	Page     int             `json:"page"`
	Limit    int             `json:"limit"`
	Fallback bool            `json:"fallback,omitempty"`
}

// Composer builds feed pages
type Composer struct {
	db     *gorm.DB
	ledger *reactions.Ledger
}

// NewComposer creates a feed composer backed by db
func NewComposer(db *gorm.DB, ledger *reactions.Ledger) *Composer {
	return &Composer{db: db, ledger: ledger}
}

// Home composes the personalized feed for a viewer: their own posts, posts
// by authors they follow, and posts in their preferred categories, newest
// first. When that union is empty but the viewer had follows or preferences
// to draw on, it falls back to globally recent posts so a fresh account with
// stale follows never sees a blank page.
func (c *Composer) Home(viewer *models.User, page, limit int) (*Page, error) {
	startTime := time.Now()
	now := startTime.UTC()
	offset := (page - 1) * limit

	var followedIDs []string
	if err := c.db.Model(&models.Follow{}).
		Where("follower_id = ?", viewer.ID).
		Pluck("followee_id", &followedIDs).Error; err != nil {
		return nil, err
	}

	authorIDs := append([]string{viewer.ID}, followedIDs...)
	cond, args := vanish.VisibleCondition(now)

	query := c.db.Model(&models.Post{}).
		Preload("Author").
		Where(cond, args...)

	if len(viewer.Preferences) > 0 {
		query = query.Where("author_id IN ? OR category IN ?", authorIDs, []string(viewer.Preferences))
	} else {
		query = query.Where("author_id IN ?", authorIDs)
	}

	var posts []models.Post
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&posts).Error; err != nil {
		return nil, err
	}

	fallback := false
	// Empty result with signal present means every followed author went
	// quiet. The same offset is re-applied against the global feed so
	// fallback pages stay consistent past the first.
	if len(posts) == 0 && (len(followedIDs) > 0 || len(viewer.Preferences) > 0) {
		fallback = true
		metrics.Get().FeedFallbacksTotal.WithLabelValues("empty_personalized").Inc()

		if err := c.db.Model(&models.Post{}).
			Preload("Author").
			Where(cond, args...).
			Order("created_at DESC").
			Offset(offset).Limit(limit).
			Find(&posts).Error; err != nil {
			return nil, err
		}
	}

	annotated, err := c.annotate(posts, viewer.ID)
	if err != nil {
		return nil, err
	}

	metrics.Get().FeedGenerationTime.WithLabelValues("home").Observe(time.Since(startTime).Seconds())
	return &Page{Posts: annotated, Page: page, Limit: limit, Fallback: fallback}, nil
}

// Explore composes the public discovery feed with the given sort and an
// optional category filter. viewerID may be empty for anonymous browsing.
func (c *Composer) Explore(sort ExploreSort, category models.Category, viewerID string, page, limit int) (*Page, error) {
	startTime := time.Now()
	now := startTime.UTC()
	offset := (page - 1) * limit

	// Anonymous pages carry no viewer annotation, so they can be served
	// straight from the cache
	cacheKey := exploreCacheKey(sort, category, page, limit)
	if viewerID == "" {
		if cached, ok := cachedExplorePage(cacheKey); ok {
			return cached, nil
		}
	}

	cond, args := vanish.VisibleCondition(now)
	query := c.db.Model(&models.Post{}).
		Preload("Author").
		Where(cond, args...)

	if category != "" {
		query = query.Where("category = ?", category)
	}

	switch sort {
	case SortTrending:
		query = query.Order("trending_score DESC, created_at DESC")
	case SortPopular:
		query = query.Order("reaction_count + comment_count DESC, created_at DESC")
	default:
		query = query.Order("created_at DESC")
	}

	var posts []models.Post
	if err := query.Offset(offset).Limit(limit).Find(&posts).Error; err != nil {
		return nil, err
	}

	annotated, err := c.annotate(posts, viewerID)
	if err != nil {
		return nil, err
	}

	metrics.Get().FeedGenerationTime.WithLabelValues("explore").Observe(time.Since(startTime).Seconds())

	result := &Page{Posts: annotated, Page: page, Limit: limit}
	if viewerID == "" {
		storeExplorePage(cacheKey, result)
	}
	return result, nil
}

// UserPosts pages through one author's visible posts, nondisguised unless
// the viewer is the author
func (c *Composer) UserPosts(authorID, viewerID string, page, limit int) (*Page, error) {
	now := time.Now().UTC()
	offset := (page - 1) * limit

	cond, args := vanish.VisibleCondition(now)
	query := c.db.Model(&models.Post{}).
		Preload("Author").
		Where("author_id = ?", authorID).
		Where(cond, args...)

	// Disguised posts stay off the author's public profile
	if viewerID != authorID {
		query = query.Where("visibility = ?", models.VisibilityNormal)
	}

	var posts []models.Post
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&posts).Error; err != nil {
		return nil, err
	}

	annotated, err := c.annotate(posts, viewerID)
	if err != nil {
		return nil, err
	}
	return &Page{Posts: annotated, Page: page, Limit: limit}, nil
}

// annotate attaches the viewer's held reaction to each post and masks
// disguised authors
func (c *Composer) annotate(posts []models.Post, viewerID string) ([]AnnotatedPost, error) {
	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}

	held, err := c.ledger.HeldByViewer(ids, viewerID)
	if err != nil {
		return nil, err
	}

	annotated := make([]AnnotatedPost, 0, len(posts))
	for _, p := range posts {
		MaskDisguise(&p, viewerID)
		annotated = append(annotated, AnnotatedPost{Post: p, ViewerReaction: held[p.ID]})
	}
	return annotated, nil
}

// MaskDisguise hides the real author on disguise-visibility posts for
// everyone but the author themselves
func MaskDisguise(p *models.Post, viewerID string) {
	if p.Visibility != models.VisibilityDisguise || p.AuthorID == viewerID {
		return
	}
	p.AuthorID = ""
	p.Author = models.User{
		Username:  "anonymous",
		AvatarURL: p.DisguiseAvatar,
	}
}
