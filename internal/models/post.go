package models

import (
	"time"

	"gorm.io/gorm"
)

// Category is the fixed set of post categories
type Category string

const (
	CategoryGaming      Category = "Gaming"
	CategoryEducation   Category = "Education"
	CategoryBeauty      Category = "Beauty"
	CategoryFitness     Category = "Fitness"
	CategoryMusic       Category = "Music"
	CategoryTechnology  Category = "Technology"
	CategoryArt         Category = "Art"
	CategoryFood        Category = "Food"
	CategoryTravel      Category = "Travel"
	CategorySports      Category = "Sports"
	CategoryMovies      Category = "Movies"
	CategoryBooks       Category = "Books"
	CategoryFashion     Category = "Fashion"
	CategoryPhotography Category = "Photography"
	CategoryComedy      Category = "Comedy"
	CategoryScience     Category = "Science"
	CategoryPolitics    Category = "Politics"
	CategoryBusiness    Category = "Business"
)

// Categories lists every valid category, in display order
var Categories = []Category{
	CategoryGaming, CategoryEducation, CategoryBeauty, CategoryFitness,
	CategoryMusic, CategoryTechnology, CategoryArt, CategoryFood,
	CategoryTravel, CategorySports, CategoryMovies, CategoryBooks,
	CategoryFashion, CategoryPhotography, CategoryComedy, CategoryScience,
	CategoryPolitics, CategoryBusiness,
}

// Valid reports whether c is a member of the category enum
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Visibility controls how the author is presented on a post
type Visibility string

const (
	VisibilityNormal   Visibility = "normal"
	VisibilityDisguise Visibility = "disguise"
)

// Valid reports whether v is a known visibility value
func (v Visibility) Valid() bool {
	return v == VisibilityNormal || v == VisibilityDisguise
}

// MediaRef points at an uploaded media object. The upload endpoint returns
// these; posts only store the references, never the bytes.
type MediaRef struct {
	URL      string `json:"url"`
	MimeType string `json:"mimetype"`
	Size     int64  `json:"size,omitempty"`
}

// VanishMode is a per-post opt-in expiry. Once VanishAt passes the post is
// invisible on every read path and eventually purged by the sweep.
type VanishMode struct {
	Enabled  bool       `json:"enabled"`
	VanishAt *time.Time `json:"vanish_at,omitempty"`
}

// Post represents a user post with text and optional media references
type Post struct {
	ID       string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	AuthorID string `gorm:"not null;index" json:"author_id"`
	Author   User   `gorm:"foreignKey:AuthorID" json:"author,omitempty"`

	// Content
	Text  string     `gorm:"type:text;not null" json:"text"`
	Media []MediaRef `gorm:"type:jsonb;serializer:json" json:"media,omitempty"`

	Category   Category   `gorm:"type:varchar(30);not null;index" json:"category"`
	Visibility Visibility `gorm:"type:varchar(10);default:normal" json:"visibility"`

	// Avatar shown instead of the author's when visibility is "disguise"
	DisguiseAvatar string `json:"disguise_avatar,omitempty"`

	VanishMode VanishMode `gorm:"type:jsonb;serializer:json" json:"vanish_mode"`

	IsHidden bool `gorm:"default:false;index" json:"-"`

	Tags StringArray `gorm:"type:text[]" json:"tags,omitempty"`

	// Cached engagement counters, recomputable from reactions/comments tables
	ReactionCount int `gorm:"default:0" json:"reaction_count"`
	CommentCount  int `gorm:"default:0" json:"comment_count"`

	// Cached decay-weighted engagement score used for explore ranking.
	// Recomputed on every reaction/comment mutation; never authoritative.
	TrendingScore float64 `gorm:"default:0;index" json:"trending_score"`

	// GORM fields
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ReactionKind is the six-value emoji reaction enum
type ReactionKind string

const (
	ReactionFunny     ReactionKind = "funny"
	ReactionRage      ReactionKind = "rage"
	ReactionShock     ReactionKind = "shock"
	ReactionRelatable ReactionKind = "relatable"
	ReactionLove      ReactionKind = "love"
	ReactionThinking  ReactionKind = "thinking"
)

// ReactionKinds lists every valid reaction kind
var ReactionKinds = []ReactionKind{
	ReactionFunny, ReactionRage, ReactionShock,
	ReactionRelatable, ReactionLove, ReactionThinking,
}

// Valid reports whether k is a member of the reaction enum
func (k ReactionKind) Valid() bool {
	for _, known := range ReactionKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Reaction records one user's held reaction on a post. The unique index on
// (post_id, user_id) enforces the one-kind-per-user invariant; switching
// kind is an update of the existing row.
type Reaction struct {
	ID     string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	PostID string `gorm:"not null;uniqueIndex:idx_reactions_post_user" json:"post_id"`
	Post   Post   `gorm:"foreignKey:PostID" json:"-"`
	UserID string `gorm:"not null;uniqueIndex:idx_reactions_post_user;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Kind ReactionKind `gorm:"type:varchar(12);not null" json:"kind"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Comment represents a comment on a Post. Comments live in their own table
// keyed by post id rather than embedded in the post record, so a busy post
// never grows a single unbounded row.
type Comment struct {
	ID     string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	PostID string `gorm:"not null;index" json:"post_id"`
	Post   Post   `gorm:"foreignKey:PostID" json:"-"`
	UserID string `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Content string `gorm:"type:text;not null" json:"content"`

	// WhisperWall-style anonymous comments hide the author in responses
	IsAnonymous bool `gorm:"default:false" json:"is_anonymous"`

	// Cached mini reaction counters (comments only support funny/love)
	FunnyCount int `gorm:"default:0" json:"funny_count"`
	LoveCount  int `gorm:"default:0" json:"love_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CommentReactionKind is the reduced enum for comment mini reactions
type CommentReactionKind string

const (
	CommentReactionFunny CommentReactionKind = "funny"
	CommentReactionLove  CommentReactionKind = "love"
)

// Valid reports whether k is funny or love
func (k CommentReactionKind) Valid() bool {
	return k == CommentReactionFunny || k == CommentReactionLove
}

// CommentReaction records one user's mini reaction on a comment
type CommentReaction struct {
	ID        string  `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	CommentID string  `gorm:"not null;uniqueIndex:idx_comment_reactions_unique" json:"comment_id"`
	Comment   Comment `gorm:"foreignKey:CommentID" json:"-"`
	UserID    string  `gorm:"not null;uniqueIndex:idx_comment_reactions_unique" json:"user_id"`

	Kind CommentReactionKind `gorm:"type:varchar(8);not null" json:"kind"`

	CreatedAt time.Time `json:"created_at"`
}

// BeforeCreate hooks for GORM
func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = generateUUID()
	}
	return nil
}

func (r *Reaction) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = generateUUID()
	}
	return nil
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = generateUUID()
	}
	return nil
}

func (cr *CommentReaction) BeforeCreate(tx *gorm.DB) error {
	if cr.ID == "" {
		cr.ID = generateUUID()
	}
	return nil
}
