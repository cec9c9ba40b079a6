// Package reactions maintains the per-post reaction ledger: each user holds
// at most one reaction kind per post at a time.
package reactions

import (
	"errors"

	"github.com/whisperecho/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrInvalidKind is returned when the requested kind is not in the enum
var ErrInvalidKind = errors.New("invalid reaction kind")

// Counts is the per-kind breakdown for a post
type Counts struct {
	Total  int64                         `json:"total"`
	ByKind map[models.ReactionKind]int64 `json:"by_kind"`
}

// Ledger wraps the reactions table
type Ledger struct {
	db *gorm.DB
}

// NewLedger creates a reaction ledger backed by db
func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// Set records the user's reaction on a post, replacing any kind they already
// held. Setting the kind the user currently holds is a no-op. Returns the
// kind now held and whether the user held nothing before this call.
func (l *Ledger) Set(postID, userID string, kind models.ReactionKind) (models.ReactionKind, bool, error) {
	if !kind.Valid() {
		return "", false, ErrInvalidKind
	}

	prev, err := l.Of(postID, userID)
	if err != nil {
		return "", false, err
	}

	reaction := models.Reaction{
		PostID: postID,
		UserID: userID,
		Kind:   kind,
	}

	// Upsert against the (post_id, user_id) unique index so switching kinds
	// is an update of the held row, never a second row
	err = l.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "post_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"kind", "updated_at"}),
	}).Create(&reaction).Error
	if err != nil {
		return "", false, err
	}
	return kind, prev == "", nil
}

// Remove clears the user's reaction on a post. Removing when no reaction is
// held is a no-op. Reports whether a held reaction was actually cleared.
func (l *Ledger) Remove(postID, userID string) (bool, error) {
	res := l.db.Where("post_id = ? AND user_id = ?", postID, userID).
		Delete(&models.Reaction{})
	return res.RowsAffected > 0, res.Error
}

// Of returns the kind the user currently holds on the post, or "" if none
func (l *Ledger) Of(postID, userID string) (models.ReactionKind, error) {
	var reaction models.Reaction
	err := l.db.Where("post_id = ? AND user_id = ?", postID, userID).
		First(&reaction).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return reaction.Kind, nil
}

// CountsFor returns the per-kind and total reaction counts for a post.
// Kinds with zero reactions are present in the map.
func (l *Ledger) CountsFor(postID string) (*Counts, error) {
	type row struct {
		Kind  models.ReactionKind
		Count int64
	}
	var rows []row
	err := l.db.Model(&models.Reaction{}).
		Select("kind, COUNT(*) as count").
		Where("post_id = ?", postID).
		Group("kind").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := &Counts{ByKind: make(map[models.ReactionKind]int64, len(models.ReactionKinds))}
	for _, kind := range models.ReactionKinds {
		counts.ByKind[kind] = 0
	}
	for _, r := range rows {
		counts.ByKind[r.Kind] = r.Count
		counts.Total += r.Count
	}
	return counts, nil
}

// HeldByViewer returns the viewer's held kind for each of the given posts in
// one query, for feed annotation. Posts without a reaction are absent from
// the map.
func (l *Ledger) HeldByViewer(postIDs []string, userID string) (map[string]models.ReactionKind, error) {
	held := make(map[string]models.ReactionKind)
	if userID == "" || len(postIDs) == 0 {
		return held, nil
	}

	var reactions []models.Reaction
	err := l.db.Where("post_id IN ? AND user_id = ?", postIDs, userID).
		Find(&reactions).Error
	if err != nil {
		return nil, err
	}
	for _, r := range reactions {
		held[r.PostID] = r.Kind
	}
	return held, nil
}
