package models

import "time"

// EntityKind identifies which content store a reaction target belongs to
type EntityKind string

const (
	KindVideo    EntityKind = "VIDEO"
	KindPost     EntityKind = "POST"
	KindComment  EntityKind = "COMMENT"
	KindMemory   EntityKind = "MEMORY"
	KindPlaylist EntityKind = "PLAYLIST"
	KindPodcast  EntityKind = "PODCAST"
)

// AllKinds lists every kind the platform knows about, in display order
var AllKinds = []EntityKind{KindVideo, KindPost, KindComment, KindMemory, KindPlaylist, KindPodcast}

// ReactionAction is the stored reaction. The absence of a record means no reaction.
type ReactionAction string

const (
	ActionLike    ReactionAction = "LIKE"
	ActionDislike ReactionAction = "DISLIKE"
)

// Valid reports whether a is one of the two storable actions
func (a ReactionAction) Valid() bool {
	return a == ActionLike || a == ActionDislike
}

// ReactionState is the per user view of a target: NONE, LIKED or DISLIKED
type ReactionState string

const (
	StateNone     ReactionState = "NONE"
	StateLiked    ReactionState = "LIKED"
	StateDisliked ReactionState = "DISLIKED"
)

// StateOf maps a reaction record (or its absence) to a state
func StateOf(r *Reaction) ReactionState {
	if r == nil {
		return StateNone
	}
	if r.Action == ActionDislike {
		return StateDisliked
	}
	return StateLiked
}

// Reaction is a user's LIKE or DISLIKE against one (kind, id) pair (PostgreSQL)
type Reaction struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	UserID     uint           `json:"user_id" gorm:"not null;index;uniqueIndex:idx_reaction_user_entity,priority:1"`
	EntityKind EntityKind     `json:"entity_kind" gorm:"size:20;not null;uniqueIndex:idx_reaction_user_entity,priority:2;index:idx_reaction_entity,priority:1"`
	EntityID   string         `json:"entity_id" gorm:"size:64;not null;uniqueIndex:idx_reaction_user_entity,priority:3;index:idx_reaction_entity,priority:2"`
	Action     ReactionAction `json:"action" gorm:"size:10;not null;index"`

	// Legacy mirrors of EntityID for VIDEO and POST rows. Never authoritative.
	VideoRef *string `json:"video_ref,omitempty" gorm:"size:64"`
	PostRef  *string `json:"post_ref,omitempty" gorm:"size:64"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ReactionCounts holds the like and dislike totals of one target
type ReactionCounts struct {
	Likes    int64 `json:"likes"`
	Dislikes int64 `json:"dislikes"`
}

// UserReaction tells whether a given user liked or disliked a target
type UserReaction struct {
	Liked    bool `json:"liked"`
	Disliked bool `json:"disliked"`
}

// ToggleResult is returned after every toggle
type ToggleResult struct {
	State    ReactionState `json:"state"`
	Liked    bool          `json:"liked"`
	Disliked bool          `json:"disliked"`
	Likes    int64         `json:"likes"`
	Dislikes int64         `json:"dislikes"`
}

// ReactionRow is a reaction enriched with its user and its target document.
// Target is nil when the target was deleted after the reaction was made.
type ReactionRow struct {
	Reaction
	User   *UserCompact `json:"user"`
	Target any          `json:"target"`
}
