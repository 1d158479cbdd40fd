package models

import "time"

// ReactionSort is the ordering of a reaction listing
type ReactionSort string

const (
	SortRecent     ReactionSort = "recent"
	SortOldest     ReactionSort = "oldest"
	SortMostActive ReactionSort = "most_active"
)

// SearchClause is the disjunctive filter compiled from a free-text query.
// A reaction matches when any of the branches matches.
type SearchClause struct {
	// Pattern is matched case-insensitively as a literal substring of entity_kind and action
	Pattern string
	// UserIDs are users whose identity matched the query
	UserIDs []uint
	// EntityIDs are per kind target ids whose content matched the query
	EntityIDs map[EntityKind][]string
	// DirectEntityID is set when the query itself is a valid entity id
	DirectEntityID string
}

// ReactionQuery is the ledger listing query
type ReactionQuery struct {
	Kind     EntityKind
	Action   ReactionAction
	UserID   uint
	EntityID string
	DateFrom *time.Time
	DateTo   *time.Time
	Search   *SearchClause
	Sort     ReactionSort
	Offset   int
	Limit    int
}

// ReactionSelector picks the reactions removed by a bulk delete. Set fields are ANDed.
type ReactionSelector struct {
	IDs      []uint
	UserID   uint
	Kind     EntityKind
	EntityID string
}

// Empty reports whether the selector would match the whole ledger
func (s ReactionSelector) Empty() bool {
	return len(s.IDs) == 0 && s.UserID == 0 && s.Kind == "" && s.EntityID == ""
}

// GroupCount is one bucket of a grouped statistic
type GroupCount struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// ReactionStats is the moderation dashboard summary
type ReactionStats struct {
	ByKind     []GroupCount `json:"by_kind"`
	ByAction   []GroupCount `json:"by_action"`
	Daily      []GroupCount `json:"daily"`
	Total      int64        `json:"total"`
	WindowDays int          `json:"window_days"`
}

// Degradation records an adapter that failed during a fan-out stage.
// It never aborts the operation it was observed in.
type Degradation struct {
	Stage string     `json:"stage"`
	Kind  EntityKind `json:"kind,omitempty"`
	Error string     `json:"error"`
}

// Pagination describes one page of a listing
type Pagination struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"totalPages"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
}

// ReactionPage is a resolved page of reactions
type ReactionPage struct {
	Rows       []ReactionRow `json:"rows"`
	Pagination Pagination    `json:"pagination"`
	Warnings   []Degradation `json:"warnings,omitempty"`
}

// ListReactionsRequest binds the admin listing query string
type ListReactionsRequest struct {
	Page     int    `query:"page" validate:"omitempty,min=1"`
	Limit    int    `query:"limit" validate:"omitempty,min=1"`
	Search   string `query:"search" validate:"omitempty,max=200"`
	UserID   string `query:"userId"`
	Type     string `query:"type"`
	TargetID string `query:"targetId"`
	DateFrom string `query:"dateFrom"`
	DateTo   string `query:"dateTo"`
	Action   string `query:"action" validate:"omitempty,reaction_action=all"`
	SortBy   string `query:"sortBy" validate:"omitempty,oneof=recent oldest most_active"`
}

// BulkDeleteRequest defines the request body of a bulk delete
type BulkDeleteRequest struct {
	ReactionIDs []uint `json:"reaction_ids" validate:"omitempty,dive,gt=0"`
	UserID      uint   `json:"user_id"`
	Type        string `json:"type" validate:"omitempty,entity_kind"`
	TargetID    string `json:"target_id" validate:"omitempty,max=64"`
}

// BulkDeleteResult reports the outcome of a bulk delete
type BulkDeleteResult struct {
	DeletedCount int64              `json:"deleted_count"`
	Adjusted     map[EntityKind]int `json:"adjusted_targets"`
	Warnings     []Degradation      `json:"warnings,omitempty"`
}

// ReactionFilter is a normalized listing filter. Zero fields do not filter.
type ReactionFilter struct {
	Kind     EntityKind
	Action   ReactionAction
	UserID   uint
	EntityID string
	DateFrom *time.Time
	DateTo   *time.Time
	Search   string
	Sort     ReactionSort
}
