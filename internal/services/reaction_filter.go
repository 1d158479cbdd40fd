package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/anonto42/reaction-ledger/internal/models"
)

const dateLayout = "2006-01-02"

// FilterFromRequest normalizes the admin listing query. Unknown kinds, actions,
// sorts and unparsable dates are rejected. A userId or targetId that cannot
// identify anything is dropped rather than rejected.
func FilterFromRequest(req *models.ListReactionsRequest, registry *Registry) (models.ReactionFilter, error) {
	var f models.ReactionFilter

	if t := strings.TrimSpace(req.Type); t != "" && !strings.EqualFold(t, "all") {
		kind, ok := ParseKind(t)
		if !ok || !registry.Has(kind) {
			return f, invalid("type", fmt.Sprintf("%q is not a registered entity kind", t))
		}
		f.Kind = kind
	}

	if a := strings.TrimSpace(req.Action); a != "" && !strings.EqualFold(a, "all") {
		action, ok := ParseAction(a)
		if !ok {
			return f, invalid("action", fmt.Sprintf("%q is not like, dislike or all", a))
		}
		f.Action = action
	}

	if id, err := strconv.ParseUint(strings.TrimSpace(req.UserID), 10, 64); err == nil && id > 0 {
		f.UserID = uint(id)
	}

	if target := strings.TrimSpace(req.TargetID); target != "" && targetValid(registry, f.Kind, target) {
		f.EntityID = target
	}

	var err error
	if f.DateFrom, err = parseDate(req.DateFrom, false); err != nil {
		return f, invalid("dateFrom", err.Error())
	}
	if f.DateTo, err = parseDate(req.DateTo, true); err != nil {
		return f, invalid("dateTo", err.Error())
	}
	if f.DateFrom != nil && f.DateTo != nil && f.DateTo.Before(*f.DateFrom) {
		return f, invalid("dateTo", "is before dateFrom")
	}

	switch models.ReactionSort(strings.TrimSpace(req.SortBy)) {
	case "", models.SortRecent:
		f.Sort = models.SortRecent
	case models.SortOldest:
		f.Sort = models.SortOldest
	case models.SortMostActive:
		f.Sort = models.SortMostActive
	default:
		return f, invalid("sortBy", fmt.Sprintf("%q is not recent, oldest or most_active", req.SortBy))
	}

	f.Search = strings.TrimSpace(req.Search)
	return f, nil
}

func targetValid(registry *Registry, kind models.EntityKind, id string) bool {
	if kind == "" {
		return registry.ValidAnyID(id)
	}
	store, err := registry.Store(kind)
	return err == nil && store.ValidID(id)
}

// parseDate accepts RFC 3339 or a bare date. A bare upper bound covers the whole day.
func parseDate(raw string, upper bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("%q is neither RFC 3339 nor YYYY-MM-DD", raw)
	}
	if upper {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
