package dashboard

import (
	"sort"
	"time"

	"github.com/diewo77/golf-referee/internal/models"
)

// SelectCommunications applies the visibility rule, orders by priority then
// creation time (both descending) and truncates to limit.
func SelectCommunications(all []models.Communication, zoneID *uint, now time.Time, limit int) []models.Communication {
	out := make([]models.Communication, 0, len(all))
	for i := range all {
		if all[i].IsVisible(zoneID, now) {
			out = append(out, all[i])
		}
	}
	SortCommunications(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// SortCommunications orders by priority desc, created_at desc.
func SortCommunications(comms []models.Communication) {
	sort.SliceStable(comms, func(i, j int) bool {
		if comms[i].Priority != comms[j].Priority {
			return comms[i].Priority > comms[j].Priority
		}
		return comms[i].CreatedAt.After(comms[j].CreatedAt)
	})
}
