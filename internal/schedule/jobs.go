package schedule

import (
	"context"

	"milify/internal/geocache"
	"milify/internal/ics"
	appLog "milify/internal/log"
)

// GeoCacheCleanup drops expired location entries and persists the rest.
func GeoCacheCleanup(cache *geocache.Cache) JobFunc {
	return func(context.Context) error {
		if n := cache.Prune(); n > 0 {
			appLog.Info("geocache pruned", "removed", n)
		}
		return cache.Save()
	}
}

// SubscriptionRefresh re-fetches every external calendar.
func SubscriptionRefresh(subs *ics.Subscriptions) JobFunc {
	return subs.Refresh
}
