package jobs

import (
	"log"

	"github.com/AleDet01/smartdeck-sub000/cache"
)

// PruneStatsCache returns a cron-schedulable closure over the shared
// statistics cache.
func PruneStatsCache(c *cache.Cache) func() {
	return func() {
		if dropped := c.Prune(); dropped > 0 {
			log.Printf("Pruned %d expired statistics cache entries", dropped)
		}
	}
}
