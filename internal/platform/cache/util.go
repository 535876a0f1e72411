package cache

import (
	"time"
)

// TimeUntilNextHour は now から次の正時までの期間を返します。
// 定期スクレイピングは1時間ごとに走るため、キャッシュはその時点で失効させます。
func TimeUntilNextHour(now time.Time) time.Duration {
	next := now.Truncate(time.Hour).Add(time.Hour)
	return next.Sub(now)
}
