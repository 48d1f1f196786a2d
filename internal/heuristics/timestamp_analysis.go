package heuristics

import (
	"fmt"

	"github.com/rawblock/tornado-tracer/pkg/models"
)

// Timestamp Clustering
//
// Deposit and withdrawal timing is one of the few behavioral signals a mixer
// cannot scrub. Day and hour occurrence buckets expose habitual activity
// windows (a user depositing every Monday morning clusters hard), and the
// per-active-day rate separates one-off users from heavy operators.

// AnalyzeTimestamps buckets a transaction stream by day and by hour and
// reports the busiest bucket of each. Rows with unparseable block times are
// skipped; when nothing parses, the zero-valued result is returned.
func AnalyzeTimestamps(transactions []models.Transaction) models.TimestampAnalysis {
	if len(transactions) == 0 {
		return models.TimestampAnalysis{}
	}

	daily := make(map[string]int)
	hourly := make(map[string]int)
	var dayOrder, hourOrder []string

	parsed := 0
	for _, tx := range transactions {
		ts, ok := parseBlockTime(tx.BlockTime)
		if !ok {
			continue
		}
		parsed++

		dayKey := ts.Format("2006-01-02")
		hourKey := fmt.Sprintf("%s %02d:00", dayKey, ts.Hour())

		if daily[dayKey] == 0 {
			dayOrder = append(dayOrder, dayKey)
		}
		daily[dayKey]++

		if hourly[hourKey] == 0 {
			hourOrder = append(hourOrder, hourKey)
		}
		hourly[hourKey]++
	}

	if parsed == 0 {
		return models.TimestampAnalysis{}
	}

	activeDays := len(daily)
	if activeDays < 1 {
		activeDays = 1
	}

	return models.TimestampAnalysis{
		TotalTransactions: len(transactions),
		DailyActivity:     daily,
		HourlyActivity:    hourly,
		MostActiveDay:     busiestBucket(daily, dayOrder),
		MostActiveHour:    busiestBucket(hourly, hourOrder),
		AveragePerDay:     float64(len(transactions)) / float64(activeDays),
	}
}

// busiestBucket picks the bucket with the highest count. Ties go to the
// first-encountered bucket, which keeps the result deterministic for a given
// input ordering.
func busiestBucket(counts map[string]int, order []string) *models.BucketCount {
	var best *models.BucketCount
	for _, key := range order {
		if best == nil || counts[key] > best.Count {
			best = &models.BucketCount{Bucket: key, Count: counts[key]}
		}
	}
	return best
}
