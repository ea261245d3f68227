package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheStore keeps reconciliation run summaries in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// RunSummaryTTL bounds how long the last run stays inspectable.
const RunSummaryTTL = 7 * 24 * time.Hour

const lastRunKey = "reconciliation:last_run"

// CachedRecord is a mismatched driver within a cached run summary.
type CachedRecord struct {
	DriverID        string  `json:"driver_id"`
	StoredBalance   float64 `json:"stored_balance"`
	StoredDebt      float64 `json:"stored_debt"`
	ComputedBalance float64 `json:"computed_balance"`
	ComputedDebt    float64 `json:"computed_debt"`
	BalanceDiff     float64 `json:"balance_diff"`
	DebtDiff        float64 `json:"debt_diff"`
	RideCount       int     `json:"ride_count"`
	Applied         bool    `json:"applied"`
}

// CachedRunSummary is the cached outcome of a reconciliation run.
type CachedRunSummary struct {
	RunID      string         `json:"run_id"`
	Apply      bool           `json:"apply"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Drivers    int            `json:"drivers"`
	Matched    int            `json:"matched"`
	Mismatched int            `json:"mismatched"`
	Applied    int            `json:"applied"`
	Failed     int            `json:"failed"`
	Mismatches []CachedRecord `json:"mismatches"`
}

// GetLastRun retrieves the last run summary. Returns nil on cache miss.
func (s *CacheStore) GetLastRun(ctx context.Context) (*CachedRunSummary, error) {
	data, err := s.client.Get(ctx, lastRunKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var summary CachedRunSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// SetLastRun stores the summary of the run that just finished.
func (s *CacheStore) SetLastRun(ctx context.Context, summary *CachedRunSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, lastRunKey, data, RunSummaryTTL).Err()
}
