package dashboard

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	statsCacheKey = "dashboard:stats"
	statsCacheTTL = 30 * time.Second
	chartWeeks    = 5
	activityLimit = 5
)

// Reader is the aggregate query contract the service depends on.
type Reader interface {
	CountProducts(ctx context.Context) (int, error)
	CountLowStock(ctx context.Context) (int, error)
	CountPending(ctx context.Context, opType string) (int, error)
	InventoryValue(ctx context.Context) (decimal.Decimal, error)
	WeeklyFlow(ctx context.Context, weeks int) ([]ChartPoint, error)
	RecentActivity(ctx context.Context, limit int) ([]Activity, error)
}

// Service fans out the KPI queries and caches the result briefly.
type Service struct {
	reader Reader
	cache  *redis.Client
}

func NewService(reader Reader, cache *redis.Client) *Service {
	return &Service{reader: reader, cache: cache}
}

// GetStats runs the headline queries in parallel. A short Redis cache
// absorbs dashboard polling without masking recent movements for long.
func (s *Service) GetStats(ctx context.Context) (Stats, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, statsCacheKey).Bytes(); err == nil {
			var cached Stats
			if json.Unmarshal(raw, &cached) == nil {
				return cached, nil
			}
		}
	}

	var stats Stats
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.reader.CountProducts(ctx)
		stats.TotalProducts = n
		return err
	})
	g.Go(func() error {
		n, err := s.reader.CountLowStock(ctx)
		stats.LowStockCount = n
		return err
	})
	g.Go(func() error {
		n, err := s.reader.CountPending(ctx, "RECEIPT")
		stats.PendingReceipts = n
		return err
	})
	g.Go(func() error {
		n, err := s.reader.CountPending(ctx, "DELIVERY")
		stats.PendingDeliveries = n
		return err
	})
	g.Go(func() error {
		value, err := s.reader.InventoryValue(ctx)
		stats.InventoryValue = value
		return err
	})

	if err := g.Wait(); err != nil {
		return Stats{}, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(stats); err == nil {
			s.cache.Set(ctx, statsCacheKey, raw, statsCacheTTL)
		}
	}
	return stats, nil
}

// GetCharts returns weekly receipt and delivery volume for the chart.
func (s *Service) GetCharts(ctx context.Context) ([]ChartPoint, error) {
	return s.reader.WeeklyFlow(ctx, chartWeeks)
}

// GetActivity returns the latest operations.
func (s *Service) GetActivity(ctx context.Context) ([]Activity, error) {
	return s.reader.RecentActivity(ctx, activityLimit)
}
