package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/walidyoshi/wals-honey-mgmt/internal/dto"
	"github.com/walidyoshi/wals-honey-mgmt/internal/model"
	"github.com/walidyoshi/wals-honey-mgmt/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	summaryCacheKey = "report:summary"
	summaryCacheTTL = 10 * time.Minute
)

// ReportCacheInvalidator drops cached report aggregates after any write that
// touches money or stock. Implementations must be safe for concurrent use.
type ReportCacheInvalidator interface {
	InvalidateSummary(ctx context.Context) error
}

// ReportService computes the business summary: revenue and payments against
// batch acquisition costs and operating expenses.
type ReportService interface {
	Summary(ctx context.Context) (*dto.SummaryResponse, error)
	ReportCacheInvalidator
}

type reportService struct {
	repo repository.ReportRepository
	rdb  *redis.Client
}

func NewReportService(repo repository.ReportRepository, rdb *redis.Client) ReportService {
	return &reportService{repo: repo, rdb: rdb}
}

func (s *reportService) Summary(ctx context.Context) (*dto.SummaryResponse, error) {
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, summaryCacheKey).Bytes(); err == nil {
			var resp dto.SummaryResponse
			if jsonErr := json.Unmarshal(cached, &resp); jsonErr == nil {
				return &resp, nil
			}
		}
	}

	totalSales, err := s.repo.SumSaleTotals(ctx)
	if err != nil {
		return nil, err
	}
	totalPaid, err := s.repo.SumPayments(ctx)
	if err != nil {
		return nil, err
	}
	batchCost, err := s.repo.SumBatchCosts(ctx)
	if err != nil {
		return nil, err
	}
	expenses, err := s.repo.SumExpenses(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := s.repo.CountSalesByStatus(ctx)
	if err != nil {
		return nil, err
	}

	resp := &dto.SummaryResponse{
		TotalSales:       totalSales,
		TotalPaid:        totalPaid,
		TotalOutstanding: totalSales.Sub(totalPaid),
		TotalBatchCost:   batchCost,
		TotalExpenses:    expenses,
		NetProfit:        totalSales.Sub(batchCost).Sub(expenses),
		UnpaidCount:      counts[model.StatusUnpaid],
		PartialCount:     counts[model.StatusPartial],
		PaidCount:        counts[model.StatusPaid],
	}
	resp.SaleCount = resp.UnpaidCount + resp.PartialCount + resp.PaidCount

	// Populate cache — best effort, ignore errors.
	if s.rdb != nil {
		if b, jsonErr := json.Marshal(resp); jsonErr == nil {
			if err := s.rdb.Set(ctx, summaryCacheKey, b, summaryCacheTTL).Err(); err != nil {
				log.Warn().Err(err).Msg("summary cache populate failed")
			}
		}
	}
	return resp, nil
}

func (s *reportService) InvalidateSummary(ctx context.Context) error {
	if s.rdb == nil {
		return nil
	}
	return s.rdb.Del(ctx, summaryCacheKey).Err()
}
