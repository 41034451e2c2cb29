package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/walidyoshi/wals-honey-mgmt/internal/dto"
	"github.com/walidyoshi/wals-honey-mgmt/internal/model"
	"github.com/walidyoshi/wals-honey-mgmt/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type BatchService interface {
	Create(ctx context.Context, actor *uuid.UUID, req dto.CreateBatchRequest) (*dto.BatchResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.BatchResponse, error)
	List(ctx context.Context, filter dto.BatchFilter) (*dto.BatchListResponse, error)
	Update(ctx context.Context, actor *uuid.UUID, id uuid.UUID, req dto.UpdateBatchRequest) (*dto.BatchResponse, error)
	// Delete is blocked with ErrBatchInUse while sale lines reference the
	// batch — deactivation is the supported retirement path.
	Delete(ctx context.Context, id uuid.UUID) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	Reactivate(ctx context.Context, id uuid.UUID) error
	AdjustStock(ctx context.Context, actor *uuid.UUID, id uuid.UUID, req dto.AdjustStockRequest) (*dto.BatchResponse, error)
	ListMovements(ctx context.Context, id uuid.UUID) ([]dto.StockMovementResponse, error)
}

type batchService struct {
	repo         repository.BatchRepository
	movementRepo repository.StockMovementRepository
	audit        AuditRecorder
	cache        ReportCacheInvalidator
}

func NewBatchService(
	repo repository.BatchRepository,
	movementRepo repository.StockMovementRepository,
	audit AuditRecorder,
	cache ReportCacheInvalidator,
) BatchService {
	return &batchService{repo: repo, movementRepo: movementRepo, audit: audit, cache: cache}
}

func (s *batchService) Create(ctx context.Context, actor *uuid.UUID, req dto.CreateBatchRequest) (*dto.BatchResponse, error) {
	if !model.ValidBatchCode(req.BatchCode) {
		return nil, fmt.Errorf("%w: batch_code must match format A24G02", ErrValidation)
	}
	if req.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}
	if req.TransportCost != nil && req.TransportCost.IsNegative() {
		return nil, fmt.Errorf("%w: transport_cost cannot be negative", ErrValidation)
	}
	if !req.InitialKg.IsPositive() {
		return nil, fmt.Errorf("%w: initial_kg must be greater than zero", ErrValidation)
	}
	if existing, err := s.repo.FindByCode(ctx, req.BatchCode); err == nil && existing.Active {
		return nil, fmt.Errorf("%w: batch %s already exists", ErrValidation, req.BatchCode)
	}

	batch := model.Batch{
		BatchCode:     req.BatchCode,
		Price:         req.Price,
		TransportCost: req.TransportCost,
		Source:        req.Source,
		InitialKg:     req.InitialKg,
		RemainingKg:   req.InitialKg,
		Bottles25cl:   req.Bottles25cl,
		Bottles75cl:   req.Bottles75cl,
		Bottles1L:     req.Bottles1L,
		Bottles4L:     req.Bottles4L,
		Notes:         req.Notes,
		Active:        true,
		CreatedBy:     actor,
		UpdatedBy:     actor,
	}
	if req.SupplyDate != "" {
		d, err := time.Parse("2006-01-02", req.SupplyDate)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid supply_date", ErrValidation)
		}
		batch.SupplyDate = &d
	}
	if err := s.repo.Create(ctx, &batch); err != nil {
		return nil, err
	}
	s.invalidateReports(ctx)
	return batchToResponse(&batch), nil
}

func (s *batchService) Get(ctx context.Context, id uuid.UUID) (*dto.BatchResponse, error) {
	batch, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: batch %s", ErrNotFound, id)
		}
		return nil, err
	}
	return batchToResponse(batch), nil
}

func (s *batchService) List(ctx context.Context, filter dto.BatchFilter) (*dto.BatchListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	batches, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.BatchResponse, 0, len(batches))
	for i := range batches {
		items = append(items, *batchToResponse(&batches[i]))
	}
	return &dto.BatchListResponse{Data: items, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// Update applies field edits and appends one audit row per changed tracked
// field, in the same transaction as the write.
func (s *batchService) Update(ctx context.Context, actor *uuid.UUID, id uuid.UUID, req dto.UpdateBatchRequest) (*dto.BatchResponse, error) {
	var batch *model.Batch
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		batch, err = s.repo.FindByIDTx(tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: batch %s", ErrNotFound, id)
			}
			return err
		}

		var changes changeSet

		if req.Price != nil {
			if req.Price.IsNegative() {
				return fmt.Errorf("%w: price cannot be negative", ErrValidation)
			}
			changes = changes.Compare("price", batch.Price.String(), req.Price.String())
			batch.Price = *req.Price
		}
		if req.TransportCost != nil {
			if req.TransportCost.IsNegative() {
				return fmt.Errorf("%w: transport_cost cannot be negative", ErrValidation)
			}
			old := ""
			if batch.TransportCost != nil {
				old = batch.TransportCost.String()
			}
			changes = changes.Compare("transport_cost", old, req.TransportCost.String())
			batch.TransportCost = req.TransportCost
		}
		if req.SupplyDate != nil {
			d, err := time.Parse("2006-01-02", *req.SupplyDate)
			if err != nil {
				return fmt.Errorf("%w: invalid supply_date", ErrValidation)
			}
			old := ""
			if batch.SupplyDate != nil {
				old = batch.SupplyDate.Format("2006-01-02")
			}
			changes = changes.Compare("supply_date", old, *req.SupplyDate)
			batch.SupplyDate = &d
		}
		if req.Source != nil {
			changes = changes.Compare("source", batch.Source, *req.Source)
			batch.Source = *req.Source
		}
		if req.Bottles25cl != nil {
			changes = changes.Compare("bottles_25cl", fmt.Sprint(batch.Bottles25cl), fmt.Sprint(*req.Bottles25cl))
			batch.Bottles25cl = *req.Bottles25cl
		}
		if req.Bottles75cl != nil {
			changes = changes.Compare("bottles_75cl", fmt.Sprint(batch.Bottles75cl), fmt.Sprint(*req.Bottles75cl))
			batch.Bottles75cl = *req.Bottles75cl
		}
		if req.Bottles1L != nil {
			changes = changes.Compare("bottles_1l", fmt.Sprint(batch.Bottles1L), fmt.Sprint(*req.Bottles1L))
			batch.Bottles1L = *req.Bottles1L
		}
		if req.Bottles4L != nil {
			changes = changes.Compare("bottles_4l", fmt.Sprint(batch.Bottles4L), fmt.Sprint(*req.Bottles4L))
			batch.Bottles4L = *req.Bottles4L
		}
		if req.Notes != nil {
			batch.Notes = *req.Notes
		}

		batch.UpdatedBy = actor
		if err := s.repo.UpdateTx(tx, batch); err != nil {
			return err
		}
		return s.audit.RecordChangesTx(tx, model.EntityBatch, batch.ID, actor, changes)
	})
	if txErr != nil {
		return nil, txErr
	}
	s.invalidateReports(ctx)
	return batchToResponse(batch), nil
}

func (s *batchService) Delete(ctx context.Context, id uuid.UUID) error {
	refs, err := s.repo.CountSaleRefs(ctx, id)
	if err != nil {
		return err
	}
	if refs > 0 {
		return fmt.Errorf("%w: %d active sale lines", ErrBatchInUse, refs)
	}
	return s.repo.Delete(ctx, id)
}

func (s *batchService) Deactivate(ctx context.Context, id uuid.UUID) error {
	return s.repo.Deactivate(ctx, id)
}

func (s *batchService) Reactivate(ctx context.Context, id uuid.UUID) error {
	return s.repo.Reactivate(ctx, id)
}

// AdjustStock is the manual correction path (spillage, remeasurement). The
// movement row and audit row commit with the adjustment.
func (s *batchService) AdjustStock(ctx context.Context, actor *uuid.UUID, id uuid.UUID, req dto.AdjustStockRequest) (*dto.BatchResponse, error) {
	if req.DeltaKg.IsZero() {
		return nil, fmt.Errorf("%w: delta_kg cannot be zero", ErrValidation)
	}

	var batch *model.Batch
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		batch, err = s.repo.FindByIDTx(tx, id)
		if err != nil {
			return fmt.Errorf("%w: batch %s", ErrNotFound, id)
		}
		rows, err := s.repo.AdjustStockTx(tx, id, req.DeltaKg)
		if err != nil {
			return err
		}
		if rows == 0 {
			return &InsufficientStockError{
				BatchCode:   batch.BatchCode,
				RequestedKg: req.DeltaKg.Neg(),
				AvailableKg: batch.RemainingKg,
			}
		}
		if err := s.movementRepo.CreateTx(tx, &model.StockMovement{
			BatchID:    batch.ID,
			Type:       model.MovementAdjust,
			QuantityKg: req.DeltaKg,
			KgBefore:   batch.RemainingKg,
			KgAfter:    batch.RemainingKg.Add(req.DeltaKg),
			Reason:     req.Reason,
		}); err != nil {
			return err
		}
		after := batch.RemainingKg.Add(req.DeltaKg)
		changes := changeSet{}.Compare("remaining_kg", batch.RemainingKg.String(), after.String())
		batch.RemainingKg = after
		return s.audit.RecordChangesTx(tx, model.EntityBatch, batch.ID, actor, changes)
	})
	if txErr != nil {
		return nil, txErr
	}
	s.invalidateReports(ctx)
	return batchToResponse(batch), nil
}

func (s *batchService) ListMovements(ctx context.Context, id uuid.UUID) ([]dto.StockMovementResponse, error) {
	movements, err := s.movementRepo.ListByBatch(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]dto.StockMovementResponse, 0, len(movements))
	for _, m := range movements {
		var saleID *string
		if m.SaleID != nil {
			v := m.SaleID.String()
			saleID = &v
		}
		out = append(out, dto.StockMovementResponse{
			ID:         m.ID.String(),
			BatchID:    m.BatchID.String(),
			Type:       m.Type,
			QuantityKg: m.QuantityKg,
			KgBefore:   m.KgBefore,
			KgAfter:    m.KgAfter,
			Reason:     m.Reason,
			SaleID:     saleID,
			CreatedAt:  m.CreatedAt.Format(time.RFC3339),
		})
	}
	return out, nil
}

func (s *batchService) invalidateReports(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateSummary(ctx); err != nil {
		log.Warn().Err(err).Msg("report cache invalidation failed")
	}
}

func batchToResponse(b *model.Batch) *dto.BatchResponse {
	supplyDate := ""
	if b.SupplyDate != nil {
		supplyDate = b.SupplyDate.Format("2006-01-02")
	}
	return &dto.BatchResponse{
		ID:            b.ID.String(),
		BatchCode:     b.BatchCode,
		Price:         b.Price,
		TransportCost: b.TransportCost,
		TotalCost:     b.TotalCost(),
		SupplyDate:    supplyDate,
		Source:        b.Source,
		InitialKg:     b.InitialKg,
		RemainingKg:   b.RemainingKg,
		Bottles25cl:   b.Bottles25cl,
		Bottles75cl:   b.Bottles75cl,
		Bottles1L:     b.Bottles1L,
		Bottles4L:     b.Bottles4L,
		TotalBottles:  b.TotalBottles(),
		Notes:         b.Notes,
		Active:        b.Active,
		CreatedAt:     b.CreatedAt.Format(time.RFC3339),
	}
}
