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
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SaleService interface {
	Create(ctx context.Context, actor *uuid.UUID, req dto.CreateSaleRequest) (*dto.SaleResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.SaleResponse, error)
	// GetRecord returns the raw sale row with items and payments — used by the
	// receipt generator.
	GetRecord(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	List(ctx context.Context, filter dto.SaleFilter) (*dto.SaleListResponse, error)
	Update(ctx context.Context, actor *uuid.UUID, id uuid.UUID, req dto.UpdateSaleRequest) (*dto.SaleResponse, error)
	Archive(ctx context.Context, actor *uuid.UUID, id uuid.UUID, reason string) error
	Restore(ctx context.Context, actor *uuid.UUID, id uuid.UUID) (*dto.SaleResponse, error)
}

type saleService struct {
	repo         repository.SaleRepository
	batchRepo    repository.BatchRepository
	customerRepo repository.CustomerRepository
	paymentRepo  repository.PaymentRepository
	movementRepo repository.StockMovementRepository
	audit        AuditRecorder
	cache        ReportCacheInvalidator
}

func NewSaleService(
	repo repository.SaleRepository,
	batchRepo repository.BatchRepository,
	customerRepo repository.CustomerRepository,
	paymentRepo repository.PaymentRepository,
	movementRepo repository.StockMovementRepository,
	audit AuditRecorder,
	cache ReportCacheInvalidator,
) SaleService {
	return &saleService{
		repo:         repo,
		batchRepo:    batchRepo,
		customerRepo: customerRepo,
		paymentRepo:  paymentRepo,
		movementRepo: movementRepo,
		audit:        audit,
		cache:        cache,
	}
}

// ── Create ──────────────────────────────────────────────────────────────────
// One ACID transaction:
//  1. resolve or auto-create the customer by name
//  2. resolve every referenced batch, reject inactive or short-stocked ones
//  3. create the sale header + line items (status UNPAID, paid sum is zero)
//  4. decrement each batch's remaining stock and record a stock movement
// Any failure rolls the whole sale back — no partial stock decrements.

func (s *saleService) Create(ctx context.Context, actor *uuid.UUID, req dto.CreateSaleRequest) (*dto.SaleResponse, error) {
	for i, item := range req.Items {
		if !item.QuantityKg.IsPositive() {
			return nil, fmt.Errorf("%w: item %d quantity must be greater than zero", ErrValidation, i+1)
		}
		if item.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("%w: item %d unit price cannot be negative", ErrValidation, i+1)
		}
	}

	saleDate := time.Now()
	if req.SaleDate != "" {
		d, err := time.Parse("2006-01-02", req.SaleDate)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid sale_date", ErrValidation)
		}
		saleDate = d
	}

	var sale model.Sale
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		customer, err := s.customerRepo.GetOrCreateTx(tx, req.CustomerName, actor)
		if err != nil {
			return err
		}

		total := decimal.Zero
		items := make([]model.SaleItem, 0, len(req.Items))
		type resolvedBatch struct {
			batch *model.Batch
			qty   decimal.Decimal
		}
		resolved := make([]resolvedBatch, 0, len(req.Items))

		for _, item := range req.Items {
			batchID, err := uuid.Parse(item.BatchID)
			if err != nil {
				return fmt.Errorf("%w: invalid batch_id", ErrValidation)
			}
			batch, err := s.batchRepo.FindByIDTx(tx, batchID)
			if err != nil {
				return fmt.Errorf("%w: batch %s", ErrNotFound, item.BatchID)
			}
			if !batch.Active {
				return fmt.Errorf("%w: batch %s is inactive", ErrValidation, batch.BatchCode)
			}
			if batch.RemainingKg.LessThan(item.QuantityKg) {
				return &InsufficientStockError{
					BatchCode:   batch.BatchCode,
					RequestedKg: item.QuantityKg,
					AvailableKg: batch.RemainingKg,
				}
			}
			subtotal := item.UnitPrice.Mul(item.QuantityKg)
			total = total.Add(subtotal)
			items = append(items, model.SaleItem{
				BatchID:    batchID,
				BottleType: item.BottleType,
				QuantityKg: item.QuantityKg,
				UnitPrice:  item.UnitPrice,
				Subtotal:   subtotal,
			})
			resolved = append(resolved, resolvedBatch{batch: batch, qty: item.QuantityKg})
		}

		sale = model.Sale{
			CustomerID:    customer.ID,
			CustomerName:  customer.Name,
			SaleDate:      saleDate,
			TotalAmount:   total,
			PaymentStatus: model.StatusUnpaid,
			IsWholesale:   req.IsWholesale,
			Notes:         req.Notes,
			CreatedBy:     actor,
			UpdatedBy:     actor,
			Items:         items,
		}
		if err := s.repo.CreateTx(tx, &sale); err != nil {
			return err
		}

		for _, r := range resolved {
			if err := s.takeStockTx(tx, r.batch, r.qty, model.MovementSale,
				fmt.Sprintf("sale to %s", customer.Name), &sale.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.invalidateReports(ctx)
	return s.Get(ctx, sale.ID)
}

func (s *saleService) Get(ctx context.Context, id uuid.UUID) (*dto.SaleResponse, error) {
	sale, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: sale %s", ErrNotFound, id)
		}
		return nil, err
	}
	return saleToResponse(sale), nil
}

func (s *saleService) GetRecord(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	sale, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: sale %s", ErrNotFound, id)
	}
	return sale, nil
}

func (s *saleService) List(ctx context.Context, filter dto.SaleFilter) (*dto.SaleListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	sales, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.SaleListItem, 0, len(sales))
	for _, sale := range sales {
		paid := sale.AmountPaid()
		items = append(items, dto.SaleListItem{
			ID:            sale.ID.String(),
			CustomerName:  sale.CustomerName,
			SaleDate:      sale.SaleDate.Format("2006-01-02"),
			TotalAmount:   sale.TotalAmount,
			AmountPaid:    paid,
			AmountDue:     sale.TotalAmount.Sub(paid),
			PaymentStatus: string(sale.PaymentStatus),
			IsWholesale:   sale.IsWholesale,
			Archived:      sale.Archived,
			CreatedAt:     sale.CreatedAt.Format(time.RFC3339),
		})
	}
	return &dto.SaleListResponse{Data: items, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// ── Update ──────────────────────────────────────────────────────────────────
// Tracked-field edits land in the audit trail; line quantity edits apply the
// stock delta (new−old) under the usual insufficient-stock check; a changed
// total re-derives the payment status — all in one transaction.

func (s *saleService) Update(ctx context.Context, actor *uuid.UUID, id uuid.UUID, req dto.UpdateSaleRequest) (*dto.SaleResponse, error) {
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		sale, err := s.repo.FindByIDTx(tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: sale %s", ErrNotFound, id)
			}
			return err
		}
		if sale.Archived {
			return fmt.Errorf("%w: sale is archived", ErrValidation)
		}

		var changes changeSet

		if req.CustomerName != "" && req.CustomerName != sale.CustomerName {
			customer, err := s.customerRepo.GetOrCreateTx(tx, req.CustomerName, actor)
			if err != nil {
				return err
			}
			changes = changes.Compare("customer_name", sale.CustomerName, customer.Name)
			sale.CustomerID = customer.ID
			sale.CustomerName = customer.Name
		}
		if req.IsWholesale != nil && *req.IsWholesale != sale.IsWholesale {
			changes = changes.Compare("is_wholesale",
				fmt.Sprintf("%t", sale.IsWholesale), fmt.Sprintf("%t", *req.IsWholesale))
			sale.IsWholesale = *req.IsWholesale
		}
		if req.Notes != nil {
			sale.Notes = *req.Notes
		}

		for _, edit := range req.Items {
			itemID, err := uuid.Parse(edit.ItemID)
			if err != nil {
				return fmt.Errorf("%w: invalid item_id", ErrValidation)
			}
			if !edit.QuantityKg.IsPositive() {
				return fmt.Errorf("%w: quantity must be greater than zero", ErrValidation)
			}
			if edit.UnitPrice.IsNegative() {
				return fmt.Errorf("%w: unit price cannot be negative", ErrValidation)
			}

			var item *model.SaleItem
			for i := range sale.Items {
				if sale.Items[i].ID == itemID {
					item = &sale.Items[i]
					break
				}
			}
			if item == nil {
				return fmt.Errorf("%w: sale item %s", ErrNotFound, edit.ItemID)
			}
			// Item-level audit fields carry the line id so multi-line edits
			// stay attributable.
			fieldPrefix := "item." + itemID.String() + "."

			delta := edit.QuantityKg.Sub(item.QuantityKg)
			if !delta.IsZero() {
				batch, err := s.batchRepo.FindByIDTx(tx, item.BatchID)
				if err != nil {
					return fmt.Errorf("%w: batch for item %s: %v", ErrConsistency, edit.ItemID, err)
				}
				if delta.IsPositive() && batch.RemainingKg.LessThan(delta) {
					return &InsufficientStockError{
						BatchCode:   batch.BatchCode,
						RequestedKg: delta,
						AvailableKg: batch.RemainingKg,
					}
				}
				if err := s.moveStockTx(tx, batch, delta.Neg(), model.MovementEditDelta,
					"sale line quantity edited", &sale.ID); err != nil {
					return err
				}
				changes = changes.Compare(fieldPrefix+"quantity_kg", item.QuantityKg.String(), edit.QuantityKg.String())
				item.QuantityKg = edit.QuantityKg
			}
			if !edit.UnitPrice.Equal(item.UnitPrice) {
				changes = changes.Compare(fieldPrefix+"unit_price", item.UnitPrice.String(), edit.UnitPrice.String())
				item.UnitPrice = edit.UnitPrice
			}
			item.Subtotal = item.UnitPrice.Mul(item.QuantityKg)
			if err := s.repo.UpdateItemTx(tx, item); err != nil {
				return err
			}
		}

		newTotal := decimal.Zero
		for _, item := range sale.Items {
			newTotal = newTotal.Add(item.Subtotal)
		}
		totalChanged := !newTotal.Equal(sale.TotalAmount)
		if totalChanged {
			changes = changes.Compare("total_amount", sale.TotalAmount.String(), newTotal.String())
			sale.TotalAmount = newTotal
		}

		if totalChanged {
			paid, err := s.paymentRepo.SumBySaleTx(tx, sale.ID)
			if err != nil {
				return err
			}
			status := model.ComputePaymentStatus(sale.TotalAmount, paid)
			if status != sale.PaymentStatus {
				changes = changes.Compare("payment_status", string(sale.PaymentStatus), string(status))
				sale.PaymentStatus = status
			}
		}

		sale.UpdatedBy = actor
		if err := s.repo.UpdateTx(tx, sale); err != nil {
			return err
		}
		return s.audit.RecordChangesTx(tx, model.EntitySale, sale.ID, actor, changes)
	})
	if txErr != nil {
		return nil, txErr
	}

	s.invalidateReports(ctx)
	return s.Get(ctx, id)
}

// Archive soft-deletes a sale with a mandatory reason and returns each line's
// quantity to its batch.
func (s *saleService) Archive(ctx context.Context, actor *uuid.UUID, id uuid.UUID, reason string) error {
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		sale, err := s.repo.FindByIDTx(tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: sale %s", ErrNotFound, id)
			}
			return err
		}
		if sale.Archived {
			return fmt.Errorf("%w: sale is already archived", ErrValidation)
		}

		for _, item := range sale.Items {
			batch, err := s.batchRepo.FindByIDTx(tx, item.BatchID)
			if err != nil {
				return fmt.Errorf("%w: batch for archived sale: %v", ErrConsistency, err)
			}
			if err := s.moveStockTx(tx, batch, item.QuantityKg, model.MovementRestoreArchive,
				fmt.Sprintf("sale archived: %s", reason), &sale.ID); err != nil {
				return err
			}
		}

		now := time.Now()
		sale.Archived = true
		sale.ArchivedAt = &now
		sale.ArchivedReason = reason
		sale.ArchivedBy = actor
		sale.UpdatedBy = actor
		if err := s.repo.UpdateTx(tx, sale); err != nil {
			return err
		}
		return s.audit.RecordChangesTx(tx, model.EntitySale, sale.ID, actor,
			changeSet{}.Compare("archived", "false", "true"))
	})
	if txErr != nil {
		return txErr
	}
	s.invalidateReports(ctx)
	return nil
}

// Restore undoes a soft delete, re-taking stock from each referenced batch —
// subject to the same insufficient-stock check as a fresh sale.
func (s *saleService) Restore(ctx context.Context, actor *uuid.UUID, id uuid.UUID) (*dto.SaleResponse, error) {
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		sale, err := s.repo.FindByIDTx(tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: sale %s", ErrNotFound, id)
			}
			return err
		}
		if !sale.Archived {
			return fmt.Errorf("%w: sale is not archived", ErrValidation)
		}

		for _, item := range sale.Items {
			batch, err := s.batchRepo.FindByIDTx(tx, item.BatchID)
			if err != nil {
				return fmt.Errorf("%w: batch for restored sale: %v", ErrConsistency, err)
			}
			if batch.RemainingKg.LessThan(item.QuantityKg) {
				return &InsufficientStockError{
					BatchCode:   batch.BatchCode,
					RequestedKg: item.QuantityKg,
					AvailableKg: batch.RemainingKg,
				}
			}
			if err := s.takeStockTx(tx, batch, item.QuantityKg, model.MovementSale,
				"sale restored from archive", &sale.ID); err != nil {
				return err
			}
		}

		sale.Archived = false
		sale.ArchivedAt = nil
		sale.ArchivedReason = ""
		sale.ArchivedBy = nil
		sale.UpdatedBy = actor
		if err := s.repo.UpdateTx(tx, sale); err != nil {
			return err
		}
		return s.audit.RecordChangesTx(tx, model.EntitySale, sale.ID, actor,
			changeSet{}.Compare("archived", "true", "false"))
	})
	if txErr != nil {
		return nil, txErr
	}
	s.invalidateReports(ctx)
	return s.Get(ctx, id)
}

// takeStockTx removes qty from the batch. The guarded update is the last word
// on sufficiency: two concurrent sales racing for the same stock cannot both
// win it.
func (s *saleService) takeStockTx(tx *gorm.DB, batch *model.Batch, qty decimal.Decimal, movType, reason string, saleID *uuid.UUID) error {
	return s.moveStockTx(tx, batch, qty.Neg(), movType, reason, saleID)
}

// moveStockTx applies a signed delta to the batch's remaining stock and
// records the movement. delta < 0 takes stock, delta > 0 returns it.
func (s *saleService) moveStockTx(tx *gorm.DB, batch *model.Batch, delta decimal.Decimal, movType, reason string, saleID *uuid.UUID) error {
	rows, err := s.batchRepo.AdjustStockTx(tx, batch.ID, delta)
	if err != nil {
		return err
	}
	if rows == 0 {
		return &InsufficientStockError{
			BatchCode:   batch.BatchCode,
			RequestedKg: delta.Neg(),
			AvailableKg: batch.RemainingKg,
		}
	}
	return s.movementRepo.CreateTx(tx, &model.StockMovement{
		BatchID:    batch.ID,
		Type:       movType,
		QuantityKg: delta,
		KgBefore:   batch.RemainingKg,
		KgAfter:    batch.RemainingKg.Add(delta),
		Reason:     reason,
		SaleID:     saleID,
	})
}

func (s *saleService) invalidateReports(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateSummary(ctx); err != nil {
		log.Warn().Err(err).Msg("report cache invalidation failed")
	}
}

func saleToResponse(sale *model.Sale) *dto.SaleResponse {
	items := make([]dto.SaleItemResponse, 0, len(sale.Items))
	for _, item := range sale.Items {
		code := ""
		if item.Batch != nil {
			code = item.Batch.BatchCode
		}
		items = append(items, dto.SaleItemResponse{
			ID:         item.ID.String(),
			BatchID:    item.BatchID.String(),
			BatchCode:  code,
			BottleType: item.BottleType,
			QuantityKg: item.QuantityKg,
			UnitPrice:  item.UnitPrice,
			Subtotal:   item.Subtotal,
		})
	}
	payments := make([]dto.PaymentResponse, 0, len(sale.Payments))
	for _, p := range sale.Payments {
		payments = append(payments, paymentToResponse(&p))
	}
	paid := sale.AmountPaid()
	return &dto.SaleResponse{
		ID:             sale.ID.String(),
		CustomerID:     sale.CustomerID.String(),
		CustomerName:   sale.CustomerName,
		SaleDate:       sale.SaleDate.Format("2006-01-02"),
		Items:          items,
		TotalAmount:    sale.TotalAmount,
		AmountPaid:     paid,
		AmountDue:      sale.TotalAmount.Sub(paid),
		PaymentStatus:  string(sale.PaymentStatus),
		IsWholesale:    sale.IsWholesale,
		Notes:          sale.Notes,
		Payments:       payments,
		Archived:       sale.Archived,
		ArchivedReason: sale.ArchivedReason,
		CreatedAt:      sale.CreatedAt.Format(time.RFC3339),
	}
}
