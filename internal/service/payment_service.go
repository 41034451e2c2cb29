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

// ReceiptMailer sends a payment receipt. Best-effort, post-commit; a nil
// mailer disables receipts entirely.
type ReceiptMailer interface {
	SendPaymentReceipt(to string, sale *model.Sale, payment *model.Payment) error
}

// PaymentService owns the payment lifecycle and keeps the owning sale's
// payment status consistent with it. Every mutation runs exactly one
// transaction: payment write + status recompute + audit commit or roll back
// together, so a payment can never persist with a stale status.
type PaymentService interface {
	Record(ctx context.Context, actor *uuid.UUID, saleID uuid.UUID, req dto.RecordPaymentRequest) (*dto.SaleResponse, error)
	Update(ctx context.Context, actor *uuid.UUID, paymentID uuid.UUID, req dto.UpdatePaymentRequest) (*dto.SaleResponse, error)
	Delete(ctx context.Context, actor *uuid.UUID, paymentID uuid.UUID) (*dto.SaleResponse, error)
	ListBySale(ctx context.Context, saleID uuid.UUID) ([]dto.PaymentResponse, error)
}

type paymentService struct {
	repo     repository.PaymentRepository
	saleRepo repository.SaleRepository
	audit    AuditRecorder
	mailer   ReceiptMailer
	cache    ReportCacheInvalidator
}

func NewPaymentService(
	repo repository.PaymentRepository,
	saleRepo repository.SaleRepository,
	audit AuditRecorder,
	mailer ReceiptMailer,
	cache ReportCacheInvalidator,
) PaymentService {
	return &paymentService{repo: repo, saleRepo: saleRepo, audit: audit, mailer: mailer, cache: cache}
}

func (s *paymentService) Record(ctx context.Context, actor *uuid.UUID, saleID uuid.UUID, req dto.RecordPaymentRequest) (*dto.SaleResponse, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be greater than zero", ErrValidation)
	}

	var payment model.Payment
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		sale, err := s.saleRepo.FindByIDTx(tx, saleID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: sale %s", ErrNotFound, saleID)
			}
			return err
		}
		if sale.Archived {
			return fmt.Errorf("%w: sale is archived", ErrValidation)
		}

		paid, err := s.repo.SumBySaleTx(tx, saleID)
		if err != nil {
			return err
		}
		if paid.Add(req.Amount).GreaterThan(sale.TotalAmount) {
			return fmt.Errorf("%w: %s due", ErrOverpayment, sale.TotalAmount.Sub(paid).String())
		}

		payment = model.Payment{
			SaleID:    saleID,
			Amount:    req.Amount,
			Method:    req.Method,
			PaidAt:    time.Now(),
			Notes:     req.Notes,
			CreatedBy: actor,
		}
		if err := s.repo.CreateTx(tx, &payment); err != nil {
			return err
		}
		return s.recomputeStatusTx(tx, saleID)
	})
	if txErr != nil {
		return nil, txErr
	}

	s.invalidateReports(ctx)
	refreshed, err := s.reloadSale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	s.mailReceipt(refreshed, &payment)
	return refreshed, nil
}

func (s *paymentService) Update(ctx context.Context, actor *uuid.UUID, paymentID uuid.UUID, req dto.UpdatePaymentRequest) (*dto.SaleResponse, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be greater than zero", ErrValidation)
	}

	payment, err := s.repo.FindByID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("%w: payment %s", ErrNotFound, paymentID)
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		sale, err := s.saleRepo.FindByIDTx(tx, payment.SaleID)
		if err != nil {
			return fmt.Errorf("%w: sale for payment %s: %v", ErrConsistency, paymentID, err)
		}
		if sale.Archived {
			return fmt.Errorf("%w: sale is archived", ErrValidation)
		}

		paid, err := s.repo.SumBySaleTx(tx, payment.SaleID)
		if err != nil {
			return err
		}
		// Replace the old amount with the new one in the projected sum.
		if paid.Sub(payment.Amount).Add(req.Amount).GreaterThan(sale.TotalAmount) {
			return fmt.Errorf("%w: %s due", ErrOverpayment, sale.TotalAmount.Sub(paid.Sub(payment.Amount)).String())
		}

		var changes changeSet
		changes = changes.Compare("amount", payment.Amount.String(), req.Amount.String())
		payment.Amount = req.Amount
		if req.Method != "" {
			changes = changes.Compare("method", payment.Method, req.Method)
			payment.Method = req.Method
		}
		if req.Notes != nil {
			payment.Notes = *req.Notes
		}
		if err := s.repo.UpdateTx(tx, payment); err != nil {
			return err
		}
		if err := s.audit.RecordChangesTx(tx, model.EntityPayment, payment.ID, actor, changes); err != nil {
			return err
		}
		return s.recomputeStatusTx(tx, payment.SaleID)
	})
	if txErr != nil {
		return nil, txErr
	}

	s.invalidateReports(ctx)
	return s.reloadSale(ctx, payment.SaleID)
}

func (s *paymentService) Delete(ctx context.Context, actor *uuid.UUID, paymentID uuid.UUID) (*dto.SaleResponse, error) {
	payment, err := s.repo.FindByID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("%w: payment %s", ErrNotFound, paymentID)
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		sale, err := s.saleRepo.FindByIDTx(tx, payment.SaleID)
		if err != nil {
			return fmt.Errorf("%w: sale for payment %s: %v", ErrConsistency, paymentID, err)
		}
		if sale.Archived {
			return fmt.Errorf("%w: sale is archived", ErrValidation)
		}

		snapshot := map[string]string{
			"sale_id": payment.SaleID.String(),
			"amount":  payment.Amount.String(),
			"method":  payment.Method,
			"paid_at": payment.PaidAt.Format(time.RFC3339),
		}
		if err := s.audit.RecordDeletionTx(tx, model.EntityPayment, payment.ID, actor, snapshot); err != nil {
			return err
		}
		if err := s.repo.DeleteTx(tx, paymentID); err != nil {
			return err
		}
		return s.recomputeStatusTx(tx, payment.SaleID)
	})
	if txErr != nil {
		return nil, txErr
	}

	s.invalidateReports(ctx)
	return s.reloadSale(ctx, payment.SaleID)
}

func (s *paymentService) ListBySale(ctx context.Context, saleID uuid.UUID) ([]dto.PaymentResponse, error) {
	payments, err := s.repo.ListBySale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PaymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, paymentToResponse(&p))
	}
	return out, nil
}

// recomputeStatusTx is the mutation hook: re-derive the sale's payment status
// from the current sum of its payments and persist it — always inside the
// transaction of the triggering payment mutation. A sale that cannot be
// resolved here aborts that transaction.
func (s *paymentService) recomputeStatusTx(tx *gorm.DB, saleID uuid.UUID) error {
	sale, err := s.saleRepo.FindByIDTx(tx, saleID)
	if err != nil {
		return fmt.Errorf("%w: sale %s: %v", ErrConsistency, saleID, err)
	}
	paid, err := s.repo.SumBySaleTx(tx, saleID)
	if err != nil {
		return err
	}
	status := model.ComputePaymentStatus(sale.TotalAmount, paid)
	return s.saleRepo.UpdateStatusTx(tx, saleID, status)
}

func (s *paymentService) reloadSale(ctx context.Context, saleID uuid.UUID) (*dto.SaleResponse, error) {
	sale, err := s.saleRepo.FindByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	return saleToResponse(sale), nil
}

func (s *paymentService) mailReceipt(sale *dto.SaleResponse, payment *model.Payment) {
	if s.mailer == nil {
		return
	}
	full, err := s.saleRepo.FindByID(context.Background(), payment.SaleID)
	if err != nil || full.Customer == nil || full.Customer.Email == "" {
		return
	}
	// Fire and forget — receipt delivery never blocks or fails the mutation.
	go func() {
		if err := s.mailer.SendPaymentReceipt(full.Customer.Email, full, payment); err != nil {
			log.Warn().Err(err).Str("sale_id", sale.ID).Msg("payment receipt mail failed")
		}
	}()
}

func (s *paymentService) invalidateReports(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateSummary(ctx); err != nil {
		log.Warn().Err(err).Msg("report cache invalidation failed")
	}
}

func paymentToResponse(p *model.Payment) dto.PaymentResponse {
	return dto.PaymentResponse{
		ID:     p.ID.String(),
		SaleID: p.SaleID.String(),
		Amount: p.Amount,
		Method: p.Method,
		PaidAt: p.PaidAt.Format(time.RFC3339),
		Notes:  p.Notes,
	}
}
