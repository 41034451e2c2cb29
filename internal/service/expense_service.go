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

type ExpenseService interface {
	Create(ctx context.Context, actor *uuid.UUID, req dto.CreateExpenseRequest) (*dto.ExpenseResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.ExpenseResponse, error)
	List(ctx context.Context, filter dto.ExpenseFilter) (*dto.ExpenseListResponse, error)
	Update(ctx context.Context, actor *uuid.UUID, id uuid.UUID, req dto.UpdateExpenseRequest) (*dto.ExpenseResponse, error)
	Archive(ctx context.Context, actor *uuid.UUID, id uuid.UUID, reason string) error
	Restore(ctx context.Context, actor *uuid.UUID, id uuid.UUID) (*dto.ExpenseResponse, error)
}

type expenseService struct {
	repo  repository.ExpenseRepository
	audit AuditRecorder
	cache ReportCacheInvalidator
}

func NewExpenseService(repo repository.ExpenseRepository, audit AuditRecorder, cache ReportCacheInvalidator) ExpenseService {
	return &expenseService{repo: repo, audit: audit, cache: cache}
}

func (s *expenseService) Create(ctx context.Context, actor *uuid.UUID, req dto.CreateExpenseRequest) (*dto.ExpenseResponse, error) {
	if !req.Cost.IsPositive() {
		return nil, fmt.Errorf("%w: cost must be greater than zero", ErrValidation)
	}
	date, err := time.Parse("2006-01-02", req.ExpenseDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid expense_date", ErrValidation)
	}
	expense := model.Expense{
		Item:        req.Item,
		Cost:        req.Cost,
		ExpenseDate: date,
		Notes:       req.Notes,
		CreatedBy:   actor,
		UpdatedBy:   actor,
	}
	if err := s.repo.Create(ctx, &expense); err != nil {
		return nil, err
	}
	s.invalidateReports(ctx)
	return expenseToResponse(&expense), nil
}

func (s *expenseService) Get(ctx context.Context, id uuid.UUID) (*dto.ExpenseResponse, error) {
	expense, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: expense %s", ErrNotFound, id)
		}
		return nil, err
	}
	return expenseToResponse(expense), nil
}

func (s *expenseService) List(ctx context.Context, filter dto.ExpenseFilter) (*dto.ExpenseListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	expenses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ExpenseResponse, 0, len(expenses))
	for i := range expenses {
		items = append(items, *expenseToResponse(&expenses[i]))
	}
	return &dto.ExpenseListResponse{Data: items, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *expenseService) Update(ctx context.Context, actor *uuid.UUID, id uuid.UUID, req dto.UpdateExpenseRequest) (*dto.ExpenseResponse, error) {
	var expense *model.Expense
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		expense, err = s.repo.FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("%w: expense %s", ErrNotFound, id)
		}
		if expense.Archived {
			return fmt.Errorf("%w: expense is archived", ErrValidation)
		}

		var changes changeSet
		if req.Item != nil {
			changes = changes.Compare("item", expense.Item, *req.Item)
			expense.Item = *req.Item
		}
		if req.Cost != nil {
			if !req.Cost.IsPositive() {
				return fmt.Errorf("%w: cost must be greater than zero", ErrValidation)
			}
			changes = changes.Compare("cost", expense.Cost.String(), req.Cost.String())
			expense.Cost = *req.Cost
		}
		if req.ExpenseDate != nil {
			date, err := time.Parse("2006-01-02", *req.ExpenseDate)
			if err != nil {
				return fmt.Errorf("%w: invalid expense_date", ErrValidation)
			}
			changes = changes.Compare("expense_date", expense.ExpenseDate.Format("2006-01-02"), *req.ExpenseDate)
			expense.ExpenseDate = date
		}
		if req.Notes != nil {
			expense.Notes = *req.Notes
		}

		expense.UpdatedBy = actor
		if err := s.repo.UpdateTx(tx, expense); err != nil {
			return err
		}
		return s.audit.RecordChangesTx(tx, model.EntityExpense, expense.ID, actor, changes)
	})
	if txErr != nil {
		return nil, txErr
	}
	s.invalidateReports(ctx)
	return expenseToResponse(expense), nil
}

func (s *expenseService) Archive(ctx context.Context, actor *uuid.UUID, id uuid.UUID, reason string) error {
	expense, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: expense %s", ErrNotFound, id)
	}
	if expense.Archived {
		return fmt.Errorf("%w: expense is already archived", ErrValidation)
	}
	now := time.Now()
	expense.Archived = true
	expense.ArchivedAt = &now
	expense.ArchivedReason = reason
	expense.ArchivedBy = actor
	expense.UpdatedBy = actor
	if err := s.repo.Update(ctx, expense); err != nil {
		return err
	}
	s.invalidateReports(ctx)
	return nil
}

func (s *expenseService) Restore(ctx context.Context, actor *uuid.UUID, id uuid.UUID) (*dto.ExpenseResponse, error) {
	expense, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: expense %s", ErrNotFound, id)
	}
	if !expense.Archived {
		return nil, fmt.Errorf("%w: expense is not archived", ErrValidation)
	}
	expense.Archived = false
	expense.ArchivedAt = nil
	expense.ArchivedReason = ""
	expense.ArchivedBy = nil
	expense.UpdatedBy = actor
	if err := s.repo.Update(ctx, expense); err != nil {
		return nil, err
	}
	s.invalidateReports(ctx)
	return expenseToResponse(expense), nil
}

func (s *expenseService) invalidateReports(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateSummary(ctx); err != nil {
		log.Warn().Err(err).Msg("report cache invalidation failed")
	}
}

func expenseToResponse(e *model.Expense) *dto.ExpenseResponse {
	return &dto.ExpenseResponse{
		ID:          e.ID.String(),
		Item:        e.Item,
		Cost:        e.Cost,
		ExpenseDate: e.ExpenseDate.Format("2006-01-02"),
		Notes:       e.Notes,
		Archived:    e.Archived,
		CreatedAt:   e.CreatedAt.Format(time.RFC3339),
	}
}
