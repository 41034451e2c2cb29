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
	"gorm.io/gorm"
)

type CustomerService interface {
	Create(ctx context.Context, actor *uuid.UUID, req dto.CreateCustomerRequest) (*dto.CustomerResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.CustomerResponse, error)
	List(ctx context.Context, filter dto.CustomerFilter) (*dto.CustomerListResponse, error)
	Update(ctx context.Context, actor *uuid.UUID, id uuid.UUID, req dto.UpdateCustomerRequest) (*dto.CustomerResponse, error)
}

type customerService struct {
	repo repository.CustomerRepository
}

func NewCustomerService(repo repository.CustomerRepository) CustomerService {
	return &customerService{repo: repo}
}

func (s *customerService) Create(ctx context.Context, actor *uuid.UUID, req dto.CreateCustomerRequest) (*dto.CustomerResponse, error) {
	if _, err := s.repo.FindByName(ctx, req.Name); err == nil {
		return nil, fmt.Errorf("%w: customer %q already exists", ErrValidation, req.Name)
	}
	customer := model.Customer{
		Name:      req.Name,
		Phone:     req.Phone,
		Email:     req.Email,
		CreatedBy: actor,
		UpdatedBy: actor,
	}
	if err := s.repo.Create(ctx, &customer); err != nil {
		return nil, err
	}
	return customerToResponse(&customer), nil
}

func (s *customerService) Get(ctx context.Context, id uuid.UUID) (*dto.CustomerResponse, error) {
	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: customer %s", ErrNotFound, id)
		}
		return nil, err
	}
	return customerToResponse(customer), nil
}

func (s *customerService) List(ctx context.Context, filter dto.CustomerFilter) (*dto.CustomerListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	customers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.CustomerResponse, 0, len(customers))
	for i := range customers {
		items = append(items, *customerToResponse(&customers[i]))
	}
	return &dto.CustomerListResponse{Data: items, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *customerService) Update(ctx context.Context, actor *uuid.UUID, id uuid.UUID, req dto.UpdateCustomerRequest) (*dto.CustomerResponse, error) {
	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: customer %s", ErrNotFound, id)
	}
	if req.Name != nil {
		customer.Name = *req.Name
	}
	if req.Phone != nil {
		customer.Phone = *req.Phone
	}
	if req.Email != nil {
		customer.Email = *req.Email
	}
	customer.UpdatedBy = actor
	if err := s.repo.Update(ctx, customer); err != nil {
		return nil, err
	}
	return customerToResponse(customer), nil
}

func customerToResponse(c *model.Customer) *dto.CustomerResponse {
	return &dto.CustomerResponse{
		ID:        c.ID.String(),
		Name:      c.Name,
		Phone:     c.Phone,
		Email:     c.Email,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
	}
}
