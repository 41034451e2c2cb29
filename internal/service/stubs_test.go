package service_test

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/walidyoshi/wals-honey-mgmt/internal/dto"
	"github.com/walidyoshi/wals-honey-mgmt/internal/model"
	"github.com/walidyoshi/wals-honey-mgmt/internal/repository"
	"github.com/walidyoshi/wals-honey-mgmt/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// In-memory stubs. Services open no real transaction when DB() returns nil,
// so every *Tx method here tolerates a nil tx.

// ── Sale repository ───────────────────────────────────────────────────────────

type stubSaleRepo struct {
	sales    map[uuid.UUID]*model.Sale
	payments *stubPaymentRepo
}

func newStubSaleRepo(payments *stubPaymentRepo) *stubSaleRepo {
	return &stubSaleRepo{sales: make(map[uuid.UUID]*model.Sale), payments: payments}
}

func (r *stubSaleRepo) DB() *gorm.DB { return nil }

func (r *stubSaleRepo) CreateTx(_ *gorm.DB, s *model.Sale) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	for i := range s.Items {
		if s.Items[i].ID == uuid.Nil {
			s.Items[i].ID = uuid.New()
		}
		s.Items[i].SaleID = s.ID
	}
	r.sales[s.ID] = s
	return nil
}

func (r *stubSaleRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Sale, error) {
	s, ok := r.sales[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := cloneSale(s)
	if r.payments != nil {
		cp.Payments = r.payments.forSale(id)
	}
	return cp, nil
}

func (r *stubSaleRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Sale, error) {
	s, ok := r.sales[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return cloneSale(s), nil
}

// cloneSale detaches a loaded row the way a real query would.
func cloneSale(s *model.Sale) *model.Sale {
	cp := *s
	cp.Items = append([]model.SaleItem(nil), s.Items...)
	return &cp
}

func (r *stubSaleRepo) List(_ context.Context, filter dto.SaleFilter) ([]model.Sale, int64, error) {
	var out []model.Sale
	for _, s := range r.sales {
		switch filter.Archived {
		case "true":
			if !s.Archived {
				continue
			}
		case "all":
		default:
			if s.Archived {
				continue
			}
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(s.CustomerName), strings.ToLower(filter.Search)) {
			continue
		}
		if filter.Status != "" && string(s.PaymentStatus) != filter.Status {
			continue
		}
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}

func (r *stubSaleRepo) UpdateTx(_ *gorm.DB, s *model.Sale) error {
	if _, ok := r.sales[s.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.sales[s.ID] = s
	return nil
}

func (r *stubSaleRepo) UpdateStatusTx(_ *gorm.DB, id uuid.UUID, status model.PaymentStatus) error {
	s, ok := r.sales[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.PaymentStatus = status
	return nil
}

func (r *stubSaleRepo) UpdateItemTx(_ *gorm.DB, item *model.SaleItem) error {
	s, ok := r.sales[item.SaleID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for i := range s.Items {
		if s.Items[i].ID == item.ID {
			s.Items[i] = *item
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

var _ repository.SaleRepository = (*stubSaleRepo)(nil)

// ── Payment repository ────────────────────────────────────────────────────────

type stubPaymentRepo struct {
	payments map[uuid.UUID]*model.Payment
}

func newStubPaymentRepo() *stubPaymentRepo {
	return &stubPaymentRepo{payments: make(map[uuid.UUID]*model.Payment)}
}

func (r *stubPaymentRepo) DB() *gorm.DB { return nil }

func (r *stubPaymentRepo) CreateTx(_ *gorm.DB, p *model.Payment) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.payments[p.ID] = p
	return nil
}

func (r *stubPaymentRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Payment, error) {
	p, ok := r.payments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubPaymentRepo) UpdateTx(_ *gorm.DB, p *model.Payment) error {
	if _, ok := r.payments[p.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *p
	r.payments[p.ID] = &cp
	return nil
}

func (r *stubPaymentRepo) DeleteTx(_ *gorm.DB, id uuid.UUID) error {
	delete(r.payments, id)
	return nil
}

func (r *stubPaymentRepo) ListBySale(_ context.Context, saleID uuid.UUID) ([]model.Payment, error) {
	return r.forSale(saleID), nil
}

func (r *stubPaymentRepo) SumBySaleTx(_ *gorm.DB, saleID uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, p := range r.payments {
		if p.SaleID == saleID {
			sum = sum.Add(p.Amount)
		}
	}
	return sum, nil
}

func (r *stubPaymentRepo) forSale(saleID uuid.UUID) []model.Payment {
	var out []model.Payment
	for _, p := range r.payments {
		if p.SaleID == saleID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PaidAt.Before(out[j].PaidAt) })
	return out
}

var _ repository.PaymentRepository = (*stubPaymentRepo)(nil)

// ── Batch repository ──────────────────────────────────────────────────────────

type stubBatchRepo struct {
	batches  map[uuid.UUID]*model.Batch
	saleRefs map[uuid.UUID]int64
	deleted  []uuid.UUID
}

func newStubBatchRepo() *stubBatchRepo {
	return &stubBatchRepo{
		batches:  make(map[uuid.UUID]*model.Batch),
		saleRefs: make(map[uuid.UUID]int64),
	}
}

func (r *stubBatchRepo) DB() *gorm.DB { return nil }

func (r *stubBatchRepo) Create(_ context.Context, b *model.Batch) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	r.batches[b.ID] = b
	return nil
}

func (r *stubBatchRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Batch, error) {
	b, ok := r.batches[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *stubBatchRepo) FindByCode(_ context.Context, code string) (*model.Batch, error) {
	// Active batch wins when deactivated rows share the code, matching the
	// SQL ordering.
	var inactive *model.Batch
	for _, b := range r.batches {
		if b.BatchCode != code {
			continue
		}
		if b.Active {
			cp := *b
			return &cp, nil
		}
		inactive = b
	}
	if inactive != nil {
		cp := *inactive
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubBatchRepo) List(_ context.Context, filter dto.BatchFilter) ([]model.Batch, int64, error) {
	var out []model.Batch
	for _, b := range r.batches {
		switch filter.Active {
		case "false":
			if b.Active {
				continue
			}
		case "all":
		default:
			if !b.Active {
				continue
			}
		}
		out = append(out, *b)
	}
	return out, int64(len(out)), nil
}

func (r *stubBatchRepo) Update(_ context.Context, b *model.Batch) error {
	r.batches[b.ID] = b
	return nil
}

func (r *stubBatchRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	b, ok := r.batches[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	b.Active = false
	return nil
}

func (r *stubBatchRepo) Reactivate(_ context.Context, id uuid.UUID) error {
	b, ok := r.batches[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	b.Active = true
	return nil
}

func (r *stubBatchRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.batches[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.batches, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *stubBatchRepo) CountSaleRefs(_ context.Context, id uuid.UUID) (int64, error) {
	return r.saleRefs[id], nil
}

func (r *stubBatchRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Batch, error) {
	b, ok := r.batches[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *stubBatchRepo) UpdateTx(_ *gorm.DB, b *model.Batch) error {
	r.batches[b.ID] = b
	return nil
}

func (r *stubBatchRepo) AdjustStockTx(_ *gorm.DB, id uuid.UUID, delta decimal.Decimal) (int64, error) {
	b, ok := r.batches[id]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	after := b.RemainingKg.Add(delta)
	if after.IsNegative() {
		return 0, nil
	}
	b.RemainingKg = after
	return 1, nil
}

var _ repository.BatchRepository = (*stubBatchRepo)(nil)

// ── Customer repository ───────────────────────────────────────────────────────

type stubCustomerRepo struct {
	customers map[uuid.UUID]*model.Customer
}

func newStubCustomerRepo() *stubCustomerRepo {
	return &stubCustomerRepo{customers: make(map[uuid.UUID]*model.Customer)}
}

func (r *stubCustomerRepo) DB() *gorm.DB { return nil }

func (r *stubCustomerRepo) Create(_ context.Context, c *model.Customer) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.customers[c.ID] = c
	return nil
}

func (r *stubCustomerRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (r *stubCustomerRepo) FindByName(_ context.Context, name string) (*model.Customer, error) {
	for _, c := range r.customers {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubCustomerRepo) GetOrCreateTx(_ *gorm.DB, name string, createdBy *uuid.UUID) (*model.Customer, error) {
	for _, c := range r.customers {
		if c.Name == name {
			return c, nil
		}
	}
	c := &model.Customer{ID: uuid.New(), Name: name, CreatedBy: createdBy}
	r.customers[c.ID] = c
	return c, nil
}

func (r *stubCustomerRepo) List(_ context.Context, filter dto.CustomerFilter) ([]model.Customer, int64, error) {
	var out []model.Customer
	for _, c := range r.customers {
		if filter.Search != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

func (r *stubCustomerRepo) Update(_ context.Context, c *model.Customer) error {
	r.customers[c.ID] = c
	return nil
}

var _ repository.CustomerRepository = (*stubCustomerRepo)(nil)

// ── Expense repository ────────────────────────────────────────────────────────

type stubExpenseRepo struct {
	expenses map[uuid.UUID]*model.Expense
}

func newStubExpenseRepo() *stubExpenseRepo {
	return &stubExpenseRepo{expenses: make(map[uuid.UUID]*model.Expense)}
}

func (r *stubExpenseRepo) DB() *gorm.DB { return nil }

func (r *stubExpenseRepo) Create(_ context.Context, e *model.Expense) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	r.expenses[e.ID] = e
	return nil
}

func (r *stubExpenseRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Expense, error) {
	e, ok := r.expenses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return e, nil
}

func (r *stubExpenseRepo) List(_ context.Context, filter dto.ExpenseFilter) ([]model.Expense, int64, error) {
	var out []model.Expense
	for _, e := range r.expenses {
		switch filter.Archived {
		case "true":
			if !e.Archived {
				continue
			}
		case "all":
		default:
			if e.Archived {
				continue
			}
		}
		out = append(out, *e)
	}
	return out, int64(len(out)), nil
}

func (r *stubExpenseRepo) Update(_ context.Context, e *model.Expense) error {
	r.expenses[e.ID] = e
	return nil
}

func (r *stubExpenseRepo) UpdateTx(_ *gorm.DB, e *model.Expense) error {
	r.expenses[e.ID] = e
	return nil
}

var _ repository.ExpenseRepository = (*stubExpenseRepo)(nil)

// ── Audit log repository ──────────────────────────────────────────────────────

type stubAuditRepo struct {
	logs []model.AuditLog
}

func (r *stubAuditRepo) DB() *gorm.DB { return nil }

func (r *stubAuditRepo) CreateTx(_ *gorm.DB, logs []model.AuditLog) error {
	for i := range logs {
		if logs[i].ID == uuid.Nil {
			logs[i].ID = uuid.New()
		}
	}
	r.logs = append(r.logs, logs...)
	return nil
}

func (r *stubAuditRepo) ListForEntity(_ context.Context, entityType string, entityID uuid.UUID) ([]model.AuditLog, error) {
	var out []model.AuditLog
	for _, l := range r.logs {
		if l.EntityType == entityType && l.EntityID == entityID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChangedAt.Before(out[j].ChangedAt) })
	return out, nil
}

// forField filters the captured rows by entity and field name.
func (r *stubAuditRepo) forField(entityType, field string) []model.AuditLog {
	var out []model.AuditLog
	for _, l := range r.logs {
		if l.EntityType == entityType && l.FieldName == field {
			out = append(out, l)
		}
	}
	return out
}

var _ repository.AuditLogRepository = (*stubAuditRepo)(nil)

// ── Stock movement repository ─────────────────────────────────────────────────

type stubMovementRepo struct {
	movements []model.StockMovement
}

func (r *stubMovementRepo) CreateTx(_ *gorm.DB, m *model.StockMovement) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.movements = append(r.movements, *m)
	return nil
}

func (r *stubMovementRepo) ListByBatch(_ context.Context, batchID uuid.UUID) ([]model.StockMovement, error) {
	var out []model.StockMovement
	for _, m := range r.movements {
		if m.BatchID == batchID {
			out = append(out, m)
		}
	}
	return out, nil
}

var _ repository.StockMovementRepository = (*stubMovementRepo)(nil)

// ── Report cache / mailer ─────────────────────────────────────────────────────

type countingCache struct {
	mu          sync.Mutex
	invalidated int
}

func (c *countingCache) InvalidateSummary(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated++
	return nil
}

func (c *countingCache) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.invalidated
}

var _ service.ReportCacheInvalidator = (*countingCache)(nil)

type capturingMailer struct {
	sent chan string // receives the recipient address
}

func newCapturingMailer() *capturingMailer {
	return &capturingMailer{sent: make(chan string, 4)}
}

func (m *capturingMailer) SendPaymentReceipt(to string, _ *model.Sale, _ *model.Payment) error {
	m.sent <- to
	return nil
}

var _ service.ReceiptMailer = (*capturingMailer)(nil)

// d parses a decimal literal or panics. Test inputs are compile-time
// constants, so a parse failure is a broken test, not a runtime condition.
func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}
