package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/walidyoshi/wals-honey-mgmt/internal/dto"
	"github.com/walidyoshi/wals-honey-mgmt/internal/model"
	"github.com/walidyoshi/wals-honey-mgmt/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type batchFixture struct {
	svc       service.BatchService
	batches   *stubBatchRepo
	movements *stubMovementRepo
	audit     *stubAuditRepo
	cache     *countingCache
}

func buildBatchSvc() *batchFixture {
	f := &batchFixture{
		batches:   newStubBatchRepo(),
		movements: &stubMovementRepo{},
		audit:     &stubAuditRepo{},
		cache:     &countingCache{},
	}
	f.svc = service.NewBatchService(f.batches, f.movements, service.NewAuditRecorder(f.audit), f.cache)
	return f
}

func createBatchReq(code string) dto.CreateBatchRequest {
	return dto.CreateBatchRequest{
		BatchCode: code,
		Price:     d("150000"),
		InitialKg: d("25.00"),
		Source:    "Oyo farm cooperative",
	}
}

func TestCreateBatch(t *testing.T) {
	f := buildBatchSvc()
	actor := uuid.New()
	transport := d("8000")

	req := createBatchReq("A24G02")
	req.TransportCost = &transport
	req.SupplyDate = "2026-03-14"
	req.Bottles75cl = 30

	resp, err := f.svc.Create(context.Background(), &actor, req)
	require.NoError(t, err)
	assert.Equal(t, "A24G02", resp.BatchCode)
	assert.True(t, resp.RemainingKg.Equal(d("25")))
	assert.True(t, resp.TotalCost.Equal(d("158000")))
	assert.Equal(t, "2026-03-14", resp.SupplyDate)
	assert.True(t, resp.Active)
	assert.Equal(t, 1, f.cache.count())
}

func TestCreateBatch_InvalidCode(t *testing.T) {
	f := buildBatchSvc()
	actor := uuid.New()

	for _, code := range []string{"", "a24g02", "A24X02", "A2402", "AA24G02"} {
		_, err := f.svc.Create(context.Background(), &actor, createBatchReq(code))
		assert.ErrorIs(t, err, service.ErrValidation, code)
	}
	assert.Empty(t, f.batches.batches)
}

func TestCreateBatch_DuplicateActiveCode(t *testing.T) {
	f := buildBatchSvc()
	actor := uuid.New()
	ctx := context.Background()

	_, err := f.svc.Create(ctx, &actor, createBatchReq("A24G02"))
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, &actor, createBatchReq("A24G02"))
	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestCreateBatch_DeactivatedCodeReusable(t *testing.T) {
	f := buildBatchSvc()
	actor := uuid.New()
	ctx := context.Background()

	resp, err := f.svc.Create(ctx, &actor, createBatchReq("A24G02"))
	require.NoError(t, err)
	require.NoError(t, f.svc.Deactivate(ctx, uuid.MustParse(resp.ID)))

	_, err = f.svc.Create(ctx, &actor, createBatchReq("A24G02"))
	assert.NoError(t, err)
}

func TestCreateBatch_ActiveHolderStillBlocksReusedCode(t *testing.T) {
	f := buildBatchSvc()
	actor := uuid.New()
	ctx := context.Background()

	// Retired row and a live row share the code; the live one must win the
	// duplicate check regardless of lookup order.
	resp, err := f.svc.Create(ctx, &actor, createBatchReq("A24G02"))
	require.NoError(t, err)
	require.NoError(t, f.svc.Deactivate(ctx, uuid.MustParse(resp.ID)))

	_, err = f.svc.Create(ctx, &actor, createBatchReq("A24G02"))
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, &actor, createBatchReq("A24G02"))
	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestCreateBatch_RejectsBadAmounts(t *testing.T) {
	f := buildBatchSvc()
	actor := uuid.New()
	ctx := context.Background()

	req := createBatchReq("A24G02")
	req.Price = d("-1")
	_, err := f.svc.Create(ctx, &actor, req)
	assert.ErrorIs(t, err, service.ErrValidation)

	req = createBatchReq("A24G02")
	req.InitialKg = decimal.Zero
	_, err = f.svc.Create(ctx, &actor, req)
	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestUpdateBatch_AuditsChangedFields(t *testing.T) {
	f := buildBatchSvc()
	actor := uuid.New()
	ctx := context.Background()

	resp, err := f.svc.Create(ctx, &actor, createBatchReq("A24G02"))
	require.NoError(t, err)
	id := uuid.MustParse(resp.ID)

	newPrice := d("160000")
	source := "Kwara apiary"
	resp, err = f.svc.Update(ctx, &actor, id, dto.UpdateBatchRequest{
		Price:  &newPrice,
		Source: &source,
	})
	require.NoError(t, err)
	assert.True(t, resp.Price.Equal(d("160000")))
	assert.Equal(t, "Kwara apiary", resp.Source)

	priceRows := f.audit.forField(model.EntityBatch, "price")
	require.Len(t, priceRows, 1)
	assert.Equal(t, "150000", priceRows[0].OldValue)
	assert.Equal(t, "160000", priceRows[0].NewValue)
	assert.Equal(t, &actor, priceRows[0].ChangedBy)
	require.Len(t, f.audit.forField(model.EntityBatch, "source"), 1)
}

func TestUpdateBatch_NoOpWritesNoAudit(t *testing.T) {
	f := buildBatchSvc()
	actor := uuid.New()
	ctx := context.Background()

	resp, err := f.svc.Create(ctx, &actor, createBatchReq("A24G02"))
	require.NoError(t, err)

	samePrice := d("150000")
	_, err = f.svc.Update(ctx, &actor, uuid.MustParse(resp.ID), dto.UpdateBatchRequest{Price: &samePrice})
	require.NoError(t, err)
	assert.Empty(t, f.audit.logs)
}

func TestUpdateBatch_NotFound(t *testing.T) {
	f := buildBatchSvc()
	actor := uuid.New()

	price := d("1")
	_, err := f.svc.Update(context.Background(), &actor, uuid.New(), dto.UpdateBatchRequest{Price: &price})
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestDeleteBatch_BlockedWhenReferenced(t *testing.T) {
	f := buildBatchSvc()
	actor := uuid.New()
	ctx := context.Background()

	resp, err := f.svc.Create(ctx, &actor, createBatchReq("A24G02"))
	require.NoError(t, err)
	id := uuid.MustParse(resp.ID)
	f.batches.saleRefs[id] = 3

	err = f.svc.Delete(ctx, id)
	assert.ErrorIs(t, err, service.ErrBatchInUse)
	assert.Contains(t, f.batches.batches, id)

	// Deactivation stays available for referenced batches.
	require.NoError(t, f.svc.Deactivate(ctx, id))
	assert.False(t, f.batches.batches[id].Active)
	require.NoError(t, f.svc.Reactivate(ctx, id))
	assert.True(t, f.batches.batches[id].Active)
}

func TestDeleteBatch_Unreferenced(t *testing.T) {
	f := buildBatchSvc()
	actor := uuid.New()
	ctx := context.Background()

	resp, err := f.svc.Create(ctx, &actor, createBatchReq("A24G02"))
	require.NoError(t, err)
	id := uuid.MustParse(resp.ID)

	require.NoError(t, f.svc.Delete(ctx, id))
	assert.NotContains(t, f.batches.batches, id)
}

func TestAdjustStock(t *testing.T) {
	f := buildBatchSvc()
	actor := uuid.New()
	ctx := context.Background()

	resp, err := f.svc.Create(ctx, &actor, createBatchReq("A24G02"))
	require.NoError(t, err)
	id := uuid.MustParse(resp.ID)

	resp, err = f.svc.AdjustStock(ctx, &actor, id, dto.AdjustStockRequest{
		DeltaKg: d("-2.50"),
		Reason:  "spillage during bottling",
	})
	require.NoError(t, err)
	assert.True(t, resp.RemainingKg.Equal(d("22.5")))

	require.Len(t, f.movements.movements, 1)
	m := f.movements.movements[0]
	assert.Equal(t, model.MovementAdjust, m.Type)
	assert.True(t, m.QuantityKg.Equal(d("-2.5")))
	assert.True(t, m.KgBefore.Equal(d("25")))
	assert.True(t, m.KgAfter.Equal(d("22.5")))
	assert.Equal(t, "spillage during bottling", m.Reason)

	rows := f.audit.forField(model.EntityBatch, "remaining_kg")
	require.Len(t, rows, 1)
	assert.Equal(t, "25", rows[0].OldValue)
	assert.Equal(t, "22.5", rows[0].NewValue)
}

func TestAdjustStock_CannotGoNegative(t *testing.T) {
	f := buildBatchSvc()
	actor := uuid.New()
	ctx := context.Background()

	resp, err := f.svc.Create(ctx, &actor, createBatchReq("A24G02"))
	require.NoError(t, err)
	id := uuid.MustParse(resp.ID)

	_, err = f.svc.AdjustStock(ctx, &actor, id, dto.AdjustStockRequest{
		DeltaKg: d("-30"),
		Reason:  "remeasured after bottling",
	})
	var stockErr *service.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, "A24G02", stockErr.BatchCode)
	assert.True(t, f.batches.batches[id].RemainingKg.Equal(d("25")))
	assert.Empty(t, f.movements.movements)
}

func TestAdjustStock_ZeroDelta(t *testing.T) {
	f := buildBatchSvc()
	actor := uuid.New()

	_, err := f.svc.AdjustStock(context.Background(), &actor, uuid.New(), dto.AdjustStockRequest{
		DeltaKg: decimal.Zero,
		Reason:  "noop",
	})
	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestListBatches_ActiveFilter(t *testing.T) {
	f := buildBatchSvc()
	actor := uuid.New()
	ctx := context.Background()

	a, err := f.svc.Create(ctx, &actor, createBatchReq("A24G02"))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, &actor, createBatchReq("B24G03"))
	require.NoError(t, err)
	require.NoError(t, f.svc.Deactivate(ctx, uuid.MustParse(a.ID)))

	out, err := f.svc.List(ctx, dto.BatchFilter{})
	require.NoError(t, err)
	require.Len(t, out.Data, 1)
	assert.Equal(t, "B24G03", out.Data[0].BatchCode)

	out, err = f.svc.List(ctx, dto.BatchFilter{Active: "all"})
	require.NoError(t, err)
	assert.Len(t, out.Data, 2)
}

func TestListMovements(t *testing.T) {
	f := buildBatchSvc()
	actor := uuid.New()
	ctx := context.Background()

	resp, err := f.svc.Create(ctx, &actor, createBatchReq("A24G02"))
	require.NoError(t, err)
	id := uuid.MustParse(resp.ID)

	_, err = f.svc.AdjustStock(ctx, &actor, id, dto.AdjustStockRequest{DeltaKg: d("-1"), Reason: "sampling"})
	require.NoError(t, err)
	_, err = f.svc.AdjustStock(ctx, &actor, id, dto.AdjustStockRequest{DeltaKg: d("0.5"), Reason: "remeasured"})
	require.NoError(t, err)

	out, err := f.svc.ListMovements(ctx, id)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, model.MovementAdjust, out[0].Type)
	assert.True(t, out[1].KgAfter.Equal(d("24.5")))
}
