//go:build integration

package e2e

// End-to-end integration tests against real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./tests/e2e/... -v

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/walidyoshi/wals-honey-mgmt/internal/config"
	"github.com/walidyoshi/wals-honey-mgmt/internal/infra"
	"github.com/walidyoshi/wals-honey-mgmt/internal/model"
	"github.com/walidyoshi/wals-honey-mgmt/internal/router"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"golang.org/x/crypto/bcrypt"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer, token string) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, srv.URL+path, body)
	} else {
		req, err = http.NewRequest(method, srv.URL+path, nil)
	}
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

// ── Suite setup ──────────────────────────────────────────────────────────────

type testEnv struct {
	server *httptest.Server
	token  string // admin JWT
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("honey_test"),
		tcPostgres.WithUsername("honey"),
		tcPostgres.WithPassword("honey"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Port:               8000,
		Env:                "test",
		JWTSecret:          "test-secret-key",
		JWTExpirationHours: 8,
		JWTRefreshHours:    24,
		DatabaseURL:        pgURL,
		RedisURL:           rdURL,
		PDFStoragePath:     t.TempDir(),
		BusinessName:       "Wals Honey E2E",
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)
	require.NoError(t, infra.RunMigrations(db))

	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	// Seed an admin account.
	hash, err := bcrypt.GenerateFromPassword([]byte("honey2026"), 12)
	require.NoError(t, err)
	require.NoError(t, db.Create(&model.User{
		Username:     "admin",
		Name:         "Admin E2E",
		PasswordHash: string(hash),
		Role:         model.RoleAdmin,
		Active:       true,
	}).Error)

	srv := httptest.NewServer(router.New(cfg, db, rdb))
	t.Cleanup(srv.Close)

	loginResp := do(t, srv, "POST", "/v1/auth/login",
		jsonBody(t, map[string]string{"username": "admin", "password": "honey2026"}), "")
	require.Equal(t, http.StatusOK, loginResp.StatusCode)
	var loginBody struct {
		AccessToken string `json:"access_token"`
	}
	decodeJSON(t, loginResp, &loginBody)
	require.NotEmpty(t, loginBody.AccessToken)

	return &testEnv{server: srv, token: loginBody.AccessToken}
}

func (env *testEnv) createBatch(t *testing.T, code string, initialKg float64) string {
	t.Helper()
	resp := do(t, env.server, "POST", "/v1/batches",
		jsonBody(t, map[string]any{
			"batch_code": code,
			"price":      150000,
			"initial_kg": initialKg,
			"source":     "Oyo farm cooperative",
		}), env.token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var batch struct {
		ID string `json:"id"`
	}
	decodeJSON(t, resp, &batch)
	return batch.ID
}

func (env *testEnv) createSale(t *testing.T, batchID string, qty, unitPrice float64) string {
	t.Helper()
	resp := do(t, env.server, "POST", "/v1/sales",
		jsonBody(t, map[string]any{
			"customer_name": "Alhaji Musa",
			"items": []map[string]any{
				{"batch_id": batchID, "bottle_type": "75CL", "quantity_kg": qty, "unit_price": unitPrice},
			},
		}), env.token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var sale struct {
		ID string `json:"id"`
	}
	decodeJSON(t, resp, &sale)
	return sale.ID
}

func (env *testEnv) batchRemaining(t *testing.T, batchID string) string {
	t.Helper()
	resp := do(t, env.server, "GET", "/v1/batches/"+batchID, nil, env.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var batch struct {
		RemainingKg string `json:"remaining_kg"`
	}
	decodeJSON(t, resp, &batch)
	return batch.RemainingKg
}

// ── Tests ────────────────────────────────────────────────────────────────────

// Full cycle: batch → sale → partial payment → settling payment → PAID.
func TestE2E_SaleAndPaymentCycle(t *testing.T) {
	env := setupTestEnv(t)

	batchID := env.createBatch(t, "A24G02", 25)
	saleID := env.createSale(t, batchID, 10, 4000) // total 40000

	assert.Equal(t, "15", env.batchRemaining(t, batchID))

	payResp := do(t, env.server, "POST", "/v1/sales/"+saleID+"/payments",
		jsonBody(t, map[string]any{"amount": 25000, "method": "CASH"}), env.token)
	require.Equal(t, http.StatusCreated, payResp.StatusCode)
	var sale struct {
		PaymentStatus string `json:"payment_status"`
		AmountDue     string `json:"amount_due"`
	}
	decodeJSON(t, payResp, &sale)
	assert.Equal(t, "PARTIAL", sale.PaymentStatus)
	assert.Equal(t, "15000", sale.AmountDue)

	payResp = do(t, env.server, "POST", "/v1/sales/"+saleID+"/payments",
		jsonBody(t, map[string]any{"amount": 15000, "method": "TRANSFER"}), env.token)
	require.Equal(t, http.StatusCreated, payResp.StatusCode)
	decodeJSON(t, payResp, &sale)
	assert.Equal(t, "PAID", sale.PaymentStatus)

	listResp := do(t, env.server, "GET", "/v1/sales?status=PAID", nil, env.token)
	require.Equal(t, http.StatusOK, listResp.StatusCode)
	var list struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	decodeJSON(t, listResp, &list)
	require.Len(t, list.Data, 1)
	assert.Equal(t, saleID, list.Data[0].ID)
}

// Overpayment is rejected at entry and changes nothing.
func TestE2E_OverpaymentRejected(t *testing.T) {
	env := setupTestEnv(t)

	batchID := env.createBatch(t, "A24G02", 25)
	saleID := env.createSale(t, batchID, 10, 4000) // total 40000

	resp := do(t, env.server, "POST", "/v1/sales/"+saleID+"/payments",
		jsonBody(t, map[string]any{"amount": 50000, "method": "CASH"}), env.token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	getResp := do(t, env.server, "GET", "/v1/sales/"+saleID, nil, env.token)
	require.Equal(t, http.StatusOK, getResp.StatusCode)
	var sale struct {
		PaymentStatus string `json:"payment_status"`
		Payments      []any  `json:"payments"`
	}
	decodeJSON(t, getResp, &sale)
	assert.Equal(t, "UNPAID", sale.PaymentStatus)
	assert.Empty(t, sale.Payments)
}

// Selling more than the batch holds fails with a conflict and no stock change.
func TestE2E_InsufficientStock(t *testing.T) {
	env := setupTestEnv(t)

	batchID := env.createBatch(t, "A24G02", 5)

	resp := do(t, env.server, "POST", "/v1/sales",
		jsonBody(t, map[string]any{
			"customer_name": "Alhaji Musa",
			"items": []map[string]any{
				{"batch_id": batchID, "bottle_type": "1L", "quantity_kg": 8, "unit_price": 4000},
			},
		}), env.token)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	assert.Equal(t, "5", env.batchRemaining(t, batchID))
}

// Archiving a sale returns its stock; restoring takes it again.
func TestE2E_ArchiveRestoreStockRoundTrip(t *testing.T) {
	env := setupTestEnv(t)

	batchID := env.createBatch(t, "A24G02", 25)
	saleID := env.createSale(t, batchID, 10, 4000)
	require.Equal(t, "15", env.batchRemaining(t, batchID))

	archResp := do(t, env.server, "DELETE", "/v1/sales/"+saleID,
		jsonBody(t, map[string]any{"reason": "entered twice by mistake"}), env.token)
	assert.Equal(t, http.StatusNoContent, archResp.StatusCode)
	archResp.Body.Close()
	assert.Equal(t, "25", env.batchRemaining(t, batchID))

	// Hidden from default listing, visible with archived=true.
	listResp := do(t, env.server, "GET", "/v1/sales", nil, env.token)
	var list struct {
		Total int64 `json:"total"`
	}
	decodeJSON(t, listResp, &list)
	assert.Equal(t, int64(0), list.Total)

	restoreResp := do(t, env.server, "POST", "/v1/sales/"+saleID+"/restore", nil, env.token)
	require.Equal(t, http.StatusOK, restoreResp.StatusCode)
	restoreResp.Body.Close()
	assert.Equal(t, "15", env.batchRemaining(t, batchID))
}

// Tracked edits show up in the audit trail endpoint.
func TestE2E_AuditTrail(t *testing.T) {
	env := setupTestEnv(t)

	batchID := env.createBatch(t, "A24G02", 25)

	upResp := do(t, env.server, "PUT", "/v1/batches/"+batchID,
		jsonBody(t, map[string]any{"price": 160000}), env.token)
	require.Equal(t, http.StatusOK, upResp.StatusCode)
	upResp.Body.Close()

	auditResp := do(t, env.server, "GET", "/v1/audit/batch/"+batchID, nil, env.token)
	require.Equal(t, http.StatusOK, auditResp.StatusCode)
	var rows []struct {
		FieldName string  `json:"field_name"`
		OldValue  string  `json:"old_value"`
		NewValue  string  `json:"new_value"`
		ChangedBy *string `json:"changed_by"`
	}
	decodeJSON(t, auditResp, &rows)
	require.Len(t, rows, 1)
	assert.Equal(t, "price", rows[0].FieldName)
	assert.Equal(t, "150000", rows[0].OldValue)
	assert.Equal(t, "160000", rows[0].NewValue)
	require.NotNil(t, rows[0].ChangedBy)
}

// The cached summary is invalidated by mutations, so it always reflects
// the latest books.
func TestE2E_ReportSummaryTracksMutations(t *testing.T) {
	env := setupTestEnv(t)

	batchID := env.createBatch(t, "A24G02", 25)
	saleID := env.createSale(t, batchID, 10, 4000) // total 40000

	var summary struct {
		TotalSales  string `json:"total_sales"`
		TotalPaid   string `json:"total_paid"`
		NetProfit   string `json:"net_profit"`
		UnpaidCount int64       `json:"unpaid_count"`
		PaidCount   int64       `json:"paid_count"`
	}
	sumResp := do(t, env.server, "GET", "/v1/reports/summary", nil, env.token)
	require.Equal(t, http.StatusOK, sumResp.StatusCode)
	decodeJSON(t, sumResp, &summary)
	assert.Equal(t, "40000", summary.TotalSales)
	assert.Equal(t, int64(1), summary.UnpaidCount)

	// Settle the sale and add an expense; the next read must see both.
	payResp := do(t, env.server, "POST", "/v1/sales/"+saleID+"/payments",
		jsonBody(t, map[string]any{"amount": 40000, "method": "CASH"}), env.token)
	require.Equal(t, http.StatusCreated, payResp.StatusCode)
	payResp.Body.Close()

	expResp := do(t, env.server, "POST", "/v1/expenses",
		jsonBody(t, map[string]any{"item": "Bottles", "cost": 5000, "expense_date": "2026-02-10"}), env.token)
	require.Equal(t, http.StatusCreated, expResp.StatusCode)
	expResp.Body.Close()

	sumResp = do(t, env.server, "GET", "/v1/reports/summary", nil, env.token)
	require.Equal(t, http.StatusOK, sumResp.StatusCode)
	decodeJSON(t, sumResp, &summary)
	assert.Equal(t, "40000", summary.TotalPaid)
	assert.Equal(t, int64(0), summary.UnpaidCount)
	assert.Equal(t, int64(1), summary.PaidCount)
	// 40000 − 150000 batch cost − 5000 expenses
	assert.Equal(t, "-115000", summary.NetProfit)
}

// Unauthenticated and role-restricted access.
func TestE2E_AuthAndRoles(t *testing.T) {
	env := setupTestEnv(t)

	noAuth := do(t, env.server, "GET", "/v1/batches", nil, "")
	assert.Equal(t, http.StatusUnauthorized, noAuth.StatusCode)
	noAuth.Body.Close()

	// Create a staff user, log in, and hit an admin-only route.
	createResp := do(t, env.server, "POST", "/v1/users",
		jsonBody(t, map[string]any{
			"username": "staff1", "name": "Shop Staff",
			"password": "bottling-line-7", "role": "staff",
		}), env.token)
	require.Equal(t, http.StatusCreated, createResp.StatusCode)
	createResp.Body.Close()

	loginResp := do(t, env.server, "POST", "/v1/auth/login",
		jsonBody(t, map[string]string{"username": "staff1", "password": "bottling-line-7"}), "")
	require.Equal(t, http.StatusOK, loginResp.StatusCode)
	var staff struct {
		AccessToken string `json:"access_token"`
	}
	decodeJSON(t, loginResp, &staff)

	batchID := env.createBatch(t, "A24G02", 25)
	adjResp := do(t, env.server, "POST", "/v1/batches/"+batchID+"/adjust",
		jsonBody(t, map[string]any{"delta_kg": -1, "reason": "sampling"}), staff.AccessToken)
	assert.Equal(t, http.StatusForbidden, adjResp.StatusCode)
	adjResp.Body.Close()
}

// Deactivating a batch frees its code for a new lot; the unique index only
// covers active rows.
func TestE2E_BatchCodeReusableAfterDeactivation(t *testing.T) {
	env := setupTestEnv(t)

	batchID := env.createBatch(t, "A24G02", 25)

	dupResp := do(t, env.server, "POST", "/v1/batches",
		jsonBody(t, map[string]any{
			"batch_code": "A24G02",
			"price":      150000,
			"initial_kg": 10,
		}), env.token)
	assert.Equal(t, http.StatusBadRequest, dupResp.StatusCode)
	dupResp.Body.Close()

	deacResp := do(t, env.server, "POST", "/v1/batches/"+batchID+"/deactivate", nil, env.token)
	require.Equal(t, http.StatusNoContent, deacResp.StatusCode)
	deacResp.Body.Close()

	// Same code now inserts cleanly against the live schema.
	newID := env.createBatch(t, "A24G02", 10)
	assert.NotEqual(t, batchID, newID)
	assert.Equal(t, "10", env.batchRemaining(t, newID))
}
