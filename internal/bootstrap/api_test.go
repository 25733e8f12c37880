package bootstrap_test

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"

	appcashbox "github.com/erp/treasury/internal/application/cashbox"
	appstore "github.com/erp/treasury/internal/application/store"
	apptrade "github.com/erp/treasury/internal/application/trade"
	"github.com/erp/treasury/internal/bootstrap"
	"github.com/erp/treasury/internal/domain/shared"
	"github.com/erp/treasury/internal/infrastructure/cache"
	"github.com/erp/treasury/internal/infrastructure/config"
	"github.com/erp/treasury/internal/infrastructure/event"
	"github.com/erp/treasury/internal/interfaces/http/handler"
	"github.com/erp/treasury/internal/interfaces/http/router"
	"github.com/erp/treasury/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type memoryArchive struct {
	mu      sync.Mutex
	objects map[string]any
}

func (a *memoryArchive) Key(parts ...string) string { return strings.Join(parts, "/") }

func (a *memoryArchive) PutJSON(_ context.Context, key string, v any) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.objects[key] = v
	return nil
}

func (a *memoryArchive) keys() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.objects))
	for k := range a.objects {
		out = append(out, k)
	}
	return out
}

type alertRecorder struct {
	mu     sync.Mutex
	alerts []appcashbox.DiscrepancyAlert
}

func (r *alertRecorder) SendDiscrepancyAlert(_ context.Context, alert appcashbox.DiscrepancyAlert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, alert)
	return nil
}

type apiFixture struct {
	engine  http.Handler
	archive *memoryArchive
	alerts  *alertRecorder
}

func newAPI(t *testing.T) apiFixture {
	t.Helper()

	log := zaptest.NewLogger(t)
	db := testutil.NewSQLiteDB(t)
	bus := event.NewInMemoryEventBus(log)
	idem := cache.NewInMemoryIdempotencyStore()

	services := bootstrap.NewServices(bootstrap.Deps{
		DB:                db,
		Events:            bus,
		Idempotency:       idem,
		IdempotencyConfig: shared.DefaultIdempotencyConfig(),
		Logger:            log,
	})

	fx := apiFixture{archive: &memoryArchive{objects: map[string]any{}}, alerts: &alertRecorder{}}
	services.Subscribe(bus, bootstrap.Subscribers{
		AlertThreshold: decimal.NewFromInt(100),
		Notifier:       fx.alerts,
		Archive:        fx.archive,
		Dedup:          idem,
		DedupConfig:    shared.DefaultIdempotencyConfig(),
	})

	system := handler.NewSystemHandler("treasury", "test", map[string]handler.HealthCheck{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	})
	fx.engine = router.NewEngine(router.EngineOptions{
		App:    config.AppConfig{Name: "treasury", Env: "test"},
		JWT:    config.JWTConfig{AllowHeaderIdentity: true},
		Logger: log,
	}, services.Handlers(system))
	return fx
}

func requireDecimal(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	require.Truef(t, decimal.RequireFromString(expected).Equal(actual), "expected %s, got %s", expected, actual)
}

func TestAPI_RegisterDay(t *testing.T) {
	fx := newAPI(t)
	api := testutil.NewAPIClient(t, fx.engine, uuid.New(), uuid.New())

	st := testutil.DecodeData[appstore.StoreResponse](t,
		api.Post("/api/v1/stores", map[string]string{"code": "S001", "name": "Main street"}), http.StatusCreated)
	require.NotNil(t, st.Cashbox)
	cashboxID := st.Cashbox.ID

	session := testutil.DecodeData[appcashbox.SessionResponse](t,
		api.Post("/api/v1/cashboxes/"+cashboxID.String()+"/sessions", map[string]any{
			"opening_balance": "10000",
			"opening_count":   map[string]int{"note_10000": 1},
		}), http.StatusCreated)
	assert.Equal(t, "OPEN", session.Status)

	errInfo := testutil.DecodeError(t, api.Post("/api/v1/cashboxes/"+cashboxID.String()+"/sessions",
		map[string]any{"opening_balance": "10000"}), http.StatusConflict)
	assert.Equal(t, "ALREADY_OPEN_SESSION", errInfo.Code)
	assert.Equal(t, session.ID.String(), errInfo.Details["existing_session_id"])

	sale := testutil.DecodeData[apptrade.SaleResponse](t, api.Post("/api/v1/sales", map[string]any{
		"store_id":        st.ID,
		"total_amount":    "5000",
		"channel":         "cash",
		"initial_payment": "5000",
	}), http.StatusCreated)
	requireDecimal(t, "0", sale.Remaining)

	sid := session.ID.String()
	body := map[string]any{
		"session_id": sid,
		"direction":  "in",
		"category":   "other",
		"channel":    "cash",
		"amount":     "500",
	}
	key := map[string]string{"Idempotency-Key": "float-top-up-1"}
	first := testutil.DecodeData[appcashbox.MovementResponse](t, api.Post("/api/v1/movements", body, key), http.StatusCreated)
	replay := testutil.DecodeData[appcashbox.MovementResponse](t, api.Post("/api/v1/movements", body, key), http.StatusCreated)
	assert.Equal(t, first.ID, replay.ID)

	current := testutil.DecodeData[handler.CurrentBalanceResponse](t,
		api.Get("/api/v1/cashboxes/"+cashboxID.String()+"/balance"), http.StatusOK)
	requireDecimal(t, "15500", decimal.RequireFromString(current.Balance))

	computed := testutil.DecodeData[appcashbox.BalanceResponse](t,
		api.Get("/api/v1/balances/cash?store_id="+st.ID.String()), http.StatusOK)
	requireDecimal(t, "15500", computed.Balance)
	assert.NotEmpty(t, computed.Components)

	overdraw := map[string]any{
		"store_id":  st.ID,
		"direction": "out",
		"category":  "other",
		"channel":   "cash",
		"amount":    "100000",
	}
	errInfo = testutil.DecodeError(t, api.Post("/api/v1/movements", overdraw), http.StatusUnprocessableEntity)
	assert.Equal(t, "INSUFFICIENT_FUNDS", errInfo.Code)
	assert.Equal(t, "cash", errInfo.Details["channel"])
	assert.Equal(t, "15500", errInfo.Details["available"])
	assert.Equal(t, "100000", errInfo.Details["requested"])

	testutil.DecodeData[appcashbox.CashCountResponse](t, api.Post("/api/v1/sessions/"+sid+"/counts", map[string]any{
		"count_type": "interim",
		"quantities": map[string]int{"note_10000": 1, "note_5000": 1},
	}), http.StatusCreated)

	summary := testutil.DecodeData[appcashbox.SessionSummary](t, api.Get("/api/v1/sessions/"+sid+"/summary"), http.StatusOK)
	requireDecimal(t, "15500", summary.Expected)
	assert.Equal(t, 2, summary.CountCount)

	movements := api.Get("/api/v1/sessions/" + sid + "/movements?page_size=10")
	list := testutil.DecodeData[[]appcashbox.MovementResponse](t, movements, http.StatusOK)
	assert.Len(t, list, 2)
	assert.Equal(t, int64(2), testutil.DecodeMeta(t, movements).Total)

	closed := testutil.DecodeData[appcashbox.SessionResponse](t, api.Post("/api/v1/sessions/"+sid+"/close", map[string]any{
		"actual_closing_balance": "15300",
	}), http.StatusOK)
	assert.Equal(t, "CLOSED", closed.Status)
	require.NotNil(t, closed.Discrepancy)
	requireDecimal(t, "-200", *closed.Discrepancy)

	require.Len(t, fx.alerts.alerts, 1)
	assert.Equal(t, "shortage", fx.alerts.alerts[0].AlertType)
	require.Len(t, fx.archive.keys(), 1)
	assert.Contains(t, fx.archive.keys()[0], session.ID.String())

	report := testutil.DecodeData[appcashbox.DriftReport](t,
		api.Get("/api/v1/cashboxes/"+cashboxID.String()+"/verify"), http.StatusOK)
	assert.True(t, report.InSync)
}

func TestAPI_TenantIsolation(t *testing.T) {
	fx := newAPI(t)
	owner := testutil.NewAPIClient(t, fx.engine, uuid.New(), uuid.New())
	other := testutil.NewAPIClient(t, fx.engine, uuid.New(), uuid.New())

	st := testutil.DecodeData[appstore.StoreResponse](t,
		owner.Post("/api/v1/stores", map[string]string{"code": "S001", "name": "Main"}), http.StatusCreated)

	errInfo := testutil.DecodeError(t, other.Get("/api/v1/cashboxes/"+st.Cashbox.ID.String()), http.StatusNotFound)
	assert.Equal(t, "ERR_NOT_FOUND", errInfo.Code)

	otherStores := other.Get("/api/v1/stores")
	assert.Empty(t, testutil.DecodeData[[]appstore.StoreResponse](t, otherStores, http.StatusOK))
	assert.Equal(t, int64(0), testutil.DecodeMeta(t, otherStores).Total)

	// the same store code is free in another tenant
	testutil.DecodeData[appstore.StoreResponse](t,
		other.Post("/api/v1/stores", map[string]string{"code": "S001", "name": "Main"}), http.StatusCreated)
	errInfo = testutil.DecodeError(t,
		owner.Post("/api/v1/stores", map[string]string{"code": "S001", "name": "Again"}), http.StatusConflict)
	assert.Equal(t, "ERR_ALREADY_EXISTS", errInfo.Code)
}

func TestAPI_RequestRejections(t *testing.T) {
	fx := newAPI(t)
	api := testutil.NewAPIClient(t, fx.engine, uuid.New(), uuid.New())

	t.Run("no identity", func(t *testing.T) {
		anon := testutil.NewAPIClient(t, fx.engine, uuid.Nil, uuid.Nil)
		errInfo := testutil.DecodeError(t, anon.Get("/api/v1/stores"), http.StatusUnauthorized)
		assert.Equal(t, "ERR_UNAUTHORIZED", errInfo.Code)
	})

	t.Run("malformed path id", func(t *testing.T) {
		errInfo := testutil.DecodeError(t, api.Get("/api/v1/cashboxes/not-a-uuid"), http.StatusBadRequest)
		assert.Equal(t, "ERR_BAD_REQUEST", errInfo.Code)
	})

	t.Run("unknown balance channel", func(t *testing.T) {
		w := api.Get("/api/v1/balances/bitcoin")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown payment kind", func(t *testing.T) {
		errInfo := testutil.DecodeError(t, api.Get("/api/v1/payments/royalties"), http.StatusNotFound)
		assert.Equal(t, "ERR_NOT_FOUND", errInfo.Code)
	})

	t.Run("missing required field", func(t *testing.T) {
		errInfo := testutil.DecodeError(t, api.Post("/api/v1/stores", map[string]string{"code": "S009"}), http.StatusBadRequest)
		assert.Equal(t, "ERR_VALIDATION", errInfo.Code)
		require.NotEmpty(t, errInfo.Fields)
		assert.Equal(t, "name", errInfo.Fields[0].Field)
	})

	t.Run("oversized idempotency key", func(t *testing.T) {
		w := api.Post("/api/v1/movements", map[string]any{}, map[string]string{
			"Idempotency-Key": strings.Repeat("k", handler.MaxIdempotencyKeyLength+1),
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAPI_HealthIsPublic(t *testing.T) {
	fx := newAPI(t)

	anon := testutil.NewAPIClient(t, fx.engine, uuid.Nil, uuid.Nil)
	assert.Equal(t, http.StatusOK, anon.Get("/health").Code)

	w := anon.Get("/health/ready")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"ok"`)
}
