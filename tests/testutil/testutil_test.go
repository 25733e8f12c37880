package testutil

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/erp/treasury/internal/infrastructure/auth"
	"github.com/erp/treasury/internal/infrastructure/persistence/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMockDB(t *testing.T) {
	mockDB := NewMockDB(t)
	defer mockDB.Close()

	assert.NotNil(t, mockDB.DB)
	assert.NotNil(t, mockDB.Mock)
	mockDB.ExpectationsWereMet(t)
}

func TestSeedStore(t *testing.T) {
	db := NewSQLiteDB(t)
	tenantID := TestTenantID()

	fx := SeedStore(t, db, tenantID, "S001")

	assert.Equal(t, tenantID, fx.TenantID)
	assert.NotEqual(t, uuid.Nil, fx.StoreID)
	assert.True(t, CachedBalance(t, db, tenantID, fx.CashboxID).IsZero())
	assert.Equal(t, int64(1), CountRows(t, db, tenantID, &models.CashboxModel{}))
	assert.Equal(t, int64(0), CountRows(t, db, uuid.New(), &models.CashboxModel{}))
}

func TestTestContext_SetIdentity(t *testing.T) {
	tc := NewTestContext(t)
	tenantID, userID := uuid.New(), uuid.New()

	tc.SetIdentity(tenantID, userID)

	v, ok := tc.Context.Get("identity")
	require.True(t, ok)
	id := v.(*auth.Identity)
	assert.Equal(t, tenantID, id.TenantID)
	assert.True(t, id.HasPermission("treasury:manage"))
	assert.Equal(t, tenantID.String(), tc.Context.GetString("tenant_id"))
	assert.Equal(t, userID.String(), tc.Context.GetString("user_id"))
}

func TestTestContext_SetIdentityWithPermissions(t *testing.T) {
	tc := NewTestContext(t)
	tc.SetIdentity(uuid.New(), uuid.New(), "treasury:read")

	v, _ := tc.Context.Get("identity")
	id := v.(*auth.Identity)
	assert.True(t, id.HasPermission("treasury:read"))
	assert.False(t, id.HasPermission("treasury:write"))
}

func TestTestContext_SetHeader(t *testing.T) {
	tc := NewTestContext(t)
	tc.SetHeader("Authorization", "Bearer token")

	assert.Equal(t, "Bearer token", tc.Context.Request.Header.Get("Authorization"))
}

func TestNewTestUUID(t *testing.T) {
	assert.Equal(t, NewTestUUID("seed"), NewTestUUID("seed"))
	assert.NotEqual(t, NewTestUUID("seed"), NewTestUUID("other"))
	assert.NotEqual(t, TestTenantID(), TestUserID())
}

func TestDec(t *testing.T) {
	assert.Equal(t, "12.5", Dec(t, "12.50").String())
}

func TestAssertEventually(t *testing.T) {
	done := make(chan struct{})
	go func() {
		time.Sleep(20 * time.Millisecond)
		close(done)
	}()

	AssertEventually(t, func() bool {
		select {
		case <-done:
			return true
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}

func TestRunHTTPTestCases(t *testing.T) {
	handler := func(c *gin.Context) {
		if c.Query("fail") != "" {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": gin.H{"code": "ERR_BAD_REQUEST"}})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}

	RunHTTPTestCases(t, handler, []HTTPTestCase{
		{Name: "ok", Path: "/x", ExpectedStatus: http.StatusOK},
		{Name: "fails", Path: "/x?fail=1", ExpectedStatus: http.StatusBadRequest, ExpectedCode: "ERR_BAD_REQUEST"},
	})
}

func TestAPIClient(t *testing.T) {
	engine := gin.New()
	engine.POST("/echo", func(c *gin.Context) {
		var body map[string]string
		_ = c.ShouldBindJSON(&body)
		c.JSON(http.StatusCreated, gin.H{
			"success": true,
			"data": gin.H{
				"tenant": c.GetHeader("X-Tenant-ID"),
				"key":    c.GetHeader("Idempotency-Key"),
				"name":   body["name"],
			},
		})
	})
	engine.GET("/missing", func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": gin.H{"code": "ERR_NOT_FOUND", "message": "gone"}})
	})

	tenantID := uuid.New()
	api := NewAPIClient(t, engine, tenantID, uuid.New())

	type echo struct {
		Tenant string `json:"tenant"`
		Key    string `json:"key"`
		Name   string `json:"name"`
	}
	out := DecodeData[echo](t, api.Post("/echo", map[string]string{"name": "x"}, map[string]string{"Idempotency-Key": "k1"}), http.StatusCreated)
	assert.Equal(t, echo{Tenant: tenantID.String(), Key: "k1", Name: "x"}, out)

	errInfo := DecodeError(t, api.Get("/missing"), http.StatusNotFound)
	assert.Equal(t, "ERR_NOT_FOUND", errInfo.Code)
	assert.Equal(t, "gone", errInfo.Message)
}

func TestJSONResponseAs(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.JSON(http.StatusOK, gin.H{"key": "value"})

	type body struct {
		Key string `json:"key"`
	}
	resp := JSONResponseAs[body](t, &TestContext{Context: c, Recorder: w})
	assert.Equal(t, "value", resp.Key)
}
