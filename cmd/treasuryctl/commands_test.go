package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	appcashbox "github.com/erp/treasury/internal/application/cashbox"
	"github.com/erp/treasury/internal/bootstrap"
	"github.com/erp/treasury/internal/infrastructure/persistence/models"
	"github.com/erp/treasury/internal/infrastructure/persistence/tenant"
	"github.com/erp/treasury/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type ctlFixture struct {
	db       *gorm.DB
	services *bootstrap.Services
	store    testutil.StoreFixture
}

func newCtlFixture(t *testing.T) ctlFixture {
	db := testutil.NewSQLiteDB(t)
	services := bootstrap.NewServices(bootstrap.Deps{DB: db, Logger: zaptest.NewLogger(t)})
	store := testutil.SeedStore(t, db, testutil.TestTenantID(), "S001")

	storeID := store.StoreID
	_, err := services.Movements.Record(context.Background(), store.TenantID, testutil.TestUserID(), appcashbox.RecordMovementRequest{
		StoreID:   &storeID,
		Direction: "in",
		Category:  "other",
		Channel:   "cash",
		Amount:    testutil.Dec(t, "1000"),
	}, "")
	require.NoError(t, err)

	return ctlFixture{db: db, services: services, store: store}
}

func (f ctlFixture) run(args ...string) (string, error) {
	var out bytes.Buffer
	open := func(context.Context, string) (*bootstrap.Services, func(), error) {
		return f.services, func() {}, nil
	}
	root := newRootCommand(open, &out)
	root.SetArgs(append(args, "--tenant", f.store.TenantID.String()))
	err := root.Execute()
	return out.String(), err
}

func TestBalanceCommand(t *testing.T) {
	f := newCtlFixture(t)

	out, err := f.run("balance", "--channel", "cash", "--store", f.store.StoreID.String())
	require.NoError(t, err)
	assert.Contains(t, out, "BALANCE")
	assert.Contains(t, out, "1000.00")

	out, err = f.run("balance", "--json")
	require.NoError(t, err)
	var b appcashbox.BalanceResponse
	require.NoError(t, json.Unmarshal([]byte(out), &b))
	assert.Equal(t, "cash", b.Channel)
	assert.True(t, testutil.Dec(t, "1000").Equal(b.Balance))
}

func TestVerifyAndResync(t *testing.T) {
	f := newCtlFixture(t)

	out, err := f.run("verify")
	require.NoError(t, err)
	assert.Contains(t, out, "CB-S001")
	assert.NotContains(t, out, "DRIFT")

	require.NoError(t, f.db.Model(&models.CashboxModel{}).
		Scopes(tenant.Scope(f.store.TenantID)).
		Where("id = ?", f.store.CashboxID).
		Update("balance", "750").Error)

	out, err = f.run("verify", "--cashbox", f.store.CashboxID.String())
	require.ErrorIs(t, err, ErrDrift)
	assert.Contains(t, out, "DRIFT")
	assert.Contains(t, out, "250.00")

	out, err = f.run("resync", "--cashbox", f.store.CashboxID.String())
	require.NoError(t, err)
	assert.Contains(t, out, "resynced")
	assert.True(t, testutil.Dec(t, "1000").Equal(testutil.CachedBalance(t, f.db, f.store.TenantID, f.store.CashboxID)))

	_, err = f.run("verify")
	assert.NoError(t, err)
}

func TestCommandArgumentErrors(t *testing.T) {
	f := newCtlFixture(t)

	_, err := f.run("balance", "--channel", "gold")
	assert.Error(t, err)

	_, err = f.run("verify", "--cashbox", "nope")
	assert.ErrorContains(t, err, "Invalid --cashbox")

	_, err = f.run("resync")
	assert.Error(t, err)

	var out bytes.Buffer
	root := newRootCommand(nil, &out)
	root.SetArgs([]string{"verify", "--tenant", uuid.Nil.String() + "x"})
	assert.ErrorContains(t, root.Execute(), "invalid --tenant")
}
