package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/giftlane/promos/internal/clock"
	"github.com/giftlane/promos/internal/shippingfee/domain"
	"github.com/giftlane/promos/internal/shippingfee/repository"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) domain.Service {
	t.Helper()

	dbConn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=auto", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := dbConn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, dbConn.AutoMigrate(&domain.ShippingFee{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return New(Params{
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.NewRepository(dbConn),
		Clock: clock.NewFakeClock(time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)),
	})
}

func int64Ptr(v int64) *int64 { return &v }

func TestQuote(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Create(context.Background(), domain.CreateRequest{
		Region:        "Inner City",
		Fee:           500,
		FreeThreshold: int64Ptr(5000),
	})
	require.NoError(t, err)

	quote, err := svc.Quote(context.Background(), "Inner City", 3000)
	require.NoError(t, err)
	assert.Equal(t, int64(500), quote.Fee)
	assert.False(t, quote.Free)

	// At or above the threshold shipping is free.
	quote, err = svc.Quote(context.Background(), "inner city", 5000)
	require.NoError(t, err)
	assert.Equal(t, int64(0), quote.Fee)
	assert.True(t, quote.Free)

	_, err = svc.Quote(context.Background(), "Nowhere", 3000)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Quote(context.Background(), "   ", 3000)
	assert.ErrorIs(t, err, domain.ErrInvalidRegion)
}

func TestQuote_InactiveRegionHidden(t *testing.T) {
	svc := newTestService(t)
	inactive := false
	_, err := svc.Create(context.Background(), domain.CreateRequest{
		Region:   "Remote",
		Fee:      2500,
		IsActive: &inactive,
	})
	require.NoError(t, err)

	_, err = svc.Quote(context.Background(), "Remote", 3000)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreate_Validation(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Create(context.Background(), domain.CreateRequest{Region: "  ", Fee: 100})
	assert.ErrorIs(t, err, domain.ErrInvalidRegion)

	_, err = svc.Create(context.Background(), domain.CreateRequest{Region: "City", Fee: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidFee)

	_, err = svc.Create(context.Background(), domain.CreateRequest{Region: "City", Fee: 100, FreeThreshold: int64Ptr(-1)})
	assert.ErrorIs(t, err, domain.ErrInvalidFreeThreshold)
}

func TestCreate_DuplicateRegion(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Create(context.Background(), domain.CreateRequest{Region: "City", Fee: 100})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), domain.CreateRequest{Region: "City", Fee: 200})
	assert.ErrorIs(t, err, domain.ErrRegionExists)
}

func TestCRUD(t *testing.T) {
	svc := newTestService(t)
	created, err := svc.Create(context.Background(), domain.CreateRequest{Region: "City", Fee: 100})
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "City", got.Region)
	assert.True(t, got.IsActive)

	newFee := int64(250)
	updated, err := svc.Update(context.Background(), domain.UpdateRequest{ID: created.ID, Fee: &newFee})
	require.NoError(t, err)
	assert.Equal(t, int64(250), updated.Fee)

	list, err := svc.List(context.Background(), domain.ListRequest{})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.Delete(context.Background(), created.ID))
	_, err = svc.Get(context.Background(), created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
