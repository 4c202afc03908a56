package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/giftlane/promos/internal/clock"
	"github.com/giftlane/promos/internal/promotion/domain"
	"github.com/giftlane/promos/internal/promotion/repository"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var testNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (domain.Service, *clock.FakeClock, *gorm.DB) {
	t.Helper()

	dbConn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=auto", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := dbConn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, dbConn.AutoMigrate(&domain.Promotion{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(testNow)
	svc := New(Params{
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.NewRepository(dbConn),
		Clock: clk,
	})
	return svc, clk, dbConn
}

func int64Ptr(v int64) *int64 { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func mustCreate(t *testing.T, svc domain.Service, req domain.CreateRequest) *domain.Response {
	t.Helper()
	if req.StartDate.IsZero() {
		req.StartDate = testNow.Add(-time.Hour)
	}
	resp, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	return resp
}

func TestValidate_PercentageWithCapAndMinimum(t *testing.T) {
	svc, _, _ := newTestService(t)
	mustCreate(t, svc, domain.CreateRequest{
		Code:              "SAVE10",
		Title:             "10% off",
		Type:              domain.TypePercentage,
		Value:             10,
		MinOrderValue:     10000,
		MaxDiscountAmount: int64Ptr(2000),
	})

	res, err := svc.Validate(context.Background(), domain.ValidateRequest{Code: "SAVE10", OrderValue: 15000})
	require.NoError(t, err)
	require.True(t, res.Valid)
	require.NotNil(t, res.DiscountAmount)
	assert.Equal(t, int64(1500), *res.DiscountAmount)
	assert.Nil(t, res.Error)
	require.NotNil(t, res.Promotion)
	assert.Equal(t, "SAVE10", res.Promotion.Code)
	assert.Equal(t, domain.StatusActive, res.Promotion.Status)

	// Large order hits the cap.
	res, err = svc.Validate(context.Background(), domain.ValidateRequest{Code: "SAVE10", OrderValue: 100000})
	require.NoError(t, err)
	require.True(t, res.Valid)
	assert.Equal(t, int64(2000), *res.DiscountAmount)
}

func TestValidate_MinimumOrderBoundary(t *testing.T) {
	svc, _, _ := newTestService(t)
	mustCreate(t, svc, domain.CreateRequest{
		Code:          "SAVE10",
		Title:         "10% off",
		Type:          domain.TypePercentage,
		Value:         10,
		MinOrderValue: 10000,
	})

	// Exactly at the minimum qualifies.
	res, err := svc.Validate(context.Background(), domain.ValidateRequest{Code: "SAVE10", OrderValue: 10000})
	require.NoError(t, err)
	assert.True(t, res.Valid)

	// One unit short does not.
	res, err = svc.Validate(context.Background(), domain.ValidateRequest{Code: "SAVE10", OrderValue: 9999})
	require.NoError(t, err)
	require.False(t, res.Valid)
	require.NotNil(t, res.Error)
	assert.Equal(t, domain.ErrorOrderBelowMinimum, res.Error.Kind)
	assert.Equal(t, int64(10000), res.Error.MinOrderValue)
	assert.Equal(t, int64(1), res.Error.Shortfall)
	assert.Nil(t, res.Promotion)
	assert.Nil(t, res.DiscountAmount)
}

func TestValidate_FixedAmountClampedToOrder(t *testing.T) {
	svc, _, _ := newTestService(t)
	mustCreate(t, svc, domain.CreateRequest{
		Code:  "FLAT15",
		Title: "15 off",
		Type:  domain.TypeFixedAmount,
		Value: 1500,
	})

	res, err := svc.Validate(context.Background(), domain.ValidateRequest{Code: "FLAT15", OrderValue: 1000})
	require.NoError(t, err)
	require.True(t, res.Valid)
	assert.Equal(t, int64(1000), *res.DiscountAmount)

	res, err = svc.Validate(context.Background(), domain.ValidateRequest{Code: "FLAT15", OrderValue: 5000})
	require.NoError(t, err)
	assert.Equal(t, int64(1500), *res.DiscountAmount)
}

func TestValidate_CodeNormalization(t *testing.T) {
	svc, _, _ := newTestService(t)
	mustCreate(t, svc, domain.CreateRequest{
		Code:  "  summer10 ",
		Title: "Summer",
		Type:  domain.TypePercentage,
		Value: 10,
	})

	res, err := svc.Validate(context.Background(), domain.ValidateRequest{Code: " Summer10  ", OrderValue: 1000})
	require.NoError(t, err)
	require.True(t, res.Valid)
	assert.Equal(t, "SUMMER10", res.Promotion.Code)
}

func TestValidate_CodeNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	for _, code := range []string{"NOPE", "", "   "} {
		res, err := svc.Validate(context.Background(), domain.ValidateRequest{Code: code, OrderValue: 1000})
		require.NoError(t, err)
		require.False(t, res.Valid)
		require.NotNil(t, res.Error)
		assert.Equal(t, domain.ErrorCodeNotFound, res.Error.Kind)
	}
}

func TestValidate_NegativeOrderValue(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Validate(context.Background(), domain.ValidateRequest{Code: "SAVE10", OrderValue: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidOrderValue)
}

func TestValidate_StatusRejections(t *testing.T) {
	svc, _, _ := newTestService(t)

	inactive := false
	mustCreate(t, svc, domain.CreateRequest{
		Code: "SOON", Title: "Soon", Type: domain.TypePercentage, Value: 10,
		StartDate: testNow.Add(time.Hour),
	})
	mustCreate(t, svc, domain.CreateRequest{
		Code: "GONE", Title: "Gone", Type: domain.TypePercentage, Value: 10,
		StartDate: testNow.Add(-2 * time.Hour),
		EndDate:   timePtr(testNow.Add(-time.Hour)),
	})
	mustCreate(t, svc, domain.CreateRequest{
		Code: "OFF", Title: "Off", Type: domain.TypePercentage, Value: 10,
		IsActive: &inactive,
	})

	tests := []struct {
		code   string
		status domain.Status
	}{
		{"SOON", domain.StatusUpcoming},
		{"GONE", domain.StatusExpired},
		{"OFF", domain.StatusInactive},
	}
	for _, tt := range tests {
		res, err := svc.Validate(context.Background(), domain.ValidateRequest{Code: tt.code, OrderValue: 1000})
		require.NoError(t, err)
		require.False(t, res.Valid, tt.code)
		require.NotNil(t, res.Error)
		assert.Equal(t, domain.ErrorPromotionNotActive, res.Error.Kind)
		assert.Equal(t, tt.status, res.Error.Status)
	}
}

func TestValidate_BecomesActiveAsClockAdvances(t *testing.T) {
	svc, clk, _ := newTestService(t)
	mustCreate(t, svc, domain.CreateRequest{
		Code: "SOON", Title: "Soon", Type: domain.TypePercentage, Value: 10,
		StartDate: testNow.Add(time.Hour),
		EndDate:   timePtr(testNow.Add(2 * time.Hour)),
	})

	res, err := svc.Validate(context.Background(), domain.ValidateRequest{Code: "SOON", OrderValue: 1000})
	require.NoError(t, err)
	assert.Equal(t, domain.ErrorPromotionNotActive, res.Error.Kind)
	assert.Equal(t, domain.StatusUpcoming, res.Error.Status)

	clk.Advance(90 * time.Minute)
	res, err = svc.Validate(context.Background(), domain.ValidateRequest{Code: "SOON", OrderValue: 1000})
	require.NoError(t, err)
	assert.True(t, res.Valid)

	clk.Advance(time.Hour)
	res, err = svc.Validate(context.Background(), domain.ValidateRequest{Code: "SOON", OrderValue: 1000})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusExpired, res.Error.Status)
}

func TestValidate_UsageLimitReached(t *testing.T) {
	svc, _, dbConn := newTestService(t)
	created := mustCreate(t, svc, domain.CreateRequest{
		Code: "LIMITED", Title: "Limited", Type: domain.TypePercentage, Value: 10,
		UsageLimit: int64Ptr(5),
	})

	require.NoError(t, dbConn.Exec(`UPDATE promotions SET usage_count = 5 WHERE id = ?`, created.ID).Error)

	res, err := svc.Validate(context.Background(), domain.ValidateRequest{Code: "LIMITED", OrderValue: 1000})
	require.NoError(t, err)
	require.False(t, res.Valid)
	assert.Equal(t, domain.ErrorUsageLimitReached, res.Error.Kind)
}

func TestValidate_NeverMutates(t *testing.T) {
	svc, _, dbConn := newTestService(t)
	created := mustCreate(t, svc, domain.CreateRequest{
		Code: "SAVE10", Title: "Save", Type: domain.TypePercentage, Value: 10,
		UsageLimit: int64Ptr(3),
	})

	for i := 0; i < 5; i++ {
		res, err := svc.Validate(context.Background(), domain.ValidateRequest{Code: "SAVE10", OrderValue: 1000})
		require.NoError(t, err)
		assert.True(t, res.Valid)
	}

	var count int64
	require.NoError(t, dbConn.Raw(`SELECT usage_count FROM promotions WHERE id = ?`, created.ID).Scan(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestCreate_DuplicateCode(t *testing.T) {
	svc, _, _ := newTestService(t)
	mustCreate(t, svc, domain.CreateRequest{
		Code: "SAVE10", Title: "Save", Type: domain.TypePercentage, Value: 10,
	})

	_, err := svc.Create(context.Background(), domain.CreateRequest{
		Code: "save10", Title: "Other", Type: domain.TypePercentage, Value: 5,
		StartDate: testNow,
	})
	assert.ErrorIs(t, err, domain.ErrCodeExists)
}

func TestCreate_RejectsInvalidFields(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), domain.CreateRequest{
		Code: "BAD", Title: "Bad", Type: domain.TypePercentage, Value: 150,
		StartDate: testNow,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidValue)

	_, err = svc.Create(context.Background(), domain.CreateRequest{
		Code: "BAD", Title: "Bad", Type: "BOGOF", Value: 10,
		StartDate: testNow,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidType)
}

func TestGetUpdateDelete(t *testing.T) {
	svc, _, _ := newTestService(t)
	created := mustCreate(t, svc, domain.CreateRequest{
		Code: "SAVE10", Title: "Save", Type: domain.TypePercentage, Value: 10,
	})

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "SAVE10", got.Code)

	title := "Updated"
	value := 20.0
	updated, err := svc.Update(context.Background(), domain.UpdateRequest{
		ID:    created.ID,
		Title: &title,
		Value: &value,
	})
	require.NoError(t, err)
	assert.Equal(t, "Updated", updated.Title)
	assert.Equal(t, 20.0, updated.Value)
	assert.Equal(t, "SAVE10", updated.Code)

	require.NoError(t, svc.Delete(context.Background(), created.ID))
	_, err = svc.Get(context.Background(), created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdate_KillSwitch(t *testing.T) {
	svc, _, _ := newTestService(t)
	created := mustCreate(t, svc, domain.CreateRequest{
		Code: "SAVE10", Title: "Save", Type: domain.TypePercentage, Value: 10,
	})

	off := false
	_, err := svc.Update(context.Background(), domain.UpdateRequest{ID: created.ID, IsActive: &off})
	require.NoError(t, err)

	res, err := svc.Validate(context.Background(), domain.ValidateRequest{Code: "SAVE10", OrderValue: 1000})
	require.NoError(t, err)
	require.False(t, res.Valid)
	assert.Equal(t, domain.StatusInactive, res.Error.Status)

	on := true
	_, err = svc.Update(context.Background(), domain.UpdateRequest{ID: created.ID, IsActive: &on})
	require.NoError(t, err)

	res, err = svc.Validate(context.Background(), domain.ValidateRequest{Code: "SAVE10", OrderValue: 1000})
	require.NoError(t, err)
	assert.True(t, res.Valid)
}

func TestUpdate_UsageLimitBelowConsumedCount(t *testing.T) {
	svc, _, dbConn := newTestService(t)
	created := mustCreate(t, svc, domain.CreateRequest{
		Code: "POPULAR", Title: "Popular", Type: domain.TypePercentage, Value: 10,
		UsageLimit: int64Ptr(10),
	})

	for i := 0; i < 3; i++ {
		res, err := svc.Redeem(context.Background(), domain.ValidateRequest{Code: "POPULAR", OrderValue: 1000})
		require.NoError(t, err)
		require.True(t, res.Valid)
	}

	// Lowering the limit under the consumed count must be refused, not stored.
	_, err := svc.Update(context.Background(), domain.UpdateRequest{ID: created.ID, UsageLimit: int64Ptr(1)})
	assert.ErrorIs(t, err, domain.ErrInvalidUsageLimit)

	var limit int64
	require.NoError(t, dbConn.Raw(`SELECT usage_limit FROM promotions WHERE id = ?`, created.ID).Scan(&limit).Error)
	assert.Equal(t, int64(10), limit)

	// Lowering to exactly the consumed count is fine: no slots remain.
	updated, err := svc.Update(context.Background(), domain.UpdateRequest{ID: created.ID, UsageLimit: int64Ptr(3)})
	require.NoError(t, err)
	require.NotNil(t, updated.Remaining)
	assert.Equal(t, int64(0), *updated.Remaining)

	res, err := svc.Redeem(context.Background(), domain.ValidateRequest{Code: "POPULAR", OrderValue: 1000})
	require.NoError(t, err)
	require.False(t, res.Valid)
	assert.Equal(t, domain.ErrorUsageLimitReached, res.Error.Kind)
}

func TestDelete_RedeemedPromotionRefused(t *testing.T) {
	svc, _, _ := newTestService(t)
	created := mustCreate(t, svc, domain.CreateRequest{
		Code: "USED", Title: "Used", Type: domain.TypePercentage, Value: 10,
	})

	_, err := svc.Redeem(context.Background(), domain.ValidateRequest{Code: "USED", OrderValue: 1000})
	require.NoError(t, err)

	err = svc.Delete(context.Background(), created.ID)
	assert.ErrorIs(t, err, domain.ErrPromotionInUse)
}

func TestGet_InvalidID(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Get(context.Background(), "not-a-snowflake")
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = svc.Get(context.Background(), snowflake.ID(12345).String())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestList_FilterAndPagination(t *testing.T) {
	svc, _, _ := newTestService(t)

	for i := 0; i < 5; i++ {
		mustCreate(t, svc, domain.CreateRequest{
			Code:  fmt.Sprintf("CODE%d", i),
			Title: "Promo",
			Type:  domain.TypePercentage,
			Value: 10,
		})
	}
	mustCreate(t, svc, domain.CreateRequest{
		Code: "SOON", Title: "Soon", Type: domain.TypeFixedAmount, Value: 500,
		StartDate: testNow.Add(time.Hour),
	})

	resp, err := svc.List(context.Background(), domain.ListRequest{})
	require.NoError(t, err)
	assert.Len(t, resp.Promotions, 6)
	assert.False(t, resp.PageInfo.HasMore)

	resp, err = svc.List(context.Background(), domain.ListRequest{Status: domain.StatusUpcoming})
	require.NoError(t, err)
	require.Len(t, resp.Promotions, 1)
	assert.Equal(t, "SOON", resp.Promotions[0].Code)

	resp, err = svc.List(context.Background(), domain.ListRequest{Type: domain.TypeFixedAmount})
	require.NoError(t, err)
	require.Len(t, resp.Promotions, 1)

	// Page through two at a time.
	var seen []string
	req := domain.ListRequest{}
	req.Page.PageSize = 2
	for {
		page, err := svc.List(context.Background(), req)
		require.NoError(t, err)
		for _, p := range page.Promotions {
			seen = append(seen, p.Code)
		}
		if !page.PageInfo.HasMore {
			break
		}
		req.Page.PageToken = page.PageInfo.NextPageToken
	}
	assert.Len(t, seen, 6)
}

func TestList_CustomSortHasNoCursor(t *testing.T) {
	svc, _, _ := newTestService(t)
	for _, code := range []string{"ALPHA", "BRAVO", "CHARLIE"} {
		mustCreate(t, svc, domain.CreateRequest{
			Code: code, Title: "Promo", Type: domain.TypePercentage, Value: 10,
		})
	}

	// A sorted listing never hands out a page token; id cursors only line up
	// with the default order.
	sorted := domain.ListRequest{SortBy: "code", OrderBy: "asc"}
	sorted.Page.PageSize = 2
	page, err := svc.List(context.Background(), sorted)
	require.NoError(t, err)
	require.Len(t, page.Promotions, 2)
	assert.Equal(t, "ALPHA", page.Promotions[0].Code)
	assert.Equal(t, "BRAVO", page.Promotions[1].Code)
	assert.True(t, page.PageInfo.HasMore)
	assert.Empty(t, page.PageInfo.NextPageToken)

	// And it refuses a token minted elsewhere.
	def := domain.ListRequest{}
	def.Page.PageSize = 2
	first, err := svc.List(context.Background(), def)
	require.NoError(t, err)
	require.NotEmpty(t, first.PageInfo.NextPageToken)

	sorted.Page.PageToken = first.PageInfo.NextPageToken
	_, err = svc.List(context.Background(), sorted)
	assert.ErrorIs(t, err, domain.ErrInvalidPageToken)
}

func TestList_MalformedPageToken(t *testing.T) {
	svc, _, _ := newTestService(t)

	req := domain.ListRequest{}
	req.Page.PageToken = "not-base64!!"
	_, err := svc.List(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidPageToken)
}
