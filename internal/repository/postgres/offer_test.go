package postgres

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anmar534/loctah-sub000/internal/domain"
	"github.com/anmar534/loctah-sub000/internal/repository"
	apperrors "github.com/anmar534/loctah-sub000/pkg/errors"
)

var offerCols = []string{
	"id", "product_id", "store_id", "original_price", "discounted_price",
	"discount_percent", "start_date", "end_date", "is_active", "created_at", "updated_at",
}

func sampleOffer() domain.Offer {
	return domain.Offer{
		ID:              "o-1",
		ProductID:       "p-1",
		StoreID:         "s-1",
		OriginalPrice:   decimal.RequireFromString("100.00"),
		DiscountedPrice: decimal.RequireFromString("80.00"),
		DiscountPercent: 20,
		StartDate:       now,
		EndDate:         now.AddDate(0, 0, 7),
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func offerRow(o domain.Offer) []any {
	return []any{o.ID, o.ProductID, o.StoreID, o.OriginalPrice, o.DiscountedPrice,
		o.DiscountPercent, o.StartDate, o.EndDate, o.IsActive, o.CreatedAt, o.UpdatedAt}
}

func TestOfferRepository_Create(t *testing.T) {
	mock := newMock(t)
	repo := NewOfferRepository(mock)
	o := sampleOffer()

	mock.ExpectExec(`INSERT INTO offers`).
		WithArgs(o.ID, o.ProductID, o.StoreID, pgxmock.AnyArg(), pgxmock.AnyArg(), 20,
			o.StartDate, o.EndDate, true, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), &o))
	assert.False(t, o.CreatedAt.Equal(now))
}

func TestOfferRepository_CheckViolationsAreRejections(t *testing.T) {
	tests := []struct {
		constraint string
		code       domain.ErrorCode
	}{
		{"offers_price_order", domain.CodeInvalidPrice},
		{"offers_window_order", domain.CodeInvalidDateRange},
	}

	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			mock := newMock(t)
			repo := NewOfferRepository(mock)
			o := sampleOffer()
			pgErr := &pgconn.PgError{Code: "23514", ConstraintName: tt.constraint}

			mock.ExpectExec(`INSERT INTO offers`).WillReturnError(pgErr)
			err := repo.Create(context.Background(), &o)
			code, ok := domain.CodeOf(err)
			require.True(t, ok, "expected a rejection, got %v", err)
			assert.Equal(t, tt.code, code)

			mock.ExpectExec(`UPDATE offers`).WillReturnError(pgErr)
			err = repo.Update(context.Background(), &o)
			code, ok = domain.CodeOf(err)
			require.True(t, ok, "expected a rejection, got %v", err)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestOfferRepository_UnknownCheckViolationIsWrapped(t *testing.T) {
	mock := newMock(t)
	repo := NewOfferRepository(mock)
	o := sampleOffer()

	mock.ExpectExec(`INSERT INTO offers`).WillReturnError(&pgconn.PgError{Code: "23514", ConstraintName: "other_check"})
	err := repo.Create(context.Background(), &o)
	require.Error(t, err)
	_, ok := domain.CodeOf(err)
	assert.False(t, ok)
	assert.Contains(t, err.Error(), "insert offer")
}

func TestOfferRepository_GetByID(t *testing.T) {
	mock := newMock(t)
	repo := NewOfferRepository(mock)
	o := sampleOffer()

	mock.ExpectQuery(`SELECT .+ FROM offers WHERE id = \$1`).WithArgs("o-1").
		WillReturnRows(pgxmock.NewRows(offerCols).AddRow(offerRow(o)...))

	got, err := repo.GetByID(context.Background(), "o-1")
	require.NoError(t, err)
	assert.Equal(t, 20, got.DiscountPercent)
	assert.True(t, o.OriginalPrice.Equal(got.OriginalPrice))
}

func TestOfferRepository_GetByID_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewOfferRepository(mock)

	mock.ExpectQuery(`FROM offers WHERE id`).WithArgs("missing").WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestOfferRepository_List_ActiveInStore(t *testing.T) {
	mock := newMock(t)
	repo := NewOfferRepository(mock)
	o := sampleOffer()

	cols := append(append([]string{}, offerCols...), "total_count")
	mock.ExpectQuery(`WHERE store_id = \$1 AND is_active = true AND start_date <= \$2 AND end_date >= \$2\s+ORDER BY created_at DESC, id\s+LIMIT \$3 OFFSET \$4`).
		WithArgs("s-1", now, 10, 10).
		WillReturnRows(pgxmock.NewRows(cols).AddRow(append(offerRow(o), 11)...))

	status := "active"
	got, total, err := repo.List(context.Background(), repository.OfferFilter{
		StoreID: strPtr("s-1"),
		Status:  &status,
		Now:     now,
		Page:    2,
		PerPage: 10,
	})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 11, total)
}

func TestOfferConditions(t *testing.T) {
	tests := []struct {
		status string
		where  string
		nargs  int
	}{
		{"inactive", "WHERE is_active = false", 0},
		{"scheduled", "WHERE is_active = true AND start_date > $1", 1},
		{"expired", "WHERE is_active = true AND end_date < $1", 1},
		{"active", "WHERE is_active = true AND start_date <= $1 AND end_date >= $1", 1},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			status := tt.status
			where, args := offerConditions(repository.OfferFilter{Status: &status, Now: now})
			assert.Equal(t, tt.where, where)
			assert.Len(t, args, tt.nargs)
		})
	}

	where, args := offerConditions(repository.OfferFilter{})
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestOfferRepository_UpdateAndDelete_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewOfferRepository(mock)
	o := sampleOffer()

	mock.ExpectExec(`UPDATE offers`).WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	assert.ErrorIs(t, repo.Update(context.Background(), &o), apperrors.ErrNotFound)

	mock.ExpectExec(`DELETE FROM offers`).WithArgs("o-1").WillReturnResult(pgxmock.NewResult("DELETE", 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), "o-1"), apperrors.ErrNotFound)
}
