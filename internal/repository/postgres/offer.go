package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/anmar534/loctah-sub000/internal/domain"
	"github.com/anmar534/loctah-sub000/internal/offer"
	"github.com/anmar534/loctah-sub000/internal/repository"
	"github.com/anmar534/loctah-sub000/pkg/database"
	apperrors "github.com/anmar534/loctah-sub000/pkg/errors"
)

const offerColumns = `id, product_id, store_id, original_price, discounted_price,
	discount_percent, start_date, end_date, is_active, created_at, updated_at`

// OfferRepository implements repository.OfferRepository on PostgreSQL.
type OfferRepository struct {
	pool database.DBTX
}

// NewOfferRepository creates a new PostgreSQL-backed offer repository.
func NewOfferRepository(pool database.DBTX) *OfferRepository {
	return &OfferRepository{pool: pool}
}

// Create inserts o and sets its timestamps.
func (r *OfferRepository) Create(ctx context.Context, o *domain.Offer) (err error) {
	const query = `
		INSERT INTO offers (id, product_id, store_id, original_price, discounted_price,
			discount_percent, start_date, end_date, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	ctx, end := database.TraceQuery(ctx, "CreateOffer", query)
	defer func() { end(err) }()

	now := time.Now().UTC()
	o.CreatedAt, o.UpdatedAt = now, now

	_, err = r.pool.Exec(ctx, query,
		o.ID,
		o.ProductID,
		o.StoreID,
		o.OriginalPrice,
		o.DiscountedPrice,
		o.DiscountPercent,
		o.StartDate,
		o.EndDate,
		o.IsActive,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if isForeignKeyViolation(err) {
		return domain.Reject(domain.CodeNotFound, "store %s not found", o.StoreID)
	}
	if rej := offerCheckRejection(err); rej != nil {
		return rej
	}
	if err != nil {
		return fmt.Errorf("insert offer: %w", err)
	}
	return nil
}

// GetByID returns the offer or an error matching apperrors.ErrNotFound.
func (r *OfferRepository) GetByID(ctx context.Context, id string) (_ *domain.Offer, err error) {
	query := fmt.Sprintf(`SELECT %s FROM offers WHERE id = $1`, offerColumns)

	ctx, end := database.TraceQuery(ctx, "GetOffer", query)
	defer func() { end(err) }()

	var o domain.Offer
	err = scanOffer(r.pool.QueryRow(ctx, query, id), &o)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("offer", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get offer: %w", err)
	}
	return &o, nil
}

// List returns one page of offers matching filter, newest first, and the
// total number of matches.
func (r *OfferRepository) List(ctx context.Context, filter repository.OfferFilter) (_ []domain.Offer, _ int, err error) {
	where, args := offerConditions(filter)

	query := fmt.Sprintf(`
		SELECT %s, COUNT(*) OVER() AS total_count
		FROM offers
		%s
		ORDER BY created_at DESC, id
		LIMIT $%d OFFSET $%d`,
		offerColumns, where, len(args)+1, len(args)+2)

	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	page := max(filter.Page, 1)
	args = append(args, perPage, (page-1)*perPage)

	ctx, end := database.TraceQuery(ctx, "ListOffers", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list offers: %w", err)
	}
	defer rows.Close()

	offers := []domain.Offer{}
	total := 0
	for rows.Next() {
		var o domain.Offer
		if err := rows.Scan(
			&o.ID,
			&o.ProductID,
			&o.StoreID,
			&o.OriginalPrice,
			&o.DiscountedPrice,
			&o.DiscountPercent,
			&o.StartDate,
			&o.EndDate,
			&o.IsActive,
			&o.CreatedAt,
			&o.UpdatedAt,
			&total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan offer row: %w", err)
		}
		offers = append(offers, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate offer rows: %w", err)
	}
	return offers, total, nil
}

// offerConditions builds the WHERE clause. Status boundaries match
// offer.Classify: the window is inclusive at both ends.
func offerConditions(f repository.OfferFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.StoreID != nil {
		conds = append(conds, "store_id = "+arg(*f.StoreID))
	}
	if f.ProductID != nil {
		conds = append(conds, "product_id = "+arg(*f.ProductID))
	}
	if f.Status != nil {
		switch offer.Status(*f.Status) {
		case offer.StatusInactive:
			conds = append(conds, "is_active = false")
		case offer.StatusScheduled:
			conds = append(conds, "is_active = true", "start_date > "+arg(f.Now))
		case offer.StatusExpired:
			conds = append(conds, "is_active = true", "end_date < "+arg(f.Now))
		case offer.StatusActive:
			now := arg(f.Now)
			conds = append(conds, "is_active = true", "start_date <= "+now, "end_date >= "+now)
		}
	}

	if len(conds) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

// Update overwrites the mutable fields of o and refreshes UpdatedAt.
func (r *OfferRepository) Update(ctx context.Context, o *domain.Offer) (err error) {
	const query = `
		UPDATE offers
		SET product_id = $1, original_price = $2, discounted_price = $3,
		    discount_percent = $4, start_date = $5, end_date = $6, is_active = $7,
		    updated_at = $8
		WHERE id = $9`

	ctx, end := database.TraceQuery(ctx, "UpdateOffer", query)
	defer func() { end(err) }()

	o.UpdatedAt = time.Now().UTC()
	ct, err := r.pool.Exec(ctx, query,
		o.ProductID,
		o.OriginalPrice,
		o.DiscountedPrice,
		o.DiscountPercent,
		o.StartDate,
		o.EndDate,
		o.IsActive,
		o.UpdatedAt,
		o.ID,
	)
	if rej := offerCheckRejection(err); rej != nil {
		return rej
	}
	if err != nil {
		return fmt.Errorf("update offer: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("offer", o.ID)
	}
	return nil
}

// Delete removes the offer.
func (r *OfferRepository) Delete(ctx context.Context, id string) (err error) {
	const query = `DELETE FROM offers WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "DeleteOffer", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete offer: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("offer", id)
	}
	return nil
}

func scanOffer(row pgx.Row, o *domain.Offer) error {
	return row.Scan(
		&o.ID,
		&o.ProductID,
		&o.StoreID,
		&o.OriginalPrice,
		&o.DiscountedPrice,
		&o.DiscountPercent,
		&o.StartDate,
		&o.EndDate,
		&o.IsActive,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
}
