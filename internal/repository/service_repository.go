package repository

import (
	"context"
	"fmt"

	"github.com/eightball/booking_api/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ServiceRepository struct {
	pool *pgxpool.Pool
}

func NewServiceRepository(pool *pgxpool.Pool) *ServiceRepository {
	return &ServiceRepository{pool: pool}
}

// GetByID получает услугу по ID
func (r *ServiceRepository) GetByID(ctx context.Context, id int64) (*model.Service, error) {
	query := `
		SELECT id, shop_id, title, slug, duration_minutes, price_cents,
		       active, shopify_variant_gid, shopify_product_id, created_at
		FROM services
		WHERE id = $1
	`

	var svc model.Service
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&svc.ID,
		&svc.ShopID,
		&svc.Title,
		&svc.Slug,
		&svc.DurationMinutes,
		&svc.PriceCents,
		&svc.Active,
		&svc.ShopifyVariantGID,
		&svc.ShopifyProductID,
		&svc.CreatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get service by id: %w", err)
	}

	return &svc, nil
}

// GetActiveByShopID получает все активные услуги магазина
func (r *ServiceRepository) GetActiveByShopID(ctx context.Context, shopID int64) ([]*model.Service, error) {
	query := `
		SELECT id, shop_id, title, slug, duration_minutes, price_cents,
		       active, shopify_variant_gid, shopify_product_id, created_at
		FROM services
		WHERE shop_id = $1 AND active = TRUE
		ORDER BY title
	`

	rows, err := r.pool.Query(ctx, query, shopID)
	if err != nil {
		return nil, fmt.Errorf("get services by shop: %w", err)
	}
	defer rows.Close()

	var services []*model.Service
	for rows.Next() {
		var svc model.Service
		err := rows.Scan(
			&svc.ID,
			&svc.ShopID,
			&svc.Title,
			&svc.Slug,
			&svc.DurationMinutes,
			&svc.PriceCents,
			&svc.Active,
			&svc.ShopifyVariantGID,
			&svc.ShopifyProductID,
			&svc.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		services = append(services, &svc)
	}

	return services, nil
}

// GetParts получает спецификацию услуги (bill of materials)
func (r *ServiceRepository) GetParts(ctx context.Context, serviceID int64) ([]*model.ServicePart, error) {
	query := `
		SELECT id, service_id, shopify_variant_gid, product_title, qty_per_service
		FROM service_parts
		WHERE service_id = $1
	`

	rows, err := r.pool.Query(ctx, query, serviceID)
	if err != nil {
		return nil, fmt.Errorf("get service parts: %w", err)
	}
	defer rows.Close()

	var parts []*model.ServicePart
	for rows.Next() {
		var part model.ServicePart
		err := rows.Scan(
			&part.ID,
			&part.ServiceID,
			&part.ShopifyVariantGID,
			&part.ProductTitle,
			&part.QtyPerService,
		)
		if err != nil {
			return nil, fmt.Errorf("scan service part: %w", err)
		}
		parts = append(parts, &part)
	}

	return parts, nil
}

// GetPartByVariantGID находит позицию спецификации по варианту Shopify
func (r *ServiceRepository) GetPartByVariantGID(ctx context.Context, variantGID string) (*model.ServicePart, error) {
	query := `
		SELECT id, service_id, shopify_variant_gid, product_title, qty_per_service
		FROM service_parts
		WHERE shopify_variant_gid = $1
		LIMIT 1
	`

	var part model.ServicePart
	err := r.pool.QueryRow(ctx, query, variantGID).Scan(
		&part.ID,
		&part.ServiceID,
		&part.ShopifyVariantGID,
		&part.ProductTitle,
		&part.QtyPerService,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get service part by variant: %w", err)
	}

	return &part, nil
}
