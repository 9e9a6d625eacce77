package model

import "time"

type Service struct {
	ID                int64     `json:"id"`
	ShopID            int64     `json:"shop_id"`
	Title             string    `json:"title"`
	Slug              string    `json:"slug"`
	DurationMinutes   int       `json:"duration_minutes"`
	PriceCents        int       `json:"price_cents"`
	Active            bool      `json:"active"`
	ShopifyVariantGID string    `json:"shopify_variant_gid"`
	ShopifyProductID  string    `json:"shopify_product_id"`
	CreatedAt         time.Time `json:"created_at"`
}

// ServicePart позиция из спецификации услуги: вариант Shopify и сколько
// единиц расходуется на одно место
type ServicePart struct {
	ID                int64  `json:"id"`
	ServiceID         int64  `json:"service_id"`
	ShopifyVariantGID string `json:"shopify_variant_gid"`
	ProductTitle      string `json:"product_title"`
	QtyPerService     int    `json:"qty_per_service"`
}
