package shopify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// variantInventoryQuery достаёт доступный остаток варианта на конкретной
// локации Shopify
const variantInventoryQuery = `
	query getVariantInventory($variantId: ID!, $locationId: ID!) {
		productVariant(id: $variantId) {
			id
			inventoryItem {
				id
				inventoryLevel(locationId: $locationId) {
					id
					quantities(names: ["available"]) {
						name
						quantity
					}
				}
			}
		}
	}
`

// Client клиент Shopify Admin GraphQL API.
// Таймаут и ретраи ограничены: чтения инвентаря можно повторять,
// но долго держать вызывающего нельзя.
type Client struct {
	http     *resty.Client
	endpoint string
	logger   *zap.Logger
}

type Config struct {
	ShopDomain  string
	AccessToken string
	APIVersion  string
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	httpClient := resty.New().
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Shopify-Access-Token", cfg.AccessToken)

	return &Client{
		http:     httpClient,
		endpoint: fmt.Sprintf("https://%s/admin/api/%s/graphql.json", cfg.ShopDomain, cfg.APIVersion),
		logger:   logger,
	}
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type quantityEntry struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type variantInventoryResponse struct {
	Data struct {
		ProductVariant *struct {
			ID            string `json:"id"`
			InventoryItem *struct {
				ID             string `json:"id"`
				InventoryLevel *struct {
					ID         string          `json:"id"`
					Quantities []quantityEntry `json:"quantities"`
				} `json:"inventoryLevel"`
			} `json:"inventoryItem"`
		} `json:"productVariant"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

// GetInventoryForVariantAtLocation возвращает доступный остаток варианта
// на локации. nil без ошибки означает "неизвестно": вариант не найден или
// не отслеживается на этой локации.
func (c *Client) GetInventoryForVariantAtLocation(ctx context.Context, variantGID, locationGID string) (*int, error) {
	var out variantInventoryResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(graphQLRequest{
			Query: variantInventoryQuery,
			Variables: map[string]any{
				"variantId":  variantGID,
				"locationId": locationGID,
			},
		}).
		SetResult(&out).
		Post(c.endpoint)

	if err != nil {
		return nil, fmt.Errorf("shopify inventory request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("shopify inventory request: status %d", resp.StatusCode())
	}
	if len(out.Errors) > 0 {
		return nil, fmt.Errorf("shopify graphql: %s", out.Errors[0].Message)
	}

	variant := out.Data.ProductVariant
	if variant == nil || variant.InventoryItem == nil || variant.InventoryItem.InventoryLevel == nil {
		c.logger.Debug("Variant has no inventory level at location",
			zap.String("variant_gid", variantGID),
			zap.String("location_gid", locationGID),
		)
		return nil, nil
	}

	for _, q := range variant.InventoryItem.InventoryLevel.Quantities {
		if q.Name == "available" {
			qty := q.Quantity
			return &qty, nil
		}
	}

	return nil, nil
}
