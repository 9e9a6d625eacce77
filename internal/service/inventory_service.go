package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/eightball/booking_api/internal/breaker"
	"github.com/eightball/booking_api/internal/cache"
	"github.com/eightball/booking_api/internal/model"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	inventoryCacheTTL  = 5 * time.Minute
	inventoryBatchSize = 3
)

// InventoryService проверяет достаточность инвентаря Shopify для услуги.
// Политика fail-closed: на любой ошибке внешнего вызова или кэша
// считаем, что запчастей нет. Наружу ошибки не выходят.
type InventoryService struct {
	locationRepo LocationStore
	serviceRepo  ServiceStore
	provider     InventoryProvider
	breakers     *breaker.Registry
	cache        cache.Cache
	pacer        *rate.Limiter
	logger       *zap.Logger
}

func NewInventoryService(
	locationRepo LocationStore,
	serviceRepo ServiceStore,
	provider InventoryProvider,
	breakers *breaker.Registry,
	c cache.Cache,
	logger *zap.Logger,
) *InventoryService {
	return &InventoryService{
		locationRepo: locationRepo,
		serviceRepo:  serviceRepo,
		provider:     provider,
		breakers:     breakers,
		cache:        c,
		// Пауза ~200мс между батчами, чтобы не упереться в rate limit Shopify
		pacer:  rate.NewLimiter(rate.Every(200*time.Millisecond), 1),
		logger: logger,
	}
}

// CheckInventory проверяет, хватает ли остатков на локации для
// seatsRequested мест услуги. Пустая спецификация — всегда true.
func (s *InventoryService) CheckInventory(ctx context.Context, serviceID, locationID int64, seatsRequested int) bool {
	parts, err := s.serviceRepo.GetParts(ctx, serviceID)
	if err != nil {
		s.logger.Error("Failed to load service parts, failing closed",
			zap.Int64("service_id", serviceID),
			zap.Error(err),
		)
		return false
	}

	if len(parts) == 0 {
		return true // Запчасти не требуются
	}

	location, err := s.locationRepo.GetByID(ctx, locationID)
	if err != nil || location == nil {
		s.logger.Error("Failed to load location for inventory check, failing closed",
			zap.Int64("location_id", locationID),
			zap.Error(err),
		)
		return false
	}

	inventory := s.inventoryForParts(ctx, parts, location.ShopifyLocationGID)

	for _, part := range parts {
		requiredQty := seatsRequested * part.QtyPerService
		availableQty := inventory[part.ShopifyVariantGID]

		if availableQty == nil || *availableQty < requiredQty {
			s.logger.Info("Insufficient inventory for service part",
				zap.Int64("service_id", serviceID),
				zap.String("variant_gid", part.ShopifyVariantGID),
				zap.Int("required_qty", requiredQty),
				zap.Intp("available_qty", availableQty),
				zap.String("location_gid", location.ShopifyLocationGID),
			)
			return false
		}
	}

	return true
}

// inventoryForParts отдаёт остатки по вариантам спецификации, сначала из
// кэша. Ключ строится из отсортированного списка вариантов: услуги с
// одинаковой спецификацией разделяют одну запись (общий сток).
func (s *InventoryService) inventoryForParts(ctx context.Context, parts []*model.ServicePart, locationGID string) map[string]*int {
	gids := make([]string, 0, len(parts))
	for _, part := range parts {
		gids = append(gids, part.ShopifyVariantGID)
	}
	sort.Strings(gids)

	cacheKey := inventoryCacheKey(locationGID, gids)

	if raw, ok := s.cache.Get(ctx, cacheKey); ok {
		var cached map[string]*int
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached
		}
		s.cache.Forget(ctx, cacheKey)
	}

	inventory := s.fetchInventory(ctx, gids, locationGID)

	if raw, err := json.Marshal(inventory); err == nil {
		s.cache.Set(ctx, cacheKey, raw, inventoryCacheTTL)
	}

	return inventory
}

// fetchInventory опрашивает провайдера повариантно, небольшими батчами
// с паузой между ними. Ошибка по одному варианту не прерывает остальные,
// но сам вариант остаётся неизвестным (nil).
func (s *InventoryService) fetchInventory(ctx context.Context, gids []string, locationGID string) map[string]*int {
	inventory := make(map[string]*int, len(gids))

	for i, gid := range gids {
		if i > 0 && i%inventoryBatchSize == 0 {
			if err := s.pacer.Wait(ctx); err != nil {
				for _, rest := range gids[i:] {
					inventory[rest] = nil
				}
				return inventory
			}
		}

		qty, err := s.lookupVariant(ctx, gid, locationGID)
		if err != nil {
			s.logger.Warn("Failed to get inventory for variant",
				zap.String("variant_gid", gid),
				zap.String("location_gid", locationGID),
				zap.Error(err),
			)
			inventory[gid] = nil
			continue
		}
		inventory[gid] = qty
	}

	return inventory
}

// lookupVariant одиночный вызов провайдера через breaker локации.
// Открытый breaker сразу возвращает ошибку, провайдер не трогается.
func (s *InventoryService) lookupVariant(ctx context.Context, variantGID, locationGID string) (*int, error) {
	result, err := s.breakers.Execute(locationGID, func() (interface{}, error) {
		return s.provider.GetInventoryForVariantAtLocation(ctx, variantGID, locationGID)
	})
	if err != nil {
		return nil, err
	}
	qty, _ := result.(*int)
	return qty, nil
}

func inventoryCacheKey(locationGID string, sortedGIDs []string) string {
	return fmt.Sprintf("inventory:%s:%s", locationGID, strings.Join(sortedGIDs, ","))
}
