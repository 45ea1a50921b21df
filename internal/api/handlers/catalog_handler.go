package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"auction-platform/internal/cache"
	"auction-platform/internal/domain"
	"auction-platform/pkg/logger"
)

// CatalogHandler serves the collection reads that go through the cache
// coordinator: per-auction products, per-user products, and reference data.
type CatalogHandler struct {
	coordinator *cache.Coordinator
	catalog     domain.CatalogRepository
	auctions    *AuctionHandler
	log         logger.Logger
}

func NewCatalogHandler(
	coordinator *cache.Coordinator,
	catalog domain.CatalogRepository,
	auctions *AuctionHandler,
	log logger.Logger,
) *CatalogHandler {
	return &CatalogHandler{
		coordinator: coordinator,
		catalog:     catalog,
		auctions:    auctions,
		log:         log,
	}
}

func (h *CatalogHandler) GetAuctionProducts(c echo.Context) error {
	auctionID := c.Param("id")

	res, err := h.coordinator.Get(c.Request().Context(),
		cache.AuctionProductsKey(auctionID), cache.TTLAuctionProducts,
		[]string{cache.AuctionTag(auctionID)},
		func(ctx context.Context) (interface{}, error) {
			return h.catalog.GetAuctionProducts(ctx, auctionID)
		})
	if err != nil {
		return h.auctions.mapError(c, err)
	}
	return h.auctions.cachedJSON(c, res)
}

func (h *CatalogHandler) GetUserProducts(c echo.Context) error {
	userID := c.Param("userId")

	res, err := h.coordinator.Get(c.Request().Context(),
		cache.UserProductsKey(userID), cache.TTLMyProducts,
		[]string{cache.UserTag(userID)},
		func(ctx context.Context) (interface{}, error) {
			return h.catalog.GetUserProducts(ctx, userID)
		})
	if err != nil {
		return h.auctions.mapError(c, err)
	}
	return h.auctions.cachedJSON(c, res)
}

func (h *CatalogHandler) GetUserAuctionProducts(c echo.Context) error {
	auctionID := c.Param("id")
	userID := c.Param("userId")

	res, err := h.coordinator.Get(c.Request().Context(),
		cache.UserAuctionProductsKey(auctionID, userID), cache.TTLMyProducts,
		[]string{cache.AuctionTag(auctionID), cache.UserTag(userID)},
		func(ctx context.Context) (interface{}, error) {
			return h.catalog.GetUserAuctionProducts(ctx, auctionID, userID)
		})
	if err != nil {
		return h.auctions.mapError(c, err)
	}
	return h.auctions.cachedJSON(c, res)
}

func (h *CatalogHandler) GetCategories(c echo.Context) error {
	res, err := h.coordinator.Get(c.Request().Context(),
		cache.CategoriesKey(), cache.TTLCategories,
		[]string{cache.CategoriesTag},
		func(ctx context.Context) (interface{}, error) {
			return h.catalog.GetCategories(ctx)
		})
	if err != nil {
		return h.auctions.mapError(c, err)
	}
	return h.auctions.cachedJSON(c, res)
}

func (h *CatalogHandler) GetGovernorates(c echo.Context) error {
	res, err := h.coordinator.Get(c.Request().Context(),
		cache.GovernoratesKey(), cache.TTLGovernorates,
		[]string{cache.GovernoratesTag},
		func(ctx context.Context) (interface{}, error) {
			return h.catalog.GetGovernorates(ctx)
		})
	if err != nil {
		return h.auctions.mapError(c, err)
	}
	return h.auctions.cachedJSON(c, res)
}

// InvalidateAuction clears every cache entry tied to the auction. Mutating
// flows outside this service (price updates, product status changes) call it
// before their next read.
func (h *CatalogHandler) InvalidateAuction(c echo.Context) error {
	auctionID := c.Param("id")
	removed := h.coordinator.Invalidate(cache.AuctionTag(auctionID))
	return c.JSON(http.StatusOK, map[string]interface{}{
		"tag":     cache.AuctionTag(auctionID),
		"removed": removed,
	})
}
