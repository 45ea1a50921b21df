package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"auction-platform/internal/cache"
	"auction-platform/internal/domain"
	"auction-platform/internal/services"
	"auction-platform/pkg/logger"
)

type AuctionHandler struct {
	ledger      *services.Ledger
	resolver    *services.StatusResolver
	coordinator *cache.Coordinator
	windows     domain.WindowRepository
	log         logger.Logger
}

func NewAuctionHandler(
	ledger *services.Ledger,
	resolver *services.StatusResolver,
	coordinator *cache.Coordinator,
	windows domain.WindowRepository,
	log logger.Logger,
) *AuctionHandler {
	return &AuctionHandler{
		ledger:      ledger,
		resolver:    resolver,
		coordinator: coordinator,
		windows:     windows,
		log:         log,
	}
}

type ParticipateRequest struct {
	ParticipantID string `json:"participant_id"`
	Role          string `json:"role"`
}

type windowResponse struct {
	ID           string    `json:"id"`
	StartTime    time.Time `json:"start_time"`
	Status       string    `json:"status"`
	MaxBuyers    *int      `json:"max_buyers"`
	MaxSellers   *int      `json:"max_sellers"`
	BuyersCount  int       `json:"buyers_count"`
	SellersCount int       `json:"sellers_count"`
}

func toWindowResponse(w *domain.AuctionWindow) windowResponse {
	return windowResponse{
		ID:           w.ID,
		StartTime:    w.StartTime,
		Status:       w.Status.String(),
		MaxBuyers:    w.MaxBuyers,
		MaxSellers:   w.MaxSellers,
		BuyersCount:  w.BuyersCount,
		SellersCount: w.SellersCount,
	}
}

// Participate claims a seat in the window addressed by its date id.
// A repeated request from the same participant returns the held seat with
// 200 instead of erroring.
func (h *AuctionHandler) Participate(c echo.Context) error {
	auctionID := c.Param("id")

	var req ParticipateRequest
	if err := c.Bind(&req); err != nil {
		h.log.Error("Failed to bind participate request", "error", err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.ParticipantID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "participant_id required"})
	}

	reg, existed, err := h.ledger.Register(c.Request().Context(), auctionID, req.ParticipantID, domain.Role(req.Role))
	if err != nil {
		return h.mapError(c, err)
	}

	if existed {
		return c.JSON(http.StatusOK, reg)
	}
	return c.JSON(http.StatusCreated, reg)
}

// ListAuctions serves the window listing through the cache.
func (h *AuctionHandler) ListAuctions(c echo.Context) error {
	res, err := h.coordinator.Get(c.Request().Context(),
		cache.AuctionsKey(), cache.TTLAuctions, []string{cache.AuctionsTag},
		func(ctx context.Context) (interface{}, error) {
			windows, err := h.windows.ListWindows(ctx)
			if err != nil {
				return nil, err
			}
			out := make([]windowResponse, 0, len(windows))
			for _, w := range windows {
				out = append(out, toWindowResponse(w))
			}
			return out, nil
		})
	if err != nil {
		return h.mapError(c, err)
	}

	return h.cachedJSON(c, res)
}

// GetAuction returns one window row, bypassing the cache: the counters on it
// are authoritative.
func (h *AuctionHandler) GetAuction(c echo.Context) error {
	window, err := h.ledger.Window(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, toWindowResponse(window))
}

// GetRole reports the caller's participation in the window.
func (h *AuctionHandler) GetRole(c echo.Context) error {
	participantID := c.QueryParam("participant_id")
	if participantID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "participant_id required"})
	}

	status, err := h.resolver.Resolve(c.Request().Context(), c.Param("id"), participantID)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, status)
}

// GetWindowState returns the live countdown state; no I/O involved.
func (h *AuctionHandler) GetWindowState(c echo.Context) error {
	return c.JSON(http.StatusOK, h.ledger.State())
}

func (h *AuctionHandler) mapError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrAuctionNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "auction not found"})
	case errors.Is(err, domain.ErrCapacityExceeded):
		return c.JSON(http.StatusConflict, map[string]string{"error": "capacity exceeded"})
	case errors.Is(err, domain.ErrRegistrationClosed):
		return c.JSON(http.StatusConflict, map[string]string{"error": "registration closed"})
	case errors.Is(err, domain.ErrInvalidRole):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "role must be buyer or seller"})
	default:
		h.log.Error("Request failed", "path", c.Path(), "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func (h *AuctionHandler) cachedJSON(c echo.Context, res cache.Result) error {
	c.Response().Header().Set("X-From-Cache", boolHeader(res.FromCache))
	if res.Stale {
		c.Response().Header().Set("X-Cache-Stale", "true")
	}
	return c.JSON(http.StatusOK, res.Value)
}

func boolHeader(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
