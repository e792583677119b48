package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/swarm-marketplace/backend/internal/http/dto"
	"github.com/swarm-marketplace/backend/internal/middleware"
	"github.com/swarm-marketplace/backend/internal/services"
	"github.com/swarm-marketplace/backend/internal/solana"
	"go.uber.org/zap"
)

type WalletHandler struct {
	walletService *services.WalletService
	log           *zap.Logger
}

func NewWalletHandler(walletService *services.WalletService, log *zap.Logger) *WalletHandler {
	return &WalletHandler{walletService: walletService, log: log}
}

// ConnectWallet подключает кошелёк после проверки адреса в сети.
// POST /me/wallet/connect
func (h *WalletHandler) ConnectWallet(c *fiber.Ctx) error {
	var req dto.ConnectWalletRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}
	if req.PublicKey == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "public_key is required"})
	}

	userID := middleware.GetUserID(c)
	wallet, err := h.walletService.Connect(c.Context(), userID, req.PublicKey, req.Network)
	if err != nil {
		h.log.Debug("wallet connect failed", zap.Error(err))
		switch {
		case errors.Is(err, services.ErrConnectInFlight):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: err.Error()})
		case errors.Is(err, solana.ErrUnavailable), errors.Is(err, services.ErrProviderUnavailable):
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Error: err.Error()})
		case errors.Is(err, services.ErrPersistenceFailure):
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: err.Error()})
		}
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: wallet})
}

// DisconnectWallet отключает кошелёк (soft).
// DELETE /me/wallet
func (h *WalletHandler) DisconnectWallet(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if err := h.walletService.Disconnect(c.Context(), userID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "failed to disconnect wallet"})
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

// GetWallet возвращает активный кошелёк. Отсутствие кошелька это не
// ошибка: data просто null.
// GET /me/wallet
func (h *WalletHandler) GetWallet(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	wallet, err := h.walletService.ActiveWallet(c.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrNoWallet) {
			return c.JSON(dto.SuccessResponse{OK: true, Data: nil})
		}
		h.log.Error("wallet lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: wallet})
}

// GetBalance re-fetches the live balance from the chain.
// GET /me/wallet/balance
func (h *WalletHandler) GetBalance(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	balance, err := h.walletService.Balance(c.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoWallet):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "no wallet connected"})
		case errors.Is(err, solana.ErrUnavailable), errors.Is(err, services.ErrProviderUnavailable):
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Error: err.Error()})
		}
		h.log.Error("balance fetch failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: balance})
}
