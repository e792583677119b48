package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/swarm-marketplace/backend/internal/http/dto"
	"github.com/swarm-marketplace/backend/internal/middleware"
	"github.com/swarm-marketplace/backend/internal/services"
	"go.uber.org/zap"
)

type TransactionHandler struct {
	txService *services.TransactionService
	log       *zap.Logger
}

func NewTransactionHandler(txService *services.TransactionService, log *zap.Logger) *TransactionHandler {
	return &TransactionHandler{txService: txService, log: log}
}

// CreatePurchase записывает pending-транзакцию покупки.
// POST /purchases
func (h *TransactionHandler) CreatePurchase(c *fiber.Ctx) error {
	var req dto.CreatePurchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	sellerID, err := uuid.Parse(req.SellerID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid seller_id"})
	}

	buyerID := middleware.GetUserID(c)
	tx, err := h.txService.CreatePurchase(c.Context(), buyerID, services.CreatePurchaseInput{
		SellerID:             sellerID,
		ItemType:             req.ItemType,
		Amount:               req.Amount,
		TransactionSignature: req.TransactionSignature,
	})
	if err != nil {
		h.log.Debug("purchase create failed", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: tx})
}

// ListTransactions возвращает историю пользователя.
// GET /me/transactions?filter=all|purchases|sales
func (h *TransactionHandler) ListTransactions(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	filter := c.Query("filter", "all")
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)

	views, err := h.txService.List(c.Context(), userID, filter, limit, offset)
	if err != nil {
		if errors.Is(err, services.ErrInvalidFilter) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
		}
		h.log.Error("history fetch failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: views})
}

// GetStats пересчитывает агрегаты по всей истории пользователя.
// GET /me/transactions/stats
func (h *TransactionHandler) GetStats(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	stats, err := h.txService.Stats(c.Context(), userID)
	if err != nil {
		h.log.Error("stats failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: stats})
}

// GetTransaction возвращает одну транзакцию для её участника.
// GET /transactions/:id
func (h *TransactionHandler) GetTransaction(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid transaction id"})
	}

	userID := middleware.GetUserID(c)
	view, err := h.txService.Get(c.Context(), id, userID)
	if err != nil {
		if errors.Is(err, services.ErrForbidden) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Error: "not a participant of this transaction"})
		}
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "transaction not found"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: view})
}
