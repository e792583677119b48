package handlers

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
	"github.com/swarm-marketplace/backend/internal/auth"
	"github.com/swarm-marketplace/backend/internal/config"
	"github.com/swarm-marketplace/backend/internal/http/dto"
	"github.com/swarm-marketplace/backend/internal/repositories"
	"go.uber.org/zap"
)

type AuthHandler struct {
	userRepo *repositories.UserRepo
	cfg      *config.Config
	log      *zap.Logger
}

func NewAuthHandler(userRepo *repositories.UserRepo, cfg *config.Config, log *zap.Logger) *AuthHandler {
	return &AuthHandler{userRepo: userRepo, cfg: cfg, log: log}
}

// CreateSession выдаёт пользовательский JWT по сервисному токену.
// POST /auth/session
func (h *AuthHandler) CreateSession(c *fiber.Ctx) error {
	var req dto.SessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	if h.cfg.ServiceToken == "" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Error: "session endpoint disabled"})
	}
	if subtle.ConstantTimeCompare([]byte(req.ServiceToken), []byte(h.cfg.ServiceToken)) != 1 {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "invalid service token"})
	}
	if req.Handle == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "handle is required"})
	}

	user, err := h.userRepo.UpsertByHandle(c.Context(), req.Handle, req.DisplayName)
	if err != nil {
		h.log.Error("failed to upsert user", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal server error"})
	}

	token, err := auth.GenerateJWT(h.cfg.JWTSecret, user.ID, user.Handle, h.cfg.JWTExpiration)
	if err != nil {
		h.log.Error("failed to generate jwt", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal server error"})
	}

	return c.JSON(dto.AuthResponse{Token: token, User: user})
}
