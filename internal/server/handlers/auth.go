package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/iudanet/fieldkeeper/internal/models"
	"github.com/iudanet/fieldkeeper/internal/server/jwt"
	"github.com/iudanet/fieldkeeper/internal/server/storage"
	"github.com/iudanet/fieldkeeper/pkg/api"
)

// AuthHandler обрабатывает регистрацию и аутентификацию устройств
type AuthHandler struct {
	logger   *slog.Logger
	devices  storage.DeviceStorage
	tokens   *jwt.Service
	validate *validator.Validate
}

// NewAuthHandler создает новый handler для авторизации
func NewAuthHandler(logger *slog.Logger, devices storage.DeviceStorage, tokens *jwt.Service) *AuthHandler {
	return &AuthHandler{
		logger:   logger,
		devices:  devices,
		tokens:   tokens,
		validate: validator.New(),
	}
}

// Register обрабатывает POST /api/v1/auth/register
// Регистрация нового устройства. Секрет хранится как bcrypt-хеш.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode register request", slog.Any("error", err))
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		h.logger.WarnContext(ctx, "invalid register request", slog.Any("error", err))
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	secretHash, err := bcrypt.GenerateFromPassword([]byte(req.Secret), bcrypt.DefaultCost)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to hash secret", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	device := &models.Device{
		CreatedAt:  time.Now().UTC(),
		ID:         req.DeviceID,
		Name:       req.DeviceName,
		SecretHash: string(secretHash),
	}

	if err := h.devices.CreateDevice(ctx, device); err != nil {
		if errors.Is(err, storage.ErrDeviceAlreadyExists) {
			h.logger.WarnContext(ctx, "device already registered", slog.String("device_id", req.DeviceID))
			sendError(h.logger, w, "device already registered", http.StatusConflict)
			return
		}
		h.logger.ErrorContext(ctx, "failed to create device", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "device registered",
		slog.String("device_id", req.DeviceID),
		slog.String("device_name", req.DeviceName))

	resp := api.RegisterResponse{
		DeviceID: req.DeviceID,
		Message:  "Device registered successfully",
	}

	sendJSON(h.logger, w, resp, http.StatusCreated)
}

// Login обрабатывает POST /api/v1/auth/login
// Выдает access token при совпадении секрета устройства
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode login request", slog.Any("error", err))
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		h.logger.WarnContext(ctx, "invalid login request", slog.Any("error", err))
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	device, err := h.devices.GetDevice(ctx, req.DeviceID)
	if err != nil {
		if errors.Is(err, storage.ErrDeviceNotFound) {
			// Не раскрываем, существует ли устройство
			sendError(h.logger, w, "invalid device id or secret", http.StatusUnauthorized)
			return
		}
		h.logger.ErrorContext(ctx, "failed to load device", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(device.SecretHash), []byte(req.Secret)); err != nil {
		h.logger.WarnContext(ctx, "wrong device secret", slog.String("device_id", req.DeviceID))
		sendError(h.logger, w, "invalid device id or secret", http.StatusUnauthorized)
		return
	}

	token, expiresIn, err := h.tokens.GenerateAccessToken(device.ID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate token", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	if err := h.devices.UpdateLastLogin(ctx, device.ID, time.Now().UTC()); err != nil {
		// Не критично для логина, просто логируем
		h.logger.WarnContext(ctx, "failed to update last login", slog.Any("error", err))
	}

	h.logger.InfoContext(ctx, "device logged in", slog.String("device_id", device.ID))

	resp := api.TokenResponse{
		AccessToken: token,
		ExpiresIn:   expiresIn,
	}

	sendJSON(h.logger, w, resp, http.StatusOK)
}
