package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/iudanet/fieldkeeper/internal/server/storage"
	"github.com/iudanet/fieldkeeper/internal/vclock"
	"github.com/iudanet/fieldkeeper/pkg/api"
)

// SyncHandler обрабатывает batch-синхронизацию. Для каждого элемента
// сравнивает версионные векторы: новая мутация применяется, повтор
// идемпотентно подтверждается, конкурентная версия возвращается как
// конфликт вместе с каноничным состоянием.
type SyncHandler struct {
	logger   *slog.Logger
	store    storage.EntityStorage
	validate *validator.Validate
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(logger *slog.Logger, store storage.EntityStorage) *SyncHandler {
	return &SyncHandler{
		logger:   logger,
		store:    store,
		validate: validator.New(),
	}
}

// BatchSync обрабатывает POST /api/v1/sync
func (h *SyncHandler) BatchSync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	deviceID, ok := GetDeviceID(ctx)
	if !ok {
		h.logger.Error("device ID not found in context")
		sendError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req api.BatchSyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode sync request", slog.Any("error", err))
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	if len(req.Items) == 0 {
		sendError(h.logger, w, "items must not be empty", http.StatusBadRequest)
		return
	}

	resp := &api.BatchSyncResponse{
		Results: make([]api.SyncItemResult, 0, len(req.Items)),
	}

	for _, item := range req.Items {
		result, err := h.processItem(r.Context(), deviceID, item)
		if err != nil {
			// Сбой хранилища: вся партия отвечает 500, клиент
			// перепланирует ее как временный сбой
			h.logger.ErrorContext(ctx, "failed to process sync item",
				slog.String("entity_id", item.EntityID),
				slog.Any("error", err))
			sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
			return
		}
		resp.Results = append(resp.Results, result)
	}

	sendJSON(h.logger, w, resp, http.StatusOK)
}

func (h *SyncHandler) processItem(ctx context.Context, deviceID string, item api.SyncItem) (api.SyncItemResult, error) {
	// Постоянная ошибка валидации: нет смысла повторять
	if err := h.validate.Struct(item); err != nil {
		h.logger.WarnContext(ctx, "rejected sync item",
			slog.String("entity_id", item.EntityID),
			slog.Any("error", err))
		return api.SyncItemResult{
			EntityID: item.EntityID,
			Status:   api.ItemRejected,
			Error:    err.Error(),
		}, nil
	}

	existing, err := h.store.GetEntity(ctx, item.EntityID)
	if err != nil {
		if !errors.Is(err, storage.ErrEntityNotFound) {
			return api.SyncItemResult{}, err
		}
		// Сервер видит запись впервые - применяем
		return h.apply(ctx, item)
	}

	cmp := vclock.Compare(
		vclock.VersionVector(item.VersionVector),
		vclock.VersionVector(existing.VersionVector),
	)

	switch cmp {
	case vclock.After:
		return h.apply(ctx, item)
	case vclock.Equal, vclock.Before:
		// Идемпотентный повтор или устаревшая мутация: каноничное
		// состояние уже содержит ее эффект
		h.logger.DebugContext(ctx, "idempotent replay",
			slog.String("entity_id", item.EntityID),
			slog.String("ordering", cmp.String()))
		return api.SyncItemResult{
			EntityID:            item.EntityID,
			Status:              api.ItemApplied,
			CanonicalEntity:     existing,
			RemoteVersionVector: existing.VersionVector,
		}, nil
	default:
		// Конкурентные версии: конфликт решает клиент
		h.logger.InfoContext(ctx, "concurrent versions detected",
			slog.String("entity_id", item.EntityID),
			slog.String("device_id", deviceID))
		return api.SyncItemResult{
			EntityID:            item.EntityID,
			Status:              api.ItemConflict,
			CanonicalEntity:     existing,
			RemoteVersionVector: existing.VersionVector,
		}, nil
	}
}

func (h *SyncHandler) apply(ctx context.Context, item api.SyncItem) (api.SyncItemResult, error) {
	updatedAt := item.ClientTimestamp
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	canonical := &api.CanonicalEntity{
		UpdatedAt:     updatedAt,
		EntityID:      item.EntityID,
		EntityType:    item.EntityType,
		ParentID:      item.ParentID,
		DeviceID:      item.DeviceID,
		Payload:       item.Payload,
		VersionVector: item.VersionVector,
		Deleted:       item.Operation == "delete",
	}
	if canonical.Deleted {
		canonical.Payload = nil
	}

	if err := h.store.UpsertEntity(ctx, canonical); err != nil {
		return api.SyncItemResult{}, err
	}

	return api.SyncItemResult{
		EntityID:            item.EntityID,
		Status:              api.ItemApplied,
		CanonicalEntity:     canonical,
		RemoteVersionVector: canonical.VersionVector,
	}, nil
}
