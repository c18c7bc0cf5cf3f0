package handlers

import (
	"Notico/internal/config"
	"Notico/internal/dto"
	"Notico/internal/middleware"
	"Notico/internal/service"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const maxSyncBody = 16 << 20

// ItemHandler обрабатывает синхронизацию и выгрузку записей.
type ItemHandler struct {
	SyncService *service.SyncService
	UserService *service.UserService
	Logger      *zap.SugaredLogger
	Config      *config.Config
}

// NewItemHandler создаёт хендлер items
func NewItemHandler(syncService *service.SyncService, userService *service.UserService, logger *zap.SugaredLogger, cfg *config.Config) *ItemHandler {
	return &ItemHandler{SyncService: syncService, UserService: userService, Logger: logger, Config: cfg}
}

// requirePro пишет 401 или 403 и возвращает false, если синк недоступен.
func (h *ItemHandler) requirePro(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return 0, false
	}
	_, err := h.UserService.RequirePro(r.Context(), userID)
	switch {
	case err == nil:
		return userID, true
	case errors.Is(err, service.ErrNotEntitled):
		http.Error(w, "pro plan required", http.StatusForbidden)
	case errors.Is(err, service.ErrUserNotFound):
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	default:
		h.Logger.Errorw("entitlement check failed", "user_id", userID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
	return 0, false
}

// Sync применяет пачку операций клиента и отдаёт изменения с lastSyncAt
func (h *ItemHandler) Sync(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requirePro(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxSyncBody)
	var req dto.SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Warnw("Sync: invalid request body", "user_id", userID, "error", err)
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	resp, err := h.SyncService.Sync(r.Context(), userID, req)
	if err != nil {
		h.Logger.Errorw("Sync: service error", "user_id", userID, "error", err)
		http.Error(w, "sync failed", http.StatusInternalServerError)
		return
	}

	h.Logger.Infow("sync applied",
		"user_id", userID,
		"operations", len(req.Operations),
		"folder_operations", len(req.FolderOperations),
		"server_items", len(resp.ServerItems),
		"server_folders", len(resp.ServerFolders),
	)
	writeJSON(w, http.StatusOK, resp)
}

// ListItems отдаёт все записи пользователя или изменённые с ?since=
func (h *ItemHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requirePro(w, r)
	if !ok {
		return
	}

	var since *time.Time
	if v := r.URL.Query().Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			http.Error(w, "invalid since", http.StatusBadRequest)
			return
		}
		since = &t
	}

	items, err := h.SyncService.ListItems(r.Context(), userID, since)
	if err != nil {
		h.Logger.Errorw("ListItems: service error", "user_id", userID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ItemHandler) ListFolders(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requirePro(w, r)
	if !ok {
		return
	}
	folders, err := h.SyncService.ListFolders(r.Context(), userID)
	if err != nil {
		h.Logger.Errorw("ListFolders: service error", "user_id", userID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, folders)
}
