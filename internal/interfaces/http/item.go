package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"arca/internal/domain/item"
	"arca/internal/domain/sync"
	"arca/internal/shared/middleware"
)

// ItemHandler exposes the linking flow and on-demand sync for linked items.
type ItemHandler struct {
	itemService  *item.Service
	orchestrator *sync.Orchestrator
}

// NewItemHandler creates a new item handler
func NewItemHandler(itemService *item.Service, orchestrator *sync.Orchestrator) *ItemHandler {
	return &ItemHandler{
		itemService:  itemService,
		orchestrator: orchestrator,
	}
}

type LinkItemRequest struct {
	PublicToken   string `json:"publicToken"`
	InstitutionID string `json:"institutionId"`
}

// HandleCreateLinkToken starts the linking flow for the authenticated user.
func (h *ItemHandler) HandleCreateLinkToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	token, err := h.itemService.CreateLinkToken(r.Context(), userID)
	if err != nil {
		log.Printf("Error creating link token for user %d: %v", userID, err)
		http.Error(w, "Failed to create link token", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(token)
}

// HandleItems routes the items collection (POST to link, GET to list).
func (h *ItemHandler) HandleItems(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleLinkItem(w, r)
	case http.MethodGet:
		h.handleListItems(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleLinkItem exchanges a public token and persists the new item.
func (h *ItemHandler) handleLinkItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req LinkItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("Error decoding link item request: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.PublicToken == "" || req.InstitutionID == "" {
		http.Error(w, "publicToken and institutionId are required", http.StatusBadRequest)
		return
	}

	linked, err := h.itemService.LinkItem(r.Context(), userID, req.PublicToken, req.InstitutionID)
	if err != nil {
		if errors.Is(err, item.ErrForbidden) {
			http.Error(w, "Item is linked by another user", http.StatusForbidden)
			return
		}
		log.Printf("Error linking item for user %d: %v", userID, err)
		http.Error(w, "Failed to link item", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(linked)
}

// handleListItems returns all items for the authenticated user.
func (h *ItemHandler) handleListItems(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	items, err := h.itemService.ListItems(r.Context(), userID)
	if err != nil {
		log.Printf("Error listing items for user %d: %v", userID, err)
		http.Error(w, "Failed to list items", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(items)
}

// HandleItemByID handles operations on a specific item (GET and DELETE).
func (h *ItemHandler) HandleItemByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	itemID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid item ID", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.handleGetItem(w, r, userID, itemID)
	case http.MethodDelete:
		h.handleUnlinkItem(w, r, userID, itemID)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *ItemHandler) handleGetItem(w http.ResponseWriter, r *http.Request, userID, itemID int64) {
	it, err := h.itemService.GetItem(r.Context(), itemID, userID)
	if err != nil {
		switch {
		case errors.Is(err, item.ErrItemNotFound):
			http.Error(w, "Item not found", http.StatusNotFound)
		case errors.Is(err, item.ErrForbidden):
			http.Error(w, "Forbidden", http.StatusForbidden)
		default:
			log.Printf("Error getting item %d: %v", itemID, err)
			http.Error(w, "Failed to get item", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(it)
}

func (h *ItemHandler) handleUnlinkItem(w http.ResponseWriter, r *http.Request, userID, itemID int64) {
	if err := h.itemService.Unlink(r.Context(), itemID, userID); err != nil {
		switch {
		case errors.Is(err, item.ErrItemNotFound):
			http.Error(w, "Item not found", http.StatusNotFound)
		case errors.Is(err, item.ErrForbidden):
			http.Error(w, "Forbidden", http.StatusForbidden)
		default:
			log.Printf("Error unlinking item %d: %v", itemID, err)
			http.Error(w, "Failed to unlink item", http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleSyncItem runs one sync cycle for the item and returns the counts.
func (h *ItemHandler) HandleSyncItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	itemID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid item ID", http.StatusBadRequest)
		return
	}

	// Ownership check before touching the provider.
	if _, err := h.itemService.GetItem(r.Context(), itemID, userID); err != nil {
		switch {
		case errors.Is(err, item.ErrItemNotFound):
			http.Error(w, "Item not found", http.StatusNotFound)
		case errors.Is(err, item.ErrForbidden):
			http.Error(w, "Forbidden", http.StatusForbidden)
		default:
			log.Printf("Error loading item %d for sync: %v", itemID, err)
			http.Error(w, "Failed to load item", http.StatusInternalServerError)
		}
		return
	}

	result, err := h.orchestrator.RunSync(r.Context(), itemID)
	if err != nil {
		var provErr *sync.ProviderError
		var storeErr *sync.StoreError
		switch {
		case errors.Is(err, sync.ErrSyncInProgress):
			http.Error(w, "Sync already in progress", http.StatusConflict)
		case errors.Is(err, sync.ErrItemNotFound):
			http.Error(w, "Item not found", http.StatusNotFound)
		case errors.Is(err, sync.ErrItemInactive):
			http.Error(w, "Item is no longer active", http.StatusGone)
		case errors.As(err, &provErr):
			log.Printf("Provider error syncing item %d: %v", itemID, err)
			http.Error(w, "Provider unavailable", http.StatusBadGateway)
		case errors.As(err, &storeErr):
			log.Printf("Store error syncing item %d: %v", itemID, err)
			http.Error(w, "Storage unavailable", http.StatusServiceUnavailable)
		default:
			log.Printf("Error syncing item %d: %v", itemID, err)
			http.Error(w, "Failed to sync item", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}
