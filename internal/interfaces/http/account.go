package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"arca/internal/domain/account"
	"arca/internal/shared/middleware"
)

// AccountHandler exposes read access to synced accounts.
type AccountHandler struct {
	accountRepo account.Repository
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accountRepo account.Repository) *AccountHandler {
	return &AccountHandler{accountRepo: accountRepo}
}

// HandleListAccounts returns accounts for the authenticated user, optionally
// narrowed to one item via ?itemId=.
func (h *AccountHandler) HandleListAccounts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var accounts []*account.Account
	var err error

	if itemIDStr := r.URL.Query().Get("itemId"); itemIDStr != "" {
		itemID, parseErr := strconv.ParseInt(itemIDStr, 10, 64)
		if parseErr != nil {
			http.Error(w, "Invalid itemId", http.StatusBadRequest)
			return
		}
		accounts, err = h.accountRepo.ListByItemID(r.Context(), itemID)
		// Item-scoped listing still belongs to the caller.
		accounts = filterOwned(accounts, userID)
	} else {
		accounts, err = h.accountRepo.ListByUserID(r.Context(), userID)
	}

	if err != nil {
		log.Printf("Error listing accounts for user %d: %v", userID, err)
		http.Error(w, "Failed to list accounts", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(accounts)
}

// HandleAccountByID handles operations on a specific account (GET and DELETE).
func (h *AccountHandler) HandleAccountByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	accountID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid account ID", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodDelete:
		h.handleDeleteAccount(w, r, userID, accountID)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleDeleteAccount removes an account on explicit user request.
func (h *AccountHandler) handleDeleteAccount(w http.ResponseWriter, r *http.Request, userID, accountID int64) {
	if err := h.accountRepo.Delete(r.Context(), accountID, userID); err != nil {
		if errors.Is(err, account.ErrAccountNotFound) {
			http.Error(w, "Account not found", http.StatusNotFound)
			return
		}
		log.Printf("Error deleting account %d: %v", accountID, err)
		http.Error(w, "Failed to delete account", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func filterOwned(accounts []*account.Account, userID int64) []*account.Account {
	owned := make([]*account.Account, 0, len(accounts))
	for _, acc := range accounts {
		if acc.UserID == userID {
			owned = append(owned, acc)
		}
	}
	return owned
}
