package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"arca/internal/domain/annotation"
	"arca/internal/domain/transaction"
	"arca/internal/shared/middleware"
)

// TransactionHandler exposes read access to synced transactions and the
// annotation write path.
type TransactionHandler struct {
	transactionRepo   transaction.Repository
	annotationService *annotation.Service
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(transactionRepo transaction.Repository, annotationService *annotation.Service) *TransactionHandler {
	return &TransactionHandler{
		transactionRepo:   transactionRepo,
		annotationService: annotationService,
	}
}

type AnnotateTransactionRequest struct {
	Category  *string  `json:"category,omitempty"`
	Sentiment *string  `json:"sentiment,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	Notes     *string  `json:"notes,omitempty"`
}

// HandleListTransactions returns transactions for the authenticated user.
// Supports accountId, startDate, endDate, pending, limit and offset query
// parameters. Dates use YYYY-MM-DD.
func (h *TransactionHandler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	filter := transaction.Filter{Limit: 50}

	if accountIDStr := r.URL.Query().Get("accountId"); accountIDStr != "" {
		accountID, err := strconv.ParseInt(accountIDStr, 10, 64)
		if err != nil {
			http.Error(w, "Invalid accountId", http.StatusBadRequest)
			return
		}
		filter.AccountID = &accountID
	}

	if startStr := r.URL.Query().Get("startDate"); startStr != "" {
		start, err := time.Parse("2006-01-02", startStr)
		if err != nil {
			http.Error(w, "Invalid startDate format (use YYYY-MM-DD)", http.StatusBadRequest)
			return
		}
		filter.StartDate = &start
	}

	if endStr := r.URL.Query().Get("endDate"); endStr != "" {
		end, err := time.Parse("2006-01-02", endStr)
		if err != nil {
			http.Error(w, "Invalid endDate format (use YYYY-MM-DD)", http.StatusBadRequest)
			return
		}
		filter.EndDate = &end
	}

	if pendingStr := r.URL.Query().Get("pending"); pendingStr != "" {
		pending, err := strconv.ParseBool(pendingStr)
		if err != nil {
			http.Error(w, "Invalid pending value", http.StatusBadRequest)
			return
		}
		filter.Pending = &pending
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			filter.Offset = offset
		}
	}

	transactions, err := h.transactionRepo.ListByUserID(r.Context(), userID, filter)
	if err != nil {
		log.Printf("Error listing transactions for user %d: %v", userID, err)
		http.Error(w, "Failed to list transactions", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(transactions)
}

// HandleGetTransaction returns a specific transaction.
func (h *TransactionHandler) HandleGetTransaction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	transactionID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid transaction ID", http.StatusBadRequest)
		return
	}

	tx, err := h.transactionRepo.GetByID(r.Context(), transactionID, userID)
	if err != nil {
		if errors.Is(err, transaction.ErrTransactionNotFound) {
			http.Error(w, "Transaction not found", http.StatusNotFound)
			return
		}
		log.Printf("Error getting transaction %d: %v", transactionID, err)
		http.Error(w, "Failed to get transaction", http.StatusInternalServerError)
		return
	}
	if tx == nil {
		http.Error(w, "Transaction not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tx)
}

// HandleAnnotateTransaction writes user-supplied annotations. Omitted fields
// keep their stored values; tags replace the whole set.
func (h *TransactionHandler) HandleAnnotateTransaction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	transactionID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid transaction ID", http.StatusBadRequest)
		return
	}

	var req AnnotateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("Error decoding annotation request: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Category == nil && req.Sentiment == nil && req.Tags == nil && req.Notes == nil {
		http.Error(w, "At least one annotation field is required", http.StatusBadRequest)
		return
	}

	tx, err := h.annotationService.Annotate(r.Context(), transactionID, userID, transaction.AnnotationParams{
		Category:  req.Category,
		Sentiment: req.Sentiment,
		Tags:      req.Tags,
		Notes:     req.Notes,
	})
	if err != nil {
		if errors.Is(err, transaction.ErrTransactionNotFound) {
			http.Error(w, "Transaction not found", http.StatusNotFound)
			return
		}
		log.Printf("Error annotating transaction %d: %v", transactionID, err)
		http.Error(w, "Failed to annotate transaction", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tx)
}
