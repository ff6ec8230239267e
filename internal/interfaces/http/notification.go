package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"arca/internal/domain/notification"
	"arca/internal/shared/middleware"
)

// NotificationHandler exposes device token registration.
type NotificationHandler struct {
	notificationService *notification.Service
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notificationService *notification.Service) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

type RegisterDeviceRequest struct {
	Token      string `json:"token"`
	DeviceType string `json:"deviceType"`
}

// HandleRegisterDevice registers an FCM device token for the authenticated
// user. Re-registering an existing token reassigns and reactivates it.
func (h *NotificationHandler) HandleRegisterDevice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req RegisterDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("Error decoding device registration request: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	device, err := h.notificationService.RegisterDevice(r.Context(), notification.CreateDeviceTokenParams{
		UserID:     userID,
		Token:      req.Token,
		DeviceType: req.DeviceType,
	})
	if err != nil {
		if errors.Is(err, notification.ErrInvalidToken) || errors.Is(err, notification.ErrInvalidDeviceType) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Printf("Error registering device for user %d: %v", userID, err)
		http.Error(w, "Failed to register device", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(device)
}
