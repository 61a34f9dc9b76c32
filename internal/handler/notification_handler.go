package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"airbnmail/internal/repository"
	"airbnmail/internal/service"
)

type NotificationHandler struct {
	syncService service.SyncService
	logger      echo.Logger
}

func NewNotificationHandler(syncService service.SyncService, logger echo.Logger) *NotificationHandler {
	return &NotificationHandler{
		syncService: syncService,
		logger:      logger,
	}
}

// TriggerSync runs one fetch-and-reconcile pass immediately
func (h *NotificationHandler) TriggerSync(c echo.Context) error {
	result, err := h.syncService.SyncOnce(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to sync notifications:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": err.Error(),
		})
	}

	return c.JSON(http.StatusOK, result)
}

// ListNotifications retrieves stored notifications, newest first
func (h *NotificationHandler) ListNotifications(c echo.Context) error {
	limit := 50
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err == nil && parsed > 0 {
			limit = parsed
		}
	}

	offset := 0
	if offsetStr := c.QueryParam("offset"); offsetStr != "" {
		parsed, err := strconv.Atoi(offsetStr)
		if err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	notifications, err := h.syncService.Notifications(c.Request().Context(), limit, offset)
	if err != nil {
		h.logger.Error("Failed to get notifications:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to get notifications",
		})
	}

	return c.JSON(http.StatusOK, notifications)
}

// GetNotification retrieves a single notification by ID
func (h *NotificationHandler) GetNotification(c echo.Context) error {
	notificationID := c.Param("id")

	notification, err := h.syncService.Notification(c.Request().Context(), notificationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{
				"error": "Notification not found",
			})
		}
		h.logger.Error("Failed to get notification:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to get notification",
		})
	}

	return c.JSON(http.StatusOK, notification)
}

// MaterializeCalendar re-runs reconciliation for one stored notification so
// its calendar event gets created if it is still missing
func (h *NotificationHandler) MaterializeCalendar(c echo.Context) error {
	notificationID := c.Param("id")

	eventID, err := h.syncService.Materialize(c.Request().Context(), notificationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{
				"error": "Notification not found",
			})
		}
		h.logger.Error("Failed to materialize calendar event:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": err.Error(),
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"notification_id": notificationID,
		"event_id":        eventID,
	})
}
