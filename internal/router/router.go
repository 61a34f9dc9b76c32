package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"airbnmail/internal/handler"
)

func SetupRoutes(e *echo.Echo, notificationHandler *handler.NotificationHandler) {
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	api := e.Group("/api")

	api.POST("/sync", notificationHandler.TriggerSync)
	api.GET("/notifications", notificationHandler.ListNotifications)
	api.GET("/notifications/:id", notificationHandler.GetNotification)
	api.POST("/notifications/:id/calendar", notificationHandler.MaterializeCalendar)
}
