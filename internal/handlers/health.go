package handlers

import (
	"net/http"

	"github.com/diewo77/haulage/httpx"
	"gorm.io/gorm"
)

type HealthHandler struct {
	DB *gorm.DB
}

//revive:disable:unused-parameter
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

//revive:enable:unused-parameter

// Ready pings the database.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.DB.WithContext(r.Context()).Exec("SELECT 1").Error; err != nil {
		httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
