package handler

import (
	"net/http"

	"radiodir/internal/httputil"
)

// Health reports liveness
func Health(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
