package api

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

func (d Dependencies) wsHandler(w http.ResponseWriter, r *http.Request) {
	if d.Hub == nil {
		http.Error(w, "WebSocket hub not initialized", http.StatusInternalServerError)
		return
	}

	userID := d.wsUserID(r)
	d.Log.Info("WebSocket connection attempt",
		zap.String("remote", r.RemoteAddr),
		zap.String("user_id", userID),
	)

	d.Hub.ServeConn(w, r, userID)
}

// wsUserID pulls the caller identity from ?token= or the Authorization
// header. Browsers cannot set headers on WebSocket upgrades, hence the
// query-parameter path.
func (d Dependencies) wsUserID(r *http.Request) string {
	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		tokenString = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}
	if tokenString == "" {
		return "anonymous"
	}

	claims, err := d.JWT.Validate(tokenString)
	if err != nil {
		d.Log.Warn("WebSocket token rejected", zap.Error(err))
		return "anonymous"
	}
	return claims.Subject
}
