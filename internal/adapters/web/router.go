package web

import (
	"crypto/subtle"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/lcalzada-xor/honeytrap/internal/core/services/policy"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// SetupRoutes builds the console routing table.
func SetupRoutes(s *Server) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.WSManager.HandleWebSocket)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/ports", s.handleGetPorts).Methods(http.MethodGet)
	api.HandleFunc("/sessions", s.handleGetSessions).Methods(http.MethodGet)
	api.HandleFunc("/suspects", s.handleGetSuspects).Methods(http.MethodGet)
	api.HandleFunc("/attackers", s.handleGetAttackers).Methods(http.MethodGet)
	api.HandleFunc("/bans", s.handleGetBans).Methods(http.MethodGet)
	api.HandleFunc("/report", s.handleReport).Methods(http.MethodGet)

	// Metrics stay behind the admin pair; everything else on the console is
	// read-only state.
	r.Handle("/metrics", adminBasicAuth(promhttp.Handler())).Methods(http.MethodGet)

	return otelhttp.NewHandler(r, "console")
}

// adminBasicAuth gates a handler behind the compiled-in admin credentials.
func adminBasicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		userOK := subtle.ConstantTimeCompare([]byte(user), []byte(policy.AdminUsername)) == 1
		passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(policy.AdminPassword)) == 1
		if !ok || !userOK || !passOK {
			w.Header().Set("WWW-Authenticate", `Basic realm="honeytrap"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
