package httpapi

import (
	"database/sql"
	"net/http"

	"github.com/gorilla/mux"

	"surfsup-server/internal/utils"
)

// NewRouter returns a router with /healthz and JSON 404/405 bodies. Features
// register their own routes on it.
func NewRouter(db *sql.DB) *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteError(w, http.StatusNotFound, "no route for "+r.URL.Path)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteError(w, http.StatusMethodNotAllowed, "only GET is supported")
	})
	registerHealthcheck(r, db)
	return r
}
