package authz

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/lodgehub/lodgehub-api/internal/apperr"
)

// Predicate answers whether the user may act on the entity. It fails with a
// NotFound error when the entity does not exist.
type Predicate func(entityID, userSub string) (bool, error)

// Require returns a middleware gating the route on the predicate applied to
// the named path variable. It replaces annotation-driven interception with a
// plain function call: resolve the principal, evaluate the predicate,
// short-circuit with 403 before the handler runs.
func Require(pathVar string, predicate Predicate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userSub, ok := UserSubFromRequest(r)
			if !ok {
				http.Error(w, "authentication required", http.StatusUnauthorized)
				return
			}

			entityID := mux.Vars(r)[pathVar]
			if entityID == "" {
				http.Error(w, pathVar+" is required", http.StatusBadRequest)
				return
			}

			allowed, err := predicate(entityID, userSub)
			if err != nil {
				if apperr.IsNotFound(err) {
					http.Error(w, err.Error(), http.StatusNotFound)
					return
				}
				http.Error(w, "authorization check failed", http.StatusInternalServerError)
				return
			}
			if !allowed {
				http.Error(w, "insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireHandler applies the gate inline when registering routes.
func RequireHandler(pathVar string, predicate Predicate, next http.Handler) http.Handler {
	return Require(pathVar, predicate)(next)
}
