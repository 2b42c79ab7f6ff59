package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/lodgehub/lodgehub-api/internal/authz"
	"github.com/lodgehub/lodgehub-api/internal/handlers"
	"github.com/lodgehub/lodgehub-api/internal/service"
)

// NewRouter sets up the API routes. Mutating routes on owned entities are
// wrapped in authorization gates that evaluate the predicates before the
// handler runs.
func NewRouter(
	auth *handlers.AuthHandler,
	property *handlers.PropertyHandler,
	reservation *handlers.ReservationHandler,
	accessCode *handlers.AccessCodeHandler,
	authorization *service.AuthorizationService,
) *mux.Router {
	router := mux.NewRouter()

	// Health check route
	router.HandleFunc("/health", handlers.HealthCheck).Methods(http.MethodGet)

	// Public auth endpoints
	router.HandleFunc("/api/signup", auth.SignUp).Methods(http.MethodPost)
	router.HandleFunc("/api/login", auth.Login).Methods(http.MethodPost)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(auth.JWTMiddleware)

	api.HandleFunc("/me", auth.Me).Methods(http.MethodGet)

	// Properties
	api.HandleFunc("/properties", property.ListActive).Methods(http.MethodGet)
	api.HandleFunc("/properties", property.Create).Methods(http.MethodPost)
	api.HandleFunc("/properties/mine", property.ListMine).Methods(http.MethodGet)
	api.HandleFunc("/properties/{id}", property.Get).Methods(http.MethodGet)
	api.Handle("/properties/{id}",
		authz.RequireHandler("id", authorization.IsPropertyOwner, http.HandlerFunc(property.Update))).Methods(http.MethodPut)
	api.Handle("/properties/{id}",
		authz.RequireHandler("id", authorization.IsPropertyOwner, http.HandlerFunc(property.Delete))).Methods(http.MethodDelete)
	api.Handle("/properties/{id}/activate",
		authz.RequireHandler("id", authorization.IsPropertyOwner, http.HandlerFunc(property.Activate))).Methods(http.MethodPost)
	api.Handle("/properties/{id}/deactivate",
		authz.RequireHandler("id", authorization.IsPropertyOwner, http.HandlerFunc(property.Deactivate))).Methods(http.MethodPost)
	api.Handle("/properties/{id}/reservations",
		authz.RequireHandler("id", authorization.IsPropertyOwner, http.HandlerFunc(property.ListReservations))).Methods(http.MethodGet)

	// Reservations
	api.HandleFunc("/reservations", reservation.Create).Methods(http.MethodPost)
	api.HandleFunc("/reservations/mine", reservation.ListMine).Methods(http.MethodGet)
	api.HandleFunc("/reservations/owner", reservation.ListForOwner).Methods(http.MethodGet)
	api.HandleFunc("/reservations/owner/pending", reservation.ListPendingForOwner).Methods(http.MethodGet)
	api.Handle("/reservations/{id}",
		authz.RequireHandler("id", authorization.CanAccessReservation, http.HandlerFunc(reservation.Get))).Methods(http.MethodGet)
	api.Handle("/reservations/{id}/confirm",
		authz.RequireHandler("id", authorization.IsReservationPropertyOwner, http.HandlerFunc(reservation.Confirm))).Methods(http.MethodPost)
	api.Handle("/reservations/{id}/cancel",
		authz.RequireHandler("id", authorization.CanAccessReservation, http.HandlerFunc(reservation.Cancel))).Methods(http.MethodPost)
	api.Handle("/reservations/{id}/complete",
		authz.RequireHandler("id", authorization.IsReservationPropertyOwner, http.HandlerFunc(reservation.Complete))).Methods(http.MethodPost)
	api.Handle("/reservations/{id}/discount",
		authz.RequireHandler("id", authorization.IsReservationPropertyOwner, http.HandlerFunc(reservation.ApplyDiscount))).Methods(http.MethodPost)
	api.Handle("/reservations/{id}/free",
		authz.RequireHandler("id", authorization.IsReservationPropertyOwner, http.HandlerFunc(reservation.ApplyFreeStay))).Methods(http.MethodPost)

	// Access codes
	api.HandleFunc("/access-codes", accessCode.Create).Methods(http.MethodPost)
	api.HandleFunc("/access-codes/mine", accessCode.ListMine).Methods(http.MethodGet)
	api.HandleFunc("/access-codes/redeem", accessCode.Redeem).Methods(http.MethodPost)
	api.Handle("/access-codes/property/{propertyID}",
		authz.RequireHandler("propertyID", authorization.IsPropertyOwner, http.HandlerFunc(accessCode.ListByProperty))).Methods(http.MethodGet)
	api.Handle("/access-codes/{id}/revoke",
		authz.RequireHandler("id", authorization.IsAccessCodeCreator, http.HandlerFunc(accessCode.Revoke))).Methods(http.MethodPost)

	return router
}
