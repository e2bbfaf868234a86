package controllers

import (
	"net/http"

	"github.com/rohanjoseph/freshbasket-backend/api/responses"
	"github.com/rohanjoseph/freshbasket-backend/api/validators"
	"github.com/rohanjoseph/freshbasket-backend/internal/cartstate"
	checkoutsvc "github.com/rohanjoseph/freshbasket-backend/internal/checkout"
	pkgerrors "github.com/rohanjoseph/freshbasket-backend/pkg/errors"
	"github.com/rohanjoseph/freshbasket-backend/pkg/logger"
)

// CheckoutPlaceOrder persists the caller's cart as an order and clears the
// cart once the order is durably stored.
func CheckoutPlaceOrder(svc checkoutsvc.Service, registry *cartstate.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		session, err := cartSession(r, registry)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body checkoutsvc.PlaceOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		receipt, err := svc.PlaceOrder(r.Context(), userID, session.Manager, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, receipt)
	}
}
