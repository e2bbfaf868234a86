package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rohanjoseph/freshbasket-backend/api/middleware"
	"github.com/rohanjoseph/freshbasket-backend/api/responses"
	"github.com/rohanjoseph/freshbasket-backend/api/validators"
	"github.com/rohanjoseph/freshbasket-backend/internal/cartstate"
	"github.com/rohanjoseph/freshbasket-backend/internal/identity"
	"github.com/rohanjoseph/freshbasket-backend/pkg/db/models"
	pkgerrors "github.com/rohanjoseph/freshbasket-backend/pkg/errors"
	"github.com/rohanjoseph/freshbasket-backend/pkg/logger"
)

type cartLineResponse struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type cartResponse struct {
	Items   []cartLineResponse `json:"items"`
	Total   decimal.Decimal    `json:"total"`
	Count   int                `json:"count"`
	Loading bool               `json:"loading"`
}

func newCartResponse(manager *cartstate.Manager) cartResponse {
	items := manager.Items()
	lines := make([]cartLineResponse, 0, len(items))
	for _, item := range items {
		lines = append(lines, newCartLineResponse(item))
	}
	return cartResponse{
		Items:   lines,
		Total:   decimal.New(manager.Total(), -2),
		Count:   manager.Count(),
		Loading: manager.Loading(),
	}
}

func newCartLineResponse(item models.CartItem) cartLineResponse {
	line := cartLineResponse{
		ID:        item.ID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
	}
	if item.Product != nil {
		line.Name = item.Product.Name
		line.UnitPrice = decimal.New(int64(item.Product.PriceCents), -2)
		line.Subtotal = decimal.New(int64(item.Product.PriceCents)*int64(item.Quantity), -2)
	}
	return line
}

func cartSession(r *http.Request, registry *cartstate.Registry) (*cartstate.Session, error) {
	if registry == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart registry unavailable")
	}
	userID, err := userIDFromRequest(r)
	if err != nil {
		return nil, err
	}
	ident := identity.Identity{ID: userID, Email: middleware.EmailFromContext(r.Context())}
	return registry.Session(r.Context(), ident)
}

// CartGet returns the caller's cart projection.
func CartGet(registry *cartstate.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := cartSession(r, registry)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(session.Manager))
	}
}

type addCartLineRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"omitempty,min=1"`
}

// CartAdd adds a product to the caller's cart, merging duplicate lines.
func CartAdd(registry *cartstate.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := cartSession(r, registry)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body addCartLineRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if body.ProductID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id is required"))
			return
		}

		if err := session.Manager.Add(r.Context(), body.ProductID, body.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(session.Manager))
	}
}

type setCartQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// CartSetQuantity changes a line's quantity. Zero or less removes the line.
func CartSetQuantity(registry *cartstate.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := cartSession(r, registry)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lineID, err := uuid.Parse(chi.URLParam(r, "lineID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid line id"))
			return
		}

		var body setCartQuantityRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := session.Manager.SetQuantity(r.Context(), lineID, body.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(session.Manager))
	}
}

// CartRemove deletes a line from the caller's cart.
func CartRemove(registry *cartstate.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := cartSession(r, registry)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lineID, err := uuid.Parse(chi.URLParam(r, "lineID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid line id"))
			return
		}

		if err := session.Manager.Remove(r.Context(), lineID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(session.Manager))
	}
}
