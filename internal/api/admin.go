package api

import (
	"context"
	"net/http"
	"net/url"

	"food-order-backend/internal/admin"
)

func (h *Handler) adminRoutes(route func(string, http.HandlerFunc)) {
	if h.admin == nil {
		return
	}
	staff := h.guard.RequireStaff
	a := h.admin

	route("GET /admin/customers/{$}", staff(list(admin.ParseCustomerFilter, a.ListCustomers)))
	route("POST /admin/customers/{$}", staff(create(a.CreateCustomer)))
	route("GET /admin/customers/{id}/{$}", staff(get(a.GetCustomer)))
	route("PATCH /admin/customers/{id}/{$}", staff(update(a.UpdateCustomer)))
	route("DELETE /admin/customers/{id}/{$}", staff(remove(a.DeleteCustomer)))

	route("GET /admin/categories/{$}", staff(list(admin.ParseCategoryFilter, a.ListCategories)))
	route("POST /admin/categories/{$}", staff(create(a.CreateCategory)))
	route("GET /admin/categories/{id}/{$}", staff(get(a.GetCategory)))
	route("PATCH /admin/categories/{id}/{$}", staff(update(a.UpdateCategory)))
	route("DELETE /admin/categories/{id}/{$}", staff(remove(a.DeleteCategory)))

	route("GET /admin/menu-items/{$}", staff(list(admin.ParseMenuItemFilter, a.ListMenuItems)))
	route("POST /admin/menu-items/{$}", staff(create(a.CreateMenuItem)))
	route("GET /admin/menu-items/{id}/{$}", staff(get(a.GetMenuItem)))
	route("PATCH /admin/menu-items/{id}/{$}", staff(update(a.UpdateMenuItem)))
	route("DELETE /admin/menu-items/{id}/{$}", staff(remove(a.DeleteMenuItem)))

	route("GET /admin/orders/{$}", staff(list(admin.ParseOrderFilter, a.ListOrders)))
	route("GET /admin/orders/{id}/{$}", staff(get(a.GetOrder)))

	route("GET /admin/payments/{$}", staff(list(admin.ParsePaymentFilter, a.ListPayments)))
	route("GET /admin/payments/{id}/{$}", staff(get(a.GetPayment)))
	route("PATCH /admin/payments/{id}/{$}", staff(update(a.UpdatePayment)))

	route("GET /admin/order-status-events/{$}", staff(list(admin.ParseEventFilter, a.ListStatusEvents)))
}

func list[F, T any](parse func(url.Values) (F, error), fetch func(context.Context, F) ([]T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := parse(r.URL.Query())
		if err != nil {
			writeError(w, r, err)
			return
		}
		out, err := fetch(r.Context(), f)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(out))
	}
}

func get[T any](fetch func(context.Context, int64) (*T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, r, err)
			return
		}
		out, err := fetch(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func create[I, T any](fn func(context.Context, I) (*T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in I
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, r, err)
			return
		}
		out, err := fn(r.Context(), in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, out)
	}
}

func update[I, T any](fn func(context.Context, int64, I) (*T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, r, err)
			return
		}
		var in I
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, r, err)
			return
		}
		out, err := fn(r.Context(), id, in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func remove(fn func(context.Context, int64) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, r, err)
			return
		}
		if err := fn(r.Context(), id); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
