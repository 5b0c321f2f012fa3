package server

import (
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/storefront-auth/api"
)

// DashboardHandler returns the signed-in identity (GET /dashboard)
func (s *Server) DashboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := s.freshSession(w, r)
		if !ok {
			return
		}
		writeJSON(w, r, http.StatusOK, identityFromSession(session))
	}
}

// ProductsListHandler lists the catalogue (GET /dashboard/products)
func (s *Server) ProductsListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := s.freshSession(w, r)
		if !ok {
			return
		}
		products, err := s.deps.API.WithToken(session.AccessToken).ListProducts(r.Context())
		if err != nil {
			writeAPIError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, products)
	}
}

// ProductCreateHandler adds a product (POST /dashboard/products)
func (s *Server) ProductCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := s.freshSession(w, r)
		if !ok {
			return
		}
		var product api.Product
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&product); err != nil {
			writeJSONError(w, r, http.StatusBadRequest, "invalid product")
			return
		}
		created, err := s.deps.API.WithToken(session.AccessToken).CreateProduct(r.Context(), product)
		if err != nil {
			writeAPIError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusCreated, created)
	}
}

// OrdersListHandler lists orders (GET /dashboard/orders)
func (s *Server) OrdersListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := s.freshSession(w, r)
		if !ok {
			return
		}
		orders, err := s.deps.API.WithToken(session.AccessToken).ListOrders(r.Context())
		if err != nil {
			writeAPIError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, orders)
	}
}

// OrderStatusHandler moves an order to a new status (PATCH /dashboard/orders/{id}/status)
func (s *Server) OrderStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := s.freshSession(w, r)
		if !ok {
			return
		}
		var body struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&body); err != nil || body.Status == "" {
			writeJSONError(w, r, http.StatusBadRequest, "status is required")
			return
		}
		order, err := s.deps.API.WithToken(session.AccessToken).UpdateOrderStatus(r.Context(), r.PathValue("id"), body.Status)
		if err != nil {
			writeAPIError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, order)
	}
}

// ProfileHandler returns the user's profile from the API (GET /settings/profile)
func (s *Server) ProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := s.freshSession(w, r)
		if !ok {
			return
		}
		profile, err := s.deps.API.WithToken(session.AccessToken).GetProfile(r.Context())
		if err != nil {
			writeAPIError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, profile)
	}
}

// ProfileUpdateHandler replaces the user's profile (PUT /settings/profile)
func (s *Server) ProfileUpdateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := s.freshSession(w, r)
		if !ok {
			return
		}
		var profile api.Profile
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&profile); err != nil {
			writeJSONError(w, r, http.StatusBadRequest, "invalid profile")
			return
		}
		updated, err := s.deps.API.WithToken(session.AccessToken).UpdateProfile(r.Context(), profile)
		if err != nil {
			writeAPIError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, updated)
	}
}
