package api

import (
	"errors"
	"net/http"

	"github.com/MelvinDY/SGM/internal/gold"
	"github.com/MelvinDY/SGM/internal/models"
	"github.com/MelvinDY/SGM/internal/repository"
)

type productJSON struct {
	models.Product
	FormattedPrice *string `json:"formatted_price"`
}

func toProductJSON(p models.Product) productJSON {
	out := productJSON{Product: p}
	if p.Price != nil {
		f := gold.FormatMajor(*p.Price)
		out.FormattedPrice = &f
	}
	return out
}

func toProductsJSON(ps []models.Product) []productJSON {
	out := make([]productJSON, len(ps))
	for i, p := range ps {
		out[i] = toProductJSON(p)
	}
	return out
}

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	if s.products == nil {
		writeUnavailable(w)
		return
	}
	ps, err := s.products.ListActive(r.Context())
	if err != nil {
		s.log.Error("list products", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch products")
		return
	}
	writeJSON(w, http.StatusOK, toProductsJSON(ps))
}

func (s *Server) handleFeaturedProducts(w http.ResponseWriter, r *http.Request) {
	if s.products == nil {
		writeUnavailable(w)
		return
	}
	ps, err := s.products.ListFeatured(r.Context())
	if err != nil {
		s.log.Error("list featured products", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch products")
		return
	}
	writeJSON(w, http.StatusOK, toProductsJSON(ps))
}

func (s *Server) handleProductsByCategory(w http.ResponseWriter, r *http.Request) {
	if s.products == nil {
		writeUnavailable(w)
		return
	}
	c, err := models.ParseCategory(r.PathValue("category"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ps, err := s.products.ListByCategory(r.Context(), c)
	if err != nil {
		s.log.Error("list products by category", "category", c, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch products")
		return
	}
	writeJSON(w, http.StatusOK, toProductsJSON(ps))
}

// handleProduct serves one product; drafts are hidden from the public catalog.
func (s *Server) handleProduct(w http.ResponseWriter, r *http.Request) {
	if s.products == nil {
		writeUnavailable(w)
		return
	}
	p, err := s.products.GetByID(r.Context(), r.PathValue("id"))
	if errors.Is(err, repository.ErrNotFound) || (err == nil && !p.IsActive) {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		s.log.Error("get product", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch product")
		return
	}
	writeJSON(w, http.StatusOK, toProductJSON(*p))
}
