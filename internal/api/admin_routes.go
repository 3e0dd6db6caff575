package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MelvinDY/SGM/internal/external"
	"github.com/MelvinDY/SGM/internal/models"
	"github.com/MelvinDY/SGM/internal/repository"
)

const maxBodyBytes = 1 << 20

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// writeStoreError maps repository errors onto HTTP statuses.
func (s *Server) writeStoreError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	s.log.Error(op, "err", err)
	writeError(w, http.StatusInternalServerError, op+" failed")
}

func (s *Server) handleAdminProducts(w http.ResponseWriter, r *http.Request) {
	if s.products == nil {
		writeUnavailable(w)
		return
	}
	ps, err := s.products.ListAll(r.Context())
	if err != nil {
		s.writeStoreError(w, "list products", err)
		return
	}
	writeJSON(w, http.StatusOK, toProductsJSON(ps))
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	if s.products == nil {
		writeUnavailable(w)
		return
	}
	in := models.ProductInsert{IsActive: true}
	if !decodeBody(w, r, &in) {
		return
	}
	if err := in.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	c, _ := models.ParseCategory(string(in.Category))
	in.Category = c

	p, err := s.products.Create(r.Context(), &in)
	if err != nil {
		s.writeStoreError(w, "create product", err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductJSON(*p))
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	if s.products == nil {
		writeUnavailable(w)
		return
	}
	var u models.ProductUpdate
	if !decodeBody(w, r, &u) {
		return
	}
	if err := u.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if u.Category != nil {
		c, _ := models.ParseCategory(string(*u.Category))
		u.Category = &c
	}

	p, err := s.products.Update(r.Context(), r.PathValue("id"), &u)
	if err != nil {
		s.writeStoreError(w, "update product", err)
		return
	}
	writeJSON(w, http.StatusOK, toProductJSON(*p))
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if s.products == nil {
		writeUnavailable(w)
		return
	}
	if err := s.products.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeStoreError(w, "delete product", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetActive(w http.ResponseWriter, r *http.Request) {
	if s.products == nil {
		writeUnavailable(w)
		return
	}
	var body struct {
		IsActive *bool `json:"is_active"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.IsActive == nil {
		writeError(w, http.StatusBadRequest, "is_active is required")
		return
	}
	p, err := s.products.SetActive(r.Context(), r.PathValue("id"), *body.IsActive)
	if err != nil {
		s.writeStoreError(w, "set active", err)
		return
	}
	writeJSON(w, http.StatusOK, toProductJSON(*p))
}

func (s *Server) handleSetFeatured(w http.ResponseWriter, r *http.Request) {
	if s.products == nil {
		writeUnavailable(w)
		return
	}
	var body struct {
		IsFeatured *bool `json:"is_featured"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.IsFeatured == nil {
		writeError(w, http.StatusBadRequest, "is_featured is required")
		return
	}
	p, err := s.products.SetFeatured(r.Context(), r.PathValue("id"), *body.IsFeatured)
	if err != nil {
		s.writeStoreError(w, "set featured", err)
		return
	}
	writeJSON(w, http.StatusOK, toProductJSON(*p))
}

func (s *Server) handleInstagramPreview(w http.ResponseWriter, r *http.Request) {
	if s.importer == nil {
		writeUnavailable(w)
		return
	}
	posts, err := s.importer.Preview(r.Context())
	if err != nil {
		s.writeSyncError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (s *Server) handleInstagramSync(w http.ResponseWriter, r *http.Request) {
	if s.importer == nil {
		writeUnavailable(w)
		return
	}
	res, err := s.importer.Sync(r.Context())
	if err != nil {
		s.writeSyncError(w, err)
		return
	}
	if s.hub != nil && res.Added > 0 {
		s.hub.Broadcast(streamMessage{Type: msgCatalog, Data: res})
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) writeSyncError(w http.ResponseWriter, err error) {
	if errors.Is(err, external.ErrInstagramNotConfigured) {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	s.log.Error("instagram sync", "err", err)
	writeError(w, http.StatusBadGateway, "failed to fetch Instagram posts")
}

func (s *Server) handleInstagramLogs(w http.ResponseWriter, r *http.Request) {
	if s.syncLogs == nil {
		writeUnavailable(w)
		return
	}
	logs, err := s.syncLogs.Recent(r.Context(), parseLimit(r, 20))
	if err != nil {
		s.log.Error("list sync logs", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch sync logs")
		return
	}
	writeJSON(w, http.StatusOK, logs)
}
