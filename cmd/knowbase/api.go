package main

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/hazyhaar/knowbase/horosafe"
	"github.com/hazyhaar/knowbase/idgen"
	"github.com/hazyhaar/knowbase/knowledge"
)

// apiServer exposes the document lifecycle as a thin JSON API for the
// operations console. It is not the end-user product surface.
type apiServer struct {
	svc       *knowledge.Service
	uploadDir string
	adminHash []byte
}

func (a *apiServer) routes(r chi.Router) {
	r.Use(a.requireAdmin)

	r.Route("/documents", func(r chi.Router) {
		r.Get("/", a.listDocuments)
		r.Post("/", a.addDocument)
		r.Post("/upload", a.uploadDocument)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", a.getDocument)
			r.Put("/", a.updateDocument)
			r.Delete("/", a.deleteDocument)
			r.Post("/reset", a.resetDocument)
			r.Post("/process", a.processDocument)
			r.Post("/indexed", a.markIndexed)
			r.Get("/history", a.history)
			r.Get("/categories", a.documentCategories)
			r.Put("/categories/{categoryID}", a.assignCategory)
			r.Delete("/categories/{categoryID}", a.unassignCategory)
		})
	})

	r.Route("/categories", func(r chi.Router) {
		r.Get("/", a.listCategories)
		r.Post("/", a.addCategory)
		r.Delete("/{id}", a.deleteCategory)
	})

	r.Get("/stats", a.stats)
}

// requireAdmin enforces HTTP Basic auth against the bcrypt hash derived
// from ADMIN_PASSWORD at startup.
func (a *apiServer) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(user), []byte("admin")) != 1 ||
			bcrypt.CompareHashAndPassword(a.adminHash, []byte(pass)) != nil {
			w.Header().Set("WWW-Authenticate", `Basic realm="knowbase"`)
			writeJSON(w, 401, map[string]string{"error": "authentication required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- Documents ---

func (a *apiServer) addDocument(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccountID   string `json:"account_id"`
		Name        string `json:"name"`
		Description string `json:"description"`
		DocType     string `json:"doc_type"`
		Content     string `json:"content"`
		FilePath    string `json:"file_path"`
		WebsiteURL  string `json:"website_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, 400, err)
		return
	}
	d := &knowledge.Document{
		Name:        req.Name,
		Description: req.Description,
		DocType:     req.DocType,
		Content:     req.Content,
		FilePath:    req.FilePath,
		WebsiteURL:  req.WebsiteURL,
	}
	if err := a.svc.AddDocument(r.Context(), req.AccountID, d); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, 201, d)
}

// uploadDocument accepts a multipart file, stores it under the upload
// directory with a generated name, and queues it as a file document.
func (a *apiServer) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, 400, err)
		return
	}
	accountID := r.FormValue("account_id")
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, 400, err)
		return
	}
	defer file.Close()

	// The stored name is generated; only the extension survives from the
	// client, and it has to pass the traversal check.
	ext := strings.ToLower(filepath.Ext(header.Filename))
	stored := idgen.New() + ext
	dst, err := horosafe.SafePath(a.uploadDir, stored)
	if err != nil {
		writeError(w, 400, err)
		return
	}

	out, err := os.Create(dst)
	if err != nil {
		writeError(w, 500, err)
		return
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		os.Remove(dst)
		writeError(w, 500, err)
		return
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		writeError(w, 500, err)
		return
	}

	d := &knowledge.Document{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		DocType:     knowledge.TypeFile,
		FilePath:    dst,
	}
	if d.Name == "" {
		d.Name = header.Filename
	}
	if err := a.svc.AddDocument(r.Context(), accountID, d); err != nil {
		os.Remove(dst)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, 201, d)
}

func (a *apiServer) listDocuments(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("account_id")
	if accountID == "" {
		writeJSON(w, 400, map[string]string{"error": "account_id is required"})
		return
	}
	docs, err := a.svc.ListDocuments(r.Context(), accountID,
		r.URL.Query().Get("status"), queryInt(r, "limit", 100))
	if err != nil {
		writeError(w, 500, err)
		return
	}
	if docs == nil {
		docs = []*knowledge.Document{}
	}
	writeJSON(w, 200, docs)
}

func (a *apiServer) getDocument(w http.ResponseWriter, r *http.Request) {
	d, err := a.svc.GetDocument(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, 200, d)
}

func (a *apiServer) updateDocument(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		DocType     string `json:"doc_type"`
		Content     string `json:"content"`
		FilePath    string `json:"file_path"`
		WebsiteURL  string `json:"website_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, 400, err)
		return
	}
	d := &knowledge.Document{
		ID:          chi.URLParam(r, "id"),
		Name:        req.Name,
		Description: req.Description,
		DocType:     req.DocType,
		Content:     req.Content,
		FilePath:    req.FilePath,
		WebsiteURL:  req.WebsiteURL,
	}
	if err := a.svc.UpdateDocument(r.Context(), d); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, 200, map[string]string{"id": d.ID, "status": knowledge.StatusPending})
}

func (a *apiServer) deleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.DeleteDocument(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, 200, map[string]string{"status": "deleted"})
}

func (a *apiServer) resetDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.svc.ResetDocument(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, 200, map[string]string{"id": id, "status": knowledge.StatusPending})
}

func (a *apiServer) processDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.svc.ProcessDocument(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	d, err := a.svc.GetDocument(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, 200, d)
}

func (a *apiServer) markIndexed(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.svc.MarkIndexed(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, 200, map[string]string{"id": id, "status": knowledge.StatusIndexed})
}

func (a *apiServer) history(w http.ResponseWriter, r *http.Request) {
	entries, err := a.svc.IngestHistory(r.Context(), chi.URLParam(r, "id"), queryInt(r, "limit", 20))
	if err != nil {
		writeError(w, 500, err)
		return
	}
	if entries == nil {
		entries = []*knowledge.IngestLogEntry{}
	}
	writeJSON(w, 200, entries)
}

func (a *apiServer) documentCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := a.svc.DocumentCategories(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, 500, err)
		return
	}
	if cats == nil {
		cats = []*knowledge.Category{}
	}
	writeJSON(w, 200, cats)
}

// --- Categories ---

func (a *apiServer) addCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccountID string `json:"account_id"`
		Name      string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, 400, err)
		return
	}
	c, err := a.svc.AddCategory(r.Context(), req.AccountID, req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, 201, c)
}

func (a *apiServer) listCategories(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("account_id")
	if accountID == "" {
		writeJSON(w, 400, map[string]string{"error": "account_id is required"})
		return
	}
	cats, err := a.svc.ListCategories(r.Context(), accountID)
	if err != nil {
		writeError(w, 500, err)
		return
	}
	if cats == nil {
		cats = []*knowledge.Category{}
	}
	writeJSON(w, 200, cats)
}

func (a *apiServer) deleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, 200, map[string]string{"status": "deleted"})
}

func (a *apiServer) assignCategory(w http.ResponseWriter, r *http.Request) {
	err := a.svc.AssignCategory(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "categoryID"))
	if err != nil {
		writeError(w, 500, err)
		return
	}
	writeJSON(w, 200, map[string]string{"status": "assigned"})
}

func (a *apiServer) unassignCategory(w http.ResponseWriter, r *http.Request) {
	err := a.svc.UnassignCategory(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "categoryID"))
	if err != nil {
		writeError(w, 500, err)
		return
	}
	writeJSON(w, 200, map[string]string{"status": "unassigned"})
}

// --- Stats ---

func (a *apiServer) stats(w http.ResponseWriter, r *http.Request) {
	s, err := a.svc.Stats(r.Context(), r.URL.Query().Get("account_id"))
	if err != nil {
		writeError(w, 500, err)
		return
	}
	writeJSON(w, 200, s)
}

// --- Helpers ---

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, knowledge.ErrNotFound):
		writeError(w, 404, err)
	case errors.Is(err, knowledge.ErrInvalidInput):
		writeError(w, 400, err)
	case errors.Is(err, knowledge.ErrDuplicateCategory),
		errors.Is(err, knowledge.ErrAlreadyClaimed):
		writeError(w, 409, err)
	default:
		writeError(w, 500, err)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
