package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/munnerz/goautoneg"
	"golang.org/x/text/language"

	"vocabhub/internal/codec"
	"vocabhub/internal/hierarchy"
	"vocabhub/internal/service"
)

// MediaTypeParam overrides the Accept header when present in the query
const MediaTypeParam = "_mediatype"

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// HierarchyResponse is the JSON form of a resolved hierarchy
type HierarchyResponse struct {
	*service.HierarchyView
	Items []*hierarchy.Item `json:"items"`
}

var (
	hierarchyOffers = []string{codec.MediaHTML, codec.MediaJSON}
	narrowerOffers  = []string{codec.MediaTurtle, codec.MediaNTriples, codec.MediaJSON}
)

// VocabularyHandler serves the vocabulary catalog and concept hierarchies
type VocabularyHandler struct {
	vocabs      *service.VocabularyService
	hierarchies *service.HierarchyService
	language    language.Tag
	logger      *slog.Logger
}

// NewVocabularyHandler creates a vocabulary handler. lang is reported as the
// Content-Language of rendered hierarchies.
func NewVocabularyHandler(vocabs *service.VocabularyService, hierarchies *service.HierarchyService,
	lang language.Tag, logger *slog.Logger) *VocabularyHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &VocabularyHandler{
		vocabs:      vocabs,
		hierarchies: hierarchies,
		language:    lang,
		logger:      logger,
	}
}

// Register adds the vocabulary routes to mux
func (h *VocabularyHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /vocabularies", h.ListVocabularies)
	mux.HandleFunc("GET /vocabularies/{id}", h.GetVocabulary)
	mux.HandleFunc("GET /vocabularies/{id}/hierarchy", h.GetHierarchy)
	mux.HandleFunc("GET /vocabularies/{id}/narrower", h.GetNarrower)
	mux.HandleFunc("GET /healthz", h.Health)
}

// ListVocabularies returns the catalog
func (h *VocabularyHandler) ListVocabularies(w http.ResponseWriter, r *http.Request) {
	vocabs, err := h.vocabs.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list vocabularies", "error", err)
		writeError(w, "Failed to list vocabularies", err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, vocabs, http.StatusOK)
}

// GetVocabulary returns a single vocabulary
func (h *VocabularyHandler) GetVocabulary(w http.ResponseWriter, r *http.Request) {
	v, err := h.vocabs.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, v, http.StatusOK)
}

// GetHierarchy resolves and renders the concept hierarchy of a vocabulary.
// The optional uri query parameter selects a root other than the
// vocabulary's own.
func (h *VocabularyHandler) GetHierarchy(w http.ResponseWriter, r *http.Request) {
	mediaType := negotiate(r, hierarchyOffers)
	if mediaType == "" {
		writeError(w, "Not acceptable", "supported: text/html, application/json", http.StatusNotAcceptable)
		return
	}

	view, err := h.hierarchies.Hierarchy(r.Context(), r.PathValue("id"), r.URL.Query().Get("uri"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Language", h.language.String())
	w.Header().Add("Vary", "Accept")

	if mediaType == codec.MediaJSON {
		writeJSON(w, HierarchyResponse{HierarchyView: view, Items: view.Tree.Items()}, http.StatusOK)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := codec.WriteTreeview(view.Tree, w); err != nil {
		h.logger.Error("failed to write treeview", "vocabulary", view.Vocabulary.ID, "error", err)
	}
}

// GetNarrower returns the direct narrower graph of the concept named by the
// uri query parameter
func (h *VocabularyHandler) GetNarrower(w http.ResponseWriter, r *http.Request) {
	uri := r.URL.Query().Get("uri")
	if uri == "" {
		writeError(w, "Invalid concept", "uri query parameter is required", http.StatusBadRequest)
		return
	}

	mediaType := negotiate(r, narrowerOffers)
	c := codec.ForMediaType(mediaType)
	if c == nil {
		writeError(w, "Not acceptable", "supported: text/turtle, application/n-triples, application/json", http.StatusNotAcceptable)
		return
	}

	g, err := h.hierarchies.Narrower(r.Context(), r.PathValue("id"), uri)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", c.MediaType())
	w.Header().Add("Vary", "Accept")
	w.WriteHeader(http.StatusOK)
	if err := c.Export(g, w); err != nil {
		h.logger.Error("failed to export narrower graph", "uri", uri, "error", err)
	}
}

// Health reports liveness and the catalog size
func (h *VocabularyHandler) Health(w http.ResponseWriter, r *http.Request) {
	vocabs, err := h.vocabs.List(r.Context())
	if err != nil {
		writeError(w, "Unhealthy", err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, map[string]interface{}{"status": "ok", "vocabularies": len(vocabs)}, http.StatusOK)
}

func (h *VocabularyHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var cycle *hierarchy.CycleError
	switch {
	case errors.Is(err, service.ErrNotFound):
		writeError(w, "Not found", err.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrNoRoot):
		writeError(w, "No hierarchy root", "pass a concept URI in the uri query parameter", http.StatusBadRequest)
	case errors.As(err, &cycle):
		h.logger.Warn("hierarchy contains a cycle", "path", r.URL.Path, "uri", cycle.URI)
		writeError(w, "hierarchy unavailable", cycle.Error(), http.StatusBadGateway)
	case errors.Is(err, service.ErrHierarchyUnavailable):
		h.logger.Error("hierarchy unavailable", "path", r.URL.Path, "error", err)
		writeError(w, "hierarchy unavailable", "", http.StatusBadGateway)
	default:
		h.logger.Error("request failed", "path", r.URL.Path, "error", err)
		writeError(w, "Internal error", err.Error(), http.StatusInternalServerError)
	}
}

// negotiate picks a media type from offers. The _mediatype query parameter
// wins over the Accept header; a missing Accept header selects the first
// offer. An empty result means nothing acceptable is offered.
func negotiate(r *http.Request, offers []string) string {
	if mt := r.URL.Query().Get(MediaTypeParam); mt != "" {
		for _, offer := range offers {
			if offer == mt {
				return offer
			}
		}
		return ""
	}
	accept := r.Header.Get("Accept")
	if accept == "" {
		return offers[0]
	}
	return goautoneg.Negotiate(accept, offers)
}

func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON", "error", err)
	}
}

func writeError(w http.ResponseWriter, error, details string, statusCode int) {
	writeJSON(w, ErrorResponse{Error: error, Details: details}, statusCode)
}
