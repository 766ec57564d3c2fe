package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/vaultlink/internal/apperr"
	"github.com/starford/vaultlink/internal/buffer"
	"github.com/starford/vaultlink/internal/convert"
	"github.com/starford/vaultlink/internal/linkservice"
	"github.com/starford/vaultlink/internal/uri"
)

// Handler holds API route handlers.
type Handler struct {
	svc *linkservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *linkservice.Service) *Handler {
	return &Handler{svc: svc}
}

// notePath extracts the note path from the wildcard URL segment.
// Supports encoded slashes from OpenAPI clients (e.g. topics%2Fnote.md).
func notePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

func convertResponse(res convert.Result, dir convert.Direction) ConvertResponse {
	msg := dir.NothingMessage()
	if res.Changed() {
		msg = dir.DoneMessage()
	}
	return ConvertResponse{
		Text:      res.Text,
		Converted: res.Converted,
		Skipped:   res.Skipped,
		Changed:   res.Changed(),
		Message:   msg,
	}
}

// ConvertToInternal handles POST /api/convert/internal.
//
//	@Summary		Convert URIs in text to internal links
//	@Tags			convert
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ConvertRequest	true	"Text to convert"
//	@Success		200		{object}	ConvertResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/convert/internal [post]
func (h *Handler) ConvertToInternal(w http.ResponseWriter, r *http.Request) {
	h.convertText(w, r, convert.ToInternal)
}

// ConvertToExternal handles POST /api/convert/external.
//
//	@Summary		Convert internal links in text to URIs
//	@Tags			convert
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ConvertRequest	true	"Text to convert"
//	@Success		200		{object}	ConvertResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/convert/external [post]
func (h *Handler) ConvertToExternal(w http.ResponseWriter, r *http.Request) {
	h.convertText(w, r, convert.ToExternal)
}

func (h *Handler) convertText(w http.ResponseWriter, r *http.Request, dir convert.Direction) {
	var req ConvertRequest
	if !readJSON(w, r, 10<<20, &req) {
		return
	}
	res, err := h.svc.ConvertText(r.Context(), req.Text, dir)
	if err != nil && !errors.Is(err, apperr.ErrNoConvertibleSpans) {
		slog.Error("convert text failed", slog.String("direction", string(dir)), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, convertResponse(res, dir))
}

// ConvertNote handles POST /api/convert/notes/*.
//
//	@Summary		Convert links inside a note, optionally within a byte range
//	@Tags			convert
//	@Accept			json
//	@Produce		json
//	@Param			path		path		string				true	"Note path"
//	@Param			If-Match	header		string				false	"SHA-256 checksum for optimistic concurrency"
//	@Param			body		body		ConvertNoteRequest	true	"Direction and optional range"
//	@Success		200			{object}	ConvertNoteResponse
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/convert/notes/{path} [post]
func (h *Handler) ConvertNote(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	var req ConvertNoteRequest
	if !readJSON(w, r, 1<<20, &req) {
		return
	}
	dir, err := convert.ParseDirection(req.Direction)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	res, err := h.svc.ConvertNote(r.Context(), path, dir, req.Range, r.Header.Get("If-Match"))
	if err != nil && !errors.Is(err, apperr.ErrNoConvertibleSpans) {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		case errors.Is(err, apperr.ErrConflict):
			writeJSON(w, http.StatusConflict, errorBody("checksum mismatch"))
		case errors.Is(err, buffer.ErrOutOfRange):
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		default:
			slog.Error("convert note failed", slog.String("path", path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	w.Header().Set("ETag", `"`+res.Checksum+`"`)
	writeJSON(w, http.StatusOK, ConvertNoteResponse{
		Path:            res.Path,
		Checksum:        res.Checksum,
		ConvertResponse: convertResponse(res.Result, dir),
	})
}

// StampNote handles POST /api/stamp/*.
//
//	@Summary		Give a note a stable identifier
//	@Tags			notes
//	@Produce		json
//	@Param			path	path		string	true	"Note path"
//	@Success		200		{object}	StampResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/stamp/{path} [post]
func (h *Handler) StampNote(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	id, changed, err := h.svc.Stamp(r.Context(), path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("stamp note failed", slog.String("path", path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, StampResponse{Path: path, ID: id, Changed: changed})
}

// Resolve handles GET /api/resolve.
//
//	@Summary		Resolve a document by name or stable id
//	@Tags			documents
//	@Produce		json
//	@Param			file	query		string	false	"Document name or linkpath"
//	@Param			uid		query		string	false	"Stable identifier"
//	@Param			uuid	query		string	false	"Stable identifier"
//	@Success		200		{object}	ResolveResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/resolve [get]
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	kind, value := uri.ByName, q.Get(uri.ParamFile)
	if value == "" {
		kind, value = uri.ByStableID, q.Get(uri.ParamUUID)
	}
	if value == "" {
		value = q.Get(uri.ParamUID)
	}
	if value == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("one of file, uuid or uid is required"))
		return
	}
	doc, err := h.svc.Resolve(r.Context(), kind, value)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("resolve failed", slog.String("value", value), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	resp := ResolveResponse{Name: doc.Name, Path: doc.Path}
	resp.StableID, _ = h.svc.StableID(doc)
	writeJSON(w, http.StatusOK, resp)
}

// ListDocuments handles GET /api/documents.
//
//	@Summary		List indexed documents
//	@Tags			documents
//	@Produce		json
//	@Success		200	{object}	DocumentListResponse
//	@Security		BearerAuth
//	@Router			/documents [get]
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Documents(r.Context())
	if err != nil {
		slog.Error("list documents failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if items == nil {
		items = []DocumentListItem{}
	}
	writeJSON(w, http.StatusOK, DocumentListResponse{Documents: items, Total: len(items)})
}

// GetSettings handles GET /api/settings.
//
//	@Summary		Get the conversion settings
//	@Tags			settings
//	@Produce		json
//	@Success		200	{object}	Settings
//	@Security		BearerAuth
//	@Router			/settings [get]
func (h *Handler) GetSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Settings())
}

// UpdateSettings handles PUT /api/settings.
//
//	@Summary		Update the conversion settings
//	@Tags			settings
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SettingsUpdate	true	"Fields to change"
//	@Success		200		{object}	Settings
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/settings [put]
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsUpdate
	if !readJSON(w, r, 1<<20, &req) {
		return
	}
	p, err := h.svc.UpdateSettings(req.apply)
	if err != nil {
		var verrs validation.Errors
		if errors.As(err, &verrs) {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
			return
		}
		slog.Error("update settings failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, p)
}
