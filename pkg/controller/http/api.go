package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/snipzip/pkg/domain/interfaces"
	"github.com/m-mizutani/snipzip/pkg/domain/model"
	"github.com/oapi-codegen/runtime"
)

// archiveRequest is the body of a stateless archive build
type archiveRequest struct {
	Entries []model.Entry `json:"entries"`
}

// apiHandler serves the JSON API
type apiHandler struct {
	sessions interfaces.SessionUseCase
	archives interfaces.ArchiveUseCase
}

func newAPIHandler(sessions interfaces.SessionUseCase, archives interfaces.ArchiveUseCase) *apiHandler {
	return &apiHandler{
		sessions: sessions,
		archives: archives,
	}
}

// BuildArchive builds an archive from the entries in the request body
func (h *apiHandler) BuildArchive(w http.ResponseWriter, r *http.Request) {
	var req archiveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	archive, err := h.archives.Build(r.Context(), req.Entries)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeArchive(w, r, archive)
}

// CreateSession starts a new session
func (h *apiHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.Create(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, session)
}

// GetSession returns the session state
func (h *apiHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, session)
}

// DeleteSession ends the session
func (h *apiHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GrowSession adds one empty slot
func (h *apiHandler) GrowSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.Grow(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, session)
}

// UpdateSlot replaces one slot with the entry in the request body
func (h *apiHandler) UpdateSlot(w http.ResponseWriter, r *http.Request) {
	var index int
	if err := runtime.BindStyledParameterWithOptions("simple", "index", chi.URLParam(r, "index"), &index,
		runtime.BindStyledParameterOptions{
			ParamLocation: runtime.ParamLocationPath,
			Explode:       false,
			Required:      true,
		}); err != nil {
		writeError(w, r, goerr.Wrap(errBadRequest, "invalid slot index", goerr.V("cause", err.Error())))
		return
	}

	var entry model.Entry
	if err := decodeJSON(r, &entry); err != nil {
		writeError(w, r, err)
		return
	}

	session, err := h.sessions.UpdateSlot(r.Context(), chi.URLParam(r, "id"), index, entry)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, session)
}

// PreviewFiles lists the files the session would archive
func (h *apiHandler) PreviewFiles(w http.ResponseWriter, r *http.Request) {
	preview, err := h.sessions.Preview(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, preview)
}

// DownloadArchive builds and returns the session archive
func (h *apiHandler) DownloadArchive(w http.ResponseWriter, r *http.Request) {
	archive, err := h.sessions.Build(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeArchive(w, r, archive)
}

// decodeJSON decodes the request body into v
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return goerr.Wrap(err, "request body too large")
		}
		return goerr.Wrap(errBadRequest, "invalid JSON body", goerr.V("cause", err.Error()))
	}
	return nil
}
