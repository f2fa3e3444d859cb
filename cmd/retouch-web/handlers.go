package main

import (
	"net/http"
	"strings"

	"github.com/fpang/retouch-studio/internal/gemini"
	"github.com/fpang/retouch-studio/internal/i18n"
	"github.com/fpang/retouch-studio/internal/imaging"
	"github.com/fpang/retouch-studio/internal/wizard"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type sessionResponse struct {
	ID string `json:"id"`
	wizard.Snapshot
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"sessions": s.store.Len(),
		"version":  commitHash,
	})
}

func (s *server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id, sess := s.store.Create(i18n.FromContext(r.Context()))
	log.Info().Str("session_id", id).Msg("Session created")
	respondJSON(w, http.StatusCreated, sessionResponse{ID: id, Snapshot: sess.Snapshot()})
}

func (s *server) respondSnapshot(w http.ResponseWriter, r *http.Request, status int) {
	respondJSON(w, status, sessionResponse{
		ID:       chi.URLParam(r, "id"),
		Snapshot: sessionFrom(r).Snapshot(),
	})
}

func (s *server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s.respondSnapshot(w, r, http.StatusOK)
}

func (s *server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.store.Delete(id)
	log.Info().Str("session_id", id).Msg("Session deleted")
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleReset(w http.ResponseWriter, r *http.Request) {
	sessionFrom(r).Reset()
	s.respondSnapshot(w, r, http.StatusOK)
}

func (s *server) handleDismissError(w http.ResponseWriter, r *http.Request) {
	sessionFrom(r).DismissError()
	s.respondSnapshot(w, r, http.StatusOK)
}

func (s *server) handleSelectImage(w http.ResponseWriter, r *http.Request) {
	u, err := readUpload(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := sessionFrom(r).SelectImage(u); err != nil {
		respondError(w, r, err)
		return
	}
	s.respondSnapshot(w, r, http.StatusOK)
}

func (s *server) handleUpdateParameters(w http.ResponseWriter, r *http.Request) {
	var p gemini.RetouchParameters
	if err := decodeJSON(w, r, &p); err != nil {
		respondError(w, r, err)
		return
	}
	if err := sessionFrom(r).UpdateParameters(p); err != nil {
		respondError(w, r, err)
		return
	}
	s.respondSnapshot(w, r, http.StatusOK)
}

// startAction begins an asynchronous action and answers 202 with the
// snapshot that shows it in flight.
func (s *server) startAction(w http.ResponseWriter, r *http.Request, kind wizard.ActionKind, start func() (wizard.Job, error)) {
	job, err := start()
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.start(chi.URLParam(r, "id"), kind, job)
	s.respondSnapshot(w, r, http.StatusAccepted)
}

func (s *server) handleRetouch(w http.ResponseWriter, r *http.Request) {
	s.startAction(w, r, wizard.ActionEnhance, sessionFrom(r).StartRetouch)
}

func (s *server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	s.startAction(w, r, wizard.ActionSuggest, sessionFrom(r).StartSuggest)
}

func (s *server) handleSelectReference(w http.ResponseWriter, r *http.Request) {
	u, err := readUpload(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := sessionFrom(r).SelectReferenceImage(u); err != nil {
		respondError(w, r, err)
		return
	}
	s.respondSnapshot(w, r, http.StatusOK)
}

type extractRequest struct {
	Count int `json:"count"`
}

// handleExtract accepts either a JSON body with the palette size, or a
// multipart form carrying a new reference "file" and an optional "count".
func (s *server) handleExtract(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	count := sess.Snapshot().PaletteSize

	var upload *imaging.Upload
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		u, err := readUpload(w, r)
		if err != nil {
			respondError(w, r, err)
			return
		}
		upload = &u
		if v := r.FormValue("count"); v != "" {
			n, err := parseCount(v)
			if err != nil {
				respondError(w, r, err)
				return
			}
			count = n
		}
	} else if r.ContentLength != 0 {
		var req extractRequest
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(w, r, err)
			return
		}
		if req.Count != 0 {
			count = req.Count
		}
	}

	s.startAction(w, r, wizard.ActionExtract, func() (wizard.Job, error) {
		return sess.StartExtract(upload, count)
	})
}

type toggleRequest struct {
	Hex string `json:"hex"`
}

func (s *server) handleToggleColor(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if _, err := sessionFrom(r).ToggleColor(req.Hex); err != nil {
		respondError(w, r, err)
		return
	}
	s.respondSnapshot(w, r, http.StatusOK)
}

func (s *server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	s.startAction(w, r, wizard.ActionTransfer, sessionFrom(r).StartTransfer)
}

// handlePreview serves a preview by handle. Handles belong to one session,
// so a handle from another session is not found.
func (s *server) handlePreview(w http.ResponseWriter, r *http.Request) {
	data, mimeType, ok := sessionFrom(r).Handles().Lookup(wizard.Handle(chi.URLParam(r, "handle")))
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Write(data)
}
