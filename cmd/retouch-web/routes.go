package main

import (
	"context"
	"net/http"

	"github.com/fpang/retouch-studio/internal/i18n"
	"github.com/fpang/retouch-studio/internal/wizard"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/klauspost/compress/gzhttp"
)

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(withRequestID)
	r.Use(middleware.RealIP)
	r.Use(withLogging)
	r.Use(middleware.Recoverer)
	r.Use(withCORS)
	r.Use(i18n.Middleware(s.fallback))

	r.Get("/api/healthz", s.handleHealth)

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Use(s.withSession)
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Post("/reset", s.handleReset)
			r.Delete("/error", s.handleDismissError)
			r.Post("/image", s.handleSelectImage)
			r.Put("/parameters", s.handleUpdateParameters)
			r.Post("/retouch", s.handleRetouch)
			r.Post("/suggest", s.handleSuggest)
			r.Post("/reference", s.handleSelectReference)
			r.Post("/palette", s.handleExtract)
			r.Post("/selection/toggle", s.handleToggleColor)
			r.Post("/transfer", s.handleTransfer)
			r.Get("/previews/{handle}", s.handlePreview)
			r.Get("/download", s.handleDownload)
		})
	})

	return gzhttp.GzipHandler(r)
}

type sessionKey struct{}

// withSession resolves {id} and applies the request locale to the session.
func (s *server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.store.Get(chi.URLParam(r, "id"))
		if !ok {
			httpError(w, http.StatusNotFound, i18n.Sprintf(i18n.FromContext(r.Context()), i18n.MsgSessionNotFound))
			return
		}
		sess.SetLocale(i18n.FromContext(r.Context()))
		ctx := context.WithValue(r.Context(), sessionKey{}, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFrom(r *http.Request) *wizard.Session {
	return r.Context().Value(sessionKey{}).(*wizard.Session)
}
