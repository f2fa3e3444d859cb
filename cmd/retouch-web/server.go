package main

import (
	"context"
	"sync"

	"github.com/fpang/retouch-studio/internal/config"
	"github.com/fpang/retouch-studio/internal/session"
	"github.com/fpang/retouch-studio/internal/wizard"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
)

// server holds the session store and runs wizard jobs in the background.
type server struct {
	ctx      context.Context
	cfg      config.Config
	store    *session.Store
	fallback language.Tag

	// spawn runs a job body; tests replace it to run jobs inline.
	spawn func(func())
	jobs  sync.WaitGroup
}

func newServer(ctx context.Context, remote wizard.Remote, cfg config.Config, fallback language.Tag) *server {
	factory := func(tag language.Tag) *wizard.Session {
		return wizard.New(remote, wizard.Options{
			MaxLiveHandles:      cfg.MaxLiveHandles,
			PreviewMaxDimension: cfg.PreviewMaxDimension,
			Locale:              tag,
		})
	}
	return &server{
		ctx:      ctx,
		cfg:      cfg,
		store:    session.NewStore(cfg.SessionTTL, factory),
		fallback: fallback,
		spawn:    func(f func()) { go f() },
	}
}

// start runs job under the operation timeout, detached from the request.
func (s *server) start(id string, kind wizard.ActionKind, job wizard.Job) {
	s.jobs.Add(1)
	s.spawn(func() {
		defer s.jobs.Done()
		ctx := s.ctx
		if s.cfg.OperationTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.cfg.OperationTimeout)
			defer cancel()
		}

		err := job(ctx)
		switch {
		case err == nil:
			log.Info().Str("session_id", id).Str("action", kind.String()).Msg("Action complete")
		case wizard.IsStale(err):
			log.Debug().Str("session_id", id).Str("action", kind.String()).Msg("Action result discarded")
		default:
			log.Warn().Err(err).Str("session_id", id).Str("action", kind.String()).Msg("Action failed")
		}
	})
}

// Close waits for running jobs and closes every session.
func (s *server) Close() {
	s.jobs.Wait()
	s.store.Close()
}
