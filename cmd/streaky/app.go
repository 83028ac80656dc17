package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ahmedelhadi17776/streaky/internal/client"
	"github.com/ahmedelhadi17776/streaky/internal/domain/streak"
	"github.com/ahmedelhadi17776/streaky/internal/localstate"
	"github.com/ahmedelhadi17776/streaky/internal/reconcile"
	"github.com/ahmedelhadi17776/streaky/pkg/daykey"
	"github.com/ahmedelhadi17776/streaky/pkg/logger"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var errNotLoggedIn = errors.New("not logged in, run `streaky login` first")

// app is the wiring shared by every command.
type app struct {
	settings *viper.Viper

	log     *logger.Logger
	state   *localstate.File
	cached  *localstate.State
	session *client.Session
}

func (a *app) open() error {
	if a.session != nil {
		return nil
	}

	level := "error"
	if a.settings.GetBool("verbose") {
		level = "debug"
	}
	a.log = logger.New(logger.Options{Level: level, Encoding: "console"})

	path := a.settings.GetString("state_file")
	if path == "" {
		var err error
		if path, err = localstate.DefaultPath(); err != nil {
			return fmt.Errorf("failed to locate state file: %w", err)
		}
	}
	a.state = localstate.NewFile(path)

	cached, err := a.state.Load()
	if err != nil {
		return err
	}
	a.cached = cached

	apiURL := a.settings.GetString("api_url")
	refresh := cached.RefreshToken
	if cached.APIURL != "" && cached.APIURL != apiURL {
		// Tokens and records from another server are useless here.
		refresh = ""
		cached.Snapshot = nil
	}

	a.session = client.NewSession(apiURL, refresh, nil)
	a.session.OnRefreshToken = func(token string) {
		err := a.state.Update(func(st *localstate.State) {
			st.APIURL = apiURL
			st.RefreshToken = token
			if token == "" {
				st.Snapshot = nil
			}
		})
		if err != nil {
			a.log.Error("Failed to save session", zap.Error(err))
		}
	}
	return nil
}

// withReconciler loads the current state, runs fn and waits for its writes
// to reach the store before returning.
func (a *app) withReconciler(ctx context.Context, fn func(r *reconcile.Reconciler) error) error {
	if err := a.open(); err != nil {
		return err
	}
	if !a.session.LoggedIn() {
		return errNotLoggedIn
	}

	r := a.newReconciler()
	if err := r.Load(ctx, a.cached.Snapshot); err != nil {
		if !errors.Is(err, reconcile.ErrOffline) {
			return sessionError(err)
		}
		fmt.Fprintln(os.Stderr, "warning:", err)
	}

	r.Start(ctx)
	defer r.Stop()

	if err := fn(r); err != nil {
		return err
	}
	if err := r.Flush(ctx); err != nil {
		return sessionError(fmt.Errorf("changes saved locally but not synced: %w", err))
	}
	return nil
}

func (a *app) newReconciler() *reconcile.Reconciler {
	r := reconcile.New(client.NewHTTPStore(a.session), daykey.SystemClock{}, a.log)
	r.OnChange(func(s *streak.AppState) {
		if !a.session.LoggedIn() {
			return
		}
		if err := a.state.SetSnapshot(s); err != nil {
			a.log.Error("Failed to cache state", zap.Error(err))
		}
	})
	return r
}

func sessionError(err error) error {
	if errors.Is(err, client.ErrUnauthenticated) {
		return fmt.Errorf("session expired, run `streaky login` again: %w", err)
	}
	return err
}
