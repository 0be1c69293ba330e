package main

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/core/session"
	"github.com/trezcool/masomo-portal/core/studyplan"
)

var errBackend = errors.New("backend unavailable")

type fakeAuth struct {
	mu         sync.Mutex
	password   string
	delay      time.Duration
	loggedIn   bool
	resetErrs  []error // consumed one per call
	resets     []string
	loggedOuts int
}

func (a *fakeAuth) IsLoggedIn() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loggedIn
}

func (a *fakeAuth) Login(_ context.Context, creds session.Credentials) error {
	a.mu.Lock()
	delay := a.delay
	a.mu.Unlock()
	time.Sleep(delay)

	a.mu.Lock()
	defer a.mu.Unlock()
	if creds.Password != a.password {
		return errBackend
	}
	a.loggedIn = true
	return nil
}

func (a *fakeAuth) ForgetPassword(_ context.Context, email string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.resets = append(a.resets, email)
	if len(a.resetErrs) > 0 {
		err := a.resetErrs[0]
		a.resetErrs = a.resetErrs[1:]
		return err
	}
	return nil
}

func (a *fakeAuth) Logout() {
	a.mu.Lock()
	a.loggedIn = false
	a.loggedOuts++
	a.mu.Unlock()
}

func (a *fakeAuth) resetCalls() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.resets...)
}

type fakeFetcher struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (f *fakeFetcher) Get(_ context.Context, path string, out interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return f.err
	}
	res, ok := out.(*routesResponse)
	if !ok || path != routesPath {
		return errors.Errorf("unexpected GET %s", path)
	}
	res.Default = studyplan.Default()
	res.Routes = studyplan.Routes()
	return nil
}
