package main

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/core/session"
)

type (
	loggerOut interface {
		Logout()
	}

	// trackedAuth reports the outcome of every Login call on done.
	trackedAuth struct {
		session.AuthProvider
		done chan error
	}

	// portal is the interactive loop of the login page.
	portal struct {
		ctrl            *session.Controller
		auth            *trackedAuth
		nav             *router
		term            *terminal
		defaultRedirect string
	}
)

func newTrackedAuth(auth session.AuthProvider) *trackedAuth {
	return &trackedAuth{AuthProvider: auth, done: make(chan error, 1)}
}

func (a *trackedAuth) Login(ctx context.Context, creds session.Credentials) error {
	err := a.AuthProvider.Login(ctx, creds)
	select {
	case a.done <- err:
	default:
	}
	return err
}

func (a *trackedAuth) Logout() {
	if lo, ok := a.AuthProvider.(loggerOut); ok {
		lo.Logout()
	}
}

func (p *portal) arrived() bool {
	select {
	case <-p.nav.Arrived():
		return true
	default:
		return false
	}
}

// run returns once the user reached the admin area or quit.
func (p *portal) run(ctx context.Context) error {
	p.ctrl.Init(ctx)
	if p.arrived() {
		return nil
	}

	for {
		p.term.printf("\n[l] login  [f] forgot password  [s] show/hide password  [q] quit\n")
		cmd, err := p.term.prompt(">")
		if err != nil {
			if errors.Cause(err) == io.EOF {
				return nil
			}
			return errors.Wrap(err, "reading command")
		}

		switch cmd {
		case "l", "login":
			done, err := p.login(ctx)
			if err != nil || done {
				return err
			}
		case "f", "forgot":
			p.ctrl.OpenResetPasswordPanel(ctx)
		case "s", "show", "hide":
			p.ctrl.TogglePasswordVisibility()
			if p.ctrl.PasswordField().Visible() {
				p.term.printf("password will be shown\n")
			} else {
				p.term.printf("password will be hidden\n")
			}
		case "q", "quit":
			return nil
		}
	}
}

func (p *portal) login(ctx context.Context) (bool, error) {
	uname, err := p.term.prompt("Username or email")
	if err != nil {
		return false, errors.Wrap(err, "reading username")
	}

	var pwd string
	if p.ctrl.PasswordField().Visible() {
		pwd, err = p.term.prompt("Password")
	} else {
		p.term.printf("Password: ")
		pwd, err = p.term.readPassword()
		p.term.printf("\n")
	}
	if err != nil {
		return false, errors.Wrap(err, "reading password")
	}

	p.ctrl.SetCredentials(uname, pwd)
	if !p.ctrl.LoginFormValid() {
		p.term.ToastError("invalid credentials")
		return false, nil
	}
	// drop the outcome of an attempt abandoned on ctx
	select {
	case <-p.auth.done:
	default:
	}
	p.ctrl.EnterOnPasswordField("Enter")
	p.waitIdle(ctx)

	switch {
	case p.arrived():
		return true, nil
	case !p.auth.IsLoggedIn():
		p.term.ToastError("invalid credentials")
		return false, nil
	}

	// logged in but the redirect target was rejected
	err = p.nav.Navigate(ctx, p.defaultRedirect, nil)
	if errors.Cause(err) == ErrForbidden {
		p.term.ToastError(ErrForbidden.Error())
		p.auth.Logout()
		return false, nil
	}
	return err == nil, err
}

// waitIdle waits for the submitted login to return and the controller to settle.
func (p *portal) waitIdle(ctx context.Context) {
	select {
	case <-p.auth.done:
	case <-p.nav.Arrived():
		return
	case <-ctx.Done():
		return
	}

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		btn, _ := p.ctrl.Button(session.ButtonSignIn)
		if p.arrived() || (!p.ctrl.IsLoading() && !btn.IsLoading) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
