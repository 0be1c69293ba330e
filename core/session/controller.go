// Package session drives the login and password reset flow of the admin portal.
//
// The Controller validates the forms, debounces submissions, guards against
// duplicate in-flight requests and hands off to navigation once a session exists.
// Rendering is left to the collaborators it is built with.
package session

import (
	"context"
	"sync"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/core"
)

const (
	defaultPageTitle  = "admin area"
	defaultLoginTitle = "Login Account"
	redirectParam     = "redirect"
)

type ButtonName string

const ButtonSignIn ButtonName = "signIn"

// Button tracks the in-flight request started by an actionable button.
type Button struct {
	Name      ButtonName
	IsLoading bool
}

type (
	Options struct {
		// DefaultRedirect is the target once logged in when the route has no `redirect` param.
		DefaultRedirect string
		PageTitle       string
		LoginTitle      string
		Debounce        time.Duration
	}

	Deps struct {
		Auth      AuthProvider
		Navigator Navigator
		Notifier  Notifier
		Modals    ModalService

		// optional
		Title      TitleSetter
		Params     ParamsSource
		Validate   *validator.Validate
		Translator ut.Translator
		Logger     core.Logger
	}

	Controller struct {
		auth       AuthProvider
		nav        Navigator
		notifier   Notifier
		modals     ModalService
		title      TitleSetter
		validate   *validator.Validate
		translator ut.Translator
		logger     core.Logger
		opts       Options

		mu                   sync.Mutex
		params               Params
		isLoading            bool
		buttons              map[ButtonName]*Button
		currentButton        *Button
		loginForm            Credentials
		resetForm            ResetRequest
		passwordField        PasswordField
		resetPasswordLoading bool
		modalRef             ModalRef

		loginEvents *Debouncer[Credentials]
		resetEvents *Debouncer[string]
		subs        *Subscriptions
	}
)

// NewController builds a Controller and starts listening to the route params.
// The Controller is loading until Init has checked the session.
func NewController(deps Deps, opts Options) (*Controller, error) {
	switch {
	case deps.Auth == nil:
		return nil, errors.New("session: missing AuthProvider")
	case deps.Navigator == nil:
		return nil, errors.New("session: missing Navigator")
	case deps.Notifier == nil:
		return nil, errors.New("session: missing Notifier")
	case deps.Modals == nil:
		return nil, errors.New("session: missing ModalService")
	}

	if deps.Validate == nil {
		deps.Validate, _ = core.NewValidator()
	}
	if deps.Logger == nil {
		deps.Logger = core.NopLogger
	}
	if deps.Translator != nil {
		RegisterTranslations(deps.Translator)
	}
	if opts.PageTitle == "" {
		opts.PageTitle = defaultPageTitle
	}
	if opts.LoginTitle == "" {
		opts.LoginTitle = defaultLoginTitle
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	signIn := &Button{Name: ButtonSignIn}
	c := &Controller{
		auth:          deps.Auth,
		nav:           deps.Navigator,
		notifier:      deps.Notifier,
		modals:        deps.Modals,
		title:         deps.Title,
		validate:      deps.Validate,
		translator:    deps.Translator,
		logger:        deps.Logger,
		opts:          opts,
		isLoading:     true,
		buttons:       map[ButtonName]*Button{ButtonSignIn: signIn},
		currentButton: signIn,
		passwordField: passwordFieldControl[PasswordHidden],
		subs:          new(Subscriptions),
	}

	c.loginEvents = NewDebouncer(opts.Debounce, c.checkLogin)
	c.resetEvents = NewDebouncer(opts.Debounce, c.requestResetPassword)
	c.subs.Add(c.loginEvents)
	c.subs.Add(c.resetEvents)
	if deps.Params != nil {
		c.subs.Add(deps.Params.Subscribe(c.setParams))
	}
	return c, nil
}

func (c *Controller) setParams(p Params) {
	c.mu.Lock()
	c.params = p.Copy()
	c.mu.Unlock()
}

// Init checks whether a session already exists.
func (c *Controller) Init(ctx context.Context) {
	c.CheckUserLoginStatus(ctx)
}

// Destroy releases every listener of the Controller. Pending events are dropped;
// a login or reset request already sent to the AuthProvider still completes.
func (c *Controller) Destroy() {
	c.subs.Unsubscribe()
}

// CheckUserLoginStatus redirects to the `redirect` param (or the default redirect) when logged in.
func (c *Controller) CheckUserLoginStatus(ctx context.Context) {
	if c.auth.IsLoggedIn() {
		c.mu.Lock()
		params := c.params.Copy()
		c.mu.Unlock()

		redirect := c.opts.DefaultRedirect
		if r, ok := params[redirectParam]; ok && r != "" {
			redirect = r
		}
		c.setTitle(c.opts.PageTitle)
		if err := c.nav.Navigate(ctx, redirect, params); err != nil {
			c.logger.Error("session: navigating to "+redirect, errors.Wrap(err, "navigating"))
		}
	} else {
		c.setTitle(c.opts.LoginTitle)
	}

	c.mu.Lock()
	c.isLoading = false
	c.mu.Unlock()
}

func (c *Controller) setTitle(title string) {
	if c.title != nil {
		c.title.SetTitle(title)
	}
}

// SetCredentials binds the login form inputs.
func (c *Controller) SetCredentials(username, password string) {
	c.mu.Lock()
	c.loginForm = Credentials{Username: username, Password: password}
	c.mu.Unlock()
}

// LoginFormValid reports whether the login form can be submitted.
func (c *Controller) LoginFormValid() bool {
	c.mu.Lock()
	creds := c.loginForm
	c.mu.Unlock()
	return c.validate.Struct(creds) == nil
}

// BtnSignIn submits the login form through the named button.
// It is a no-op while the Controller or the button is loading, or when the form is invalid.
func (c *Controller) BtnSignIn(name ButtonName) {
	c.mu.Lock()
	button, ok := c.buttons[name]
	if !ok || c.isLoading || button.IsLoading {
		c.mu.Unlock()
		return
	}
	c.currentButton = button
	creds := c.loginForm
	c.mu.Unlock()

	if name == ButtonSignIn && c.validate.Struct(creds) == nil {
		c.loginEvents.Push(creds)
	}
}

func (c *Controller) checkLogin(creds Credentials) {
	c.mu.Lock()
	button := c.currentButton
	// a login is already in flight
	if c.isLoading || button.IsLoading {
		c.mu.Unlock()
		return
	}
	c.isLoading = true
	button.IsLoading = true
	c.mu.Unlock()

	// in-flight calls outlive Destroy
	err := c.auth.Login(context.Background(), creds)

	c.mu.Lock()
	button.IsLoading = false
	if err != nil {
		c.isLoading = false
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Info("session: login failed", err)
		return
	}
	c.CheckUserLoginStatus(context.Background())
}

// EnterOnPasswordField submits the login form when key is "Enter".
// It reports whether the key was handled, in which case the default action must be suppressed.
func (c *Controller) EnterOnPasswordField(key string) bool {
	if key != "Enter" {
		return false
	}
	c.BtnSignIn(ButtonSignIn)
	return true
}

func (c *Controller) TogglePasswordVisibility() {
	c.mu.Lock()
	c.passwordField = c.passwordField.toggle()
	c.mu.Unlock()
}

// OpenResetPasswordPanel opens the password reset dialog and blocks until it is closed.
// A confirmed dialog pops up a success message; a cancelled or dismissed one is ignored.
func (c *Controller) OpenResetPasswordPanel(ctx context.Context) {
	c.mu.Lock()
	c.resetForm = ResetRequest{}
	c.mu.Unlock()

	ref := c.modals.Open(&ResetPasswordPanel{c: c}, NormalModalOptions)
	c.mu.Lock()
	c.modalRef = ref
	c.mu.Unlock()

	status, err := ref.Result(ctx)
	if err != nil {
		c.logger.Debug("session: reset password panel dismissed", err)
		return
	}
	if !status {
		return
	}

	c.mu.Lock()
	email := c.resetForm.Email
	c.mu.Unlock()

	msg := translate(c.translator, msgResetSuccess, email)
	title := translate(c.translator, msgResetSuccessTitle)
	if err = c.notifier.Popup(ctx, msg, title); err != nil {
		c.logger.Debug("session: reset password popup", err)
	}
}

// CloseModalResetPassword closes the password reset dialog as cancelled.
func (c *Controller) CloseModalResetPassword() {
	c.mu.Lock()
	ref := c.modalRef
	c.mu.Unlock()
	if ref != nil {
		ref.Close(false)
	}
}

// SetResetEmail binds the password reset form input.
func (c *Controller) SetResetEmail(email string) {
	c.mu.Lock()
	c.resetForm = ResetRequest{Email: email}
	c.mu.Unlock()
}

// BtnClickSendRequestPassword submits the password reset form if it is valid.
func (c *Controller) BtnClickSendRequestPassword() {
	c.mu.Lock()
	req := c.resetForm
	c.mu.Unlock()

	if c.validate.Struct(req) == nil {
		c.resetEvents.Push(req.Email)
	}
}

func (c *Controller) requestResetPassword(email string) {
	c.mu.Lock()
	if c.resetPasswordLoading {
		c.mu.Unlock()
		return
	}
	c.resetPasswordLoading = true
	c.mu.Unlock()

	err := c.auth.ForgetPassword(context.Background(), email)

	c.mu.Lock()
	c.resetPasswordLoading = false
	c.mu.Unlock()

	if err != nil {
		c.logger.Info("session: password reset request failed", err)
		c.notifier.ToastError(translate(c.translator, msgResetFailure))
		return
	}
	c.CloseModalResetPassword()
}

// ResetFormValid reports whether the password reset form can be submitted.
func (c *Controller) ResetFormValid() bool {
	c.mu.Lock()
	req := c.resetForm
	c.mu.Unlock()
	return c.validate.Struct(req) == nil
}

func (c *Controller) IsLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isLoading
}

// Button returns a snapshot of the named button.
func (c *Controller) Button(name ButtonName) (Button, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.buttons[name]; ok {
		return *b, true
	}
	return Button{}, false
}

func (c *Controller) PasswordField() PasswordField {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.passwordField
}

func (c *Controller) ResetPasswordLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resetPasswordLoading
}

// Params returns a copy of the route params captured so far.
func (c *Controller) Params() Params {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.params.Copy()
}

// ResetPasswordPanel is the content of the password reset dialog.
type ResetPasswordPanel struct {
	c *Controller
}

func (p *ResetPasswordPanel) SetEmail(email string) { p.c.SetResetEmail(email) }
func (p *ResetPasswordPanel) Submit()               { p.c.BtnClickSendRequestPassword() }
func (p *ResetPasswordPanel) Cancel()               { p.c.CloseModalResetPassword() }
func (p *ResetPasswordPanel) Valid() bool           { return p.c.ResetFormValid() }
func (p *ResetPasswordPanel) Loading() bool         { return p.c.ResetPasswordLoading() }
