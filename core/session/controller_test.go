package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-portal/core"
)

const (
	testDebounce = 20 * time.Millisecond
	waitFor      = time.Second
	tick         = 5 * time.Millisecond
)

type testEnv struct {
	ctrl     *Controller
	auth     *fakeAuth
	nav      *fakeNav
	notifier *fakeNotifier
	modals   *fakeModals
	title    *fakeTitle
	params   *fakeParams
}

func newTestEnv(t *testing.T, debounce time.Duration) *testEnv {
	t.Helper()
	env := &testEnv{
		auth:     new(fakeAuth),
		nav:      new(fakeNav),
		notifier: new(fakeNotifier),
		modals:   new(fakeModals),
		title:    new(fakeTitle),
		params:   new(fakeParams),
	}
	validate, translator := core.NewValidator()
	ctrl, err := NewController(
		Deps{
			Auth:       env.auth,
			Navigator:  env.nav,
			Notifier:   env.notifier,
			Modals:     env.modals,
			Title:      env.title,
			Params:     env.params,
			Validate:   validate,
			Translator: translator,
		},
		Options{DefaultRedirect: "/admin/hoctap-boiduong/kehoach-hoctap-boiduong", Debounce: debounce},
	)
	require.NoError(t, err)
	t.Cleanup(ctrl.Destroy)
	env.ctrl = ctrl
	return env
}

// ready initializes a logged out controller.
func (env *testEnv) ready(t *testing.T) {
	t.Helper()
	env.ctrl.Init(context.Background())
	require.False(t, env.ctrl.IsLoading())
}

func TestNewController_MissingDeps(t *testing.T) {
	full := Deps{Auth: new(fakeAuth), Navigator: new(fakeNav), Notifier: new(fakeNotifier), Modals: new(fakeModals)}
	tests := []struct {
		name    string
		mutate  func(d *Deps)
		wantErr string
	}{
		{name: "no auth", mutate: func(d *Deps) { d.Auth = nil }, wantErr: "AuthProvider"},
		{name: "no navigator", mutate: func(d *Deps) { d.Navigator = nil }, wantErr: "Navigator"},
		{name: "no notifier", mutate: func(d *Deps) { d.Notifier = nil }, wantErr: "Notifier"},
		{name: "no modals", mutate: func(d *Deps) { d.Modals = nil }, wantErr: "ModalService"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := full
			tt.mutate(&deps)
			_, err := NewController(deps, Options{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	ctrl, err := NewController(full, Options{})
	require.NoError(t, err)
	defer ctrl.Destroy()
	assert.True(t, ctrl.IsLoading(), "loading until Init")
	assert.Equal(t, 100*time.Millisecond, DefaultDebounce)
	assert.Equal(t, DefaultDebounce, ctrl.opts.Debounce)
	assert.Equal(t, "Login Account", ctrl.opts.LoginTitle)
}

func TestController_InvalidLoginFormDoesNotLogin(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
	}{
		{name: "both empty"},
		{name: "no password", username: "admin"},
		{name: "no username", password: "Secr3t!pwd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, testDebounce)
			env.ready(t)

			env.ctrl.SetCredentials(tt.username, tt.password)
			assert.False(t, env.ctrl.LoginFormValid())
			env.ctrl.BtnSignIn(ButtonSignIn)

			time.Sleep(5 * testDebounce)
			assert.Zero(t, env.auth.loginCount())
		})
	}

	env := newTestEnv(t, testDebounce)
	env.ctrl.SetCredentials("admin", "Secr3t!pwd")
	assert.True(t, env.ctrl.LoginFormValid())
}

func TestController_LoginIsDebounced(t *testing.T) {
	env := newTestEnv(t, DefaultDebounce)
	env.ready(t)

	env.ctrl.SetCredentials("first", "pwd-1")
	env.ctrl.BtnSignIn(ButtonSignIn)
	env.ctrl.SetCredentials("second", "pwd-2")
	env.ctrl.BtnSignIn(ButtonSignIn)

	assert.Eventually(t, func() bool { return env.auth.loginCount() == 1 }, waitFor, tick)
	time.Sleep(2 * DefaultDebounce)
	assert.Equal(t, 1, env.auth.loginCount())
	assert.Equal(t, Credentials{Username: "second", Password: "pwd-2"}, env.auth.logins[0], "last submit wins")
}

func TestController_SubmitIgnoredWhileLoading(t *testing.T) {
	env := newTestEnv(t, testDebounce)
	env.ctrl.SetCredentials("admin", "pwd")

	// not initialized yet: the session check is pending
	env.ctrl.BtnSignIn(ButtonSignIn)
	time.Sleep(5 * testDebounce)
	assert.Zero(t, env.auth.loginCount())

	env.ready(t)
	env.auth.release = make(chan struct{})
	env.ctrl.BtnSignIn(ButtonSignIn)
	assert.Eventually(t, func() bool {
		btn, _ := env.ctrl.Button(ButtonSignIn)
		return btn.IsLoading && env.ctrl.IsLoading()
	}, waitFor, tick)

	for i := 0; i < 5; i++ {
		env.ctrl.BtnSignIn(ButtonSignIn)
		env.ctrl.EnterOnPasswordField("Enter")
	}
	time.Sleep(5 * testDebounce)
	close(env.auth.release)

	assert.Eventually(t, func() bool { return !env.ctrl.IsLoading() }, waitFor, tick)
	assert.Equal(t, 1, env.auth.loginCount())
	assert.Equal(t, 1, env.auth.maxInFlight)
}

func TestController_FailedLoginCanBeRetried(t *testing.T) {
	env := newTestEnv(t, testDebounce)
	env.ready(t)
	env.auth.setLoginErr(errBackend)

	env.ctrl.SetCredentials("admin", "wrong")
	env.ctrl.BtnSignIn(ButtonSignIn)
	assert.Eventually(t, func() bool { return env.auth.loginCount() == 1 }, waitFor, tick)
	assert.Eventually(t, func() bool {
		btn, _ := env.ctrl.Button(ButtonSignIn)
		return !env.ctrl.IsLoading() && !btn.IsLoading
	}, waitFor, tick)
	assert.Empty(t, env.nav.navigations())

	env.auth.setLoginErr(nil)
	env.ctrl.SetCredentials("admin", "right")
	env.ctrl.BtnSignIn(ButtonSignIn)
	assert.Eventually(t, func() bool { return env.auth.loginCount() == 2 }, waitFor, tick)
	assert.Eventually(t, func() bool { return len(env.nav.navigations()) == 1 }, waitFor, tick)
}

func TestController_SuccessfulLoginRedirects(t *testing.T) {
	tests := []struct {
		name       string
		params     Params
		wantTarget string
	}{
		{name: "default redirect", wantTarget: "/admin/hoctap-boiduong/kehoach-hoctap-boiduong"},
		{name: "redirect param", params: Params{"redirect": "/admin/hoctap-boiduong/danhsach-hoctap-boiduong", "page": "2"}, wantTarget: "/admin/hoctap-boiduong/danhsach-hoctap-boiduong"},
		{name: "empty redirect param", params: Params{"redirect": ""}, wantTarget: "/admin/hoctap-boiduong/kehoach-hoctap-boiduong"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, testDebounce)
			if tt.params != nil {
				env.params.emit(tt.params)
			}
			env.ready(t)
			assert.Equal(t, defaultLoginTitle, env.title.get())

			env.ctrl.SetCredentials("admin", "pwd")
			env.ctrl.BtnSignIn(ButtonSignIn)

			assert.Eventually(t, func() bool { return len(env.nav.navigations()) == 1 }, waitFor, tick)
			nav := env.nav.navigations()[0]
			assert.Equal(t, tt.wantTarget, nav.target)
			assert.Equal(t, tt.params, nav.params, "query params are preserved")
			assert.Equal(t, defaultPageTitle, env.title.get())
			assert.Eventually(t, func() bool { return !env.ctrl.IsLoading() }, waitFor, tick)
			btn, _ := env.ctrl.Button(ButtonSignIn)
			assert.False(t, btn.IsLoading)
		})
	}
}

func TestController_TogglePasswordVisibility(t *testing.T) {
	env := newTestEnv(t, testDebounce)
	orig := env.ctrl.PasswordField()
	assert.False(t, orig.Visible())

	env.ctrl.TogglePasswordVisibility()
	shown := env.ctrl.PasswordField()
	assert.True(t, shown.Visible())
	assert.Equal(t, "fa fa-eye", shown.Icon)
	assert.Equal(t, PasswordHidden, shown.Next)

	env.ctrl.TogglePasswordVisibility()
	assert.Equal(t, orig, env.ctrl.PasswordField())
}

func TestController_EnterOnPasswordField(t *testing.T) {
	env := newTestEnv(t, testDebounce)
	env.ready(t)
	env.ctrl.SetCredentials("admin", "pwd")

	assert.False(t, env.ctrl.EnterOnPasswordField("a"))
	time.Sleep(5 * testDebounce)
	assert.Zero(t, env.auth.loginCount())

	assert.True(t, env.ctrl.EnterOnPasswordField("Enter"))
	assert.Eventually(t, func() bool { return env.auth.loginCount() == 1 }, waitFor, tick)
}

func TestController_ResetPasswordValidation(t *testing.T) {
	tests := []struct {
		email     string
		wantCalls int
	}{
		{email: "", wantCalls: 0},
		{email: "abc", wantCalls: 0},
		{email: "abc@", wantCalls: 0},
		{email: "user@example", wantCalls: 0},
		{email: "user@example.com", wantCalls: 1},
		{email: "first.last@school.co.cd", wantCalls: 1},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			env := newTestEnv(t, testDebounce)
			env.ctrl.SetResetEmail(tt.email)
			env.ctrl.BtnClickSendRequestPassword()

			time.Sleep(5 * testDebounce)
			assert.Equal(t, tt.wantCalls, env.auth.resetCount())
			if tt.wantCalls > 0 {
				assert.Equal(t, tt.email, env.auth.resets[0])
			}
		})
	}
}

func TestController_OneResetRequestInFlight(t *testing.T) {
	env := newTestEnv(t, testDebounce)
	env.auth.release = make(chan struct{})

	go env.ctrl.requestResetPassword("user@example.com")
	assert.Eventually(t, env.ctrl.ResetPasswordLoading, waitFor, tick)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			env.ctrl.requestResetPassword("user@example.com")
		}()
	}
	wg.Wait()
	close(env.auth.release)

	assert.Eventually(t, func() bool { return !env.ctrl.ResetPasswordLoading() }, waitFor, tick)
	assert.Equal(t, 1, env.auth.resetCount())
	assert.Equal(t, 1, env.auth.maxInFlight)
}

func TestController_ResetPasswordPanel(t *testing.T) {
	t.Run("success closes the panel as cancelled", func(t *testing.T) {
		env := newTestEnv(t, testDebounce)
		done := make(chan struct{})
		go func() {
			env.ctrl.OpenResetPasswordPanel(context.Background())
			close(done)
		}()

		assert.Eventually(t, func() bool { ref, _ := env.modals.last(); return ref != nil }, waitFor, tick)
		ref, panel := env.modals.last()
		require.NotNil(t, panel)
		panel.SetEmail("user@example.com")
		require.True(t, panel.Valid())
		panel.Submit()

		<-done
		assert.True(t, ref.closed())
		assert.False(t, ref.result)
		assert.Equal(t, []string{"user@example.com"}, env.auth.resets)
		popups, toasts := env.notifier.counts()
		assert.Zero(t, popups)
		assert.Zero(t, toasts)
	})

	t.Run("failure toasts and keeps the panel open", func(t *testing.T) {
		env := newTestEnv(t, testDebounce)
		env.auth.resetErr = errBackend
		go env.ctrl.OpenResetPasswordPanel(context.Background())

		assert.Eventually(t, func() bool { ref, _ := env.modals.last(); return ref != nil }, waitFor, tick)
		ref, panel := env.modals.last()
		panel.SetEmail("user@example.com")
		panel.Submit()

		assert.Eventually(t, func() bool { _, toasts := env.notifier.counts(); return toasts == 1 }, waitFor, tick)
		assert.False(t, ref.closed())
		assert.False(t, panel.Loading())
		assert.Equal(t, "Operation failed", env.notifier.toasts[0])
		ref.Dismiss(errors.New("closed"))
	})

	t.Run("confirmation pops up the email", func(t *testing.T) {
		env := newTestEnv(t, testDebounce)
		done := make(chan struct{})
		go func() {
			env.ctrl.OpenResetPasswordPanel(context.Background())
			close(done)
		}()

		assert.Eventually(t, func() bool { ref, _ := env.modals.last(); return ref != nil }, waitFor, tick)
		ref, panel := env.modals.last()
		panel.SetEmail("user@example.com")
		ref.Close(true)
		<-done

		popups, _ := env.notifier.counts()
		require.Equal(t, 1, popups)
		assert.True(t, strings.HasPrefix(env.notifier.popups[0], "Operation successful: "))
		assert.Contains(t, env.notifier.popups[0], "user@example.com")
	})

	t.Run("dismissal is swallowed", func(t *testing.T) {
		env := newTestEnv(t, testDebounce)
		done := make(chan struct{})
		go func() {
			env.ctrl.OpenResetPasswordPanel(context.Background())
			close(done)
		}()

		assert.Eventually(t, func() bool { ref, _ := env.modals.last(); return ref != nil }, waitFor, tick)
		ref, _ := env.modals.last()
		ref.Dismiss(errors.New("backdrop click"))
		<-done

		popups, toasts := env.notifier.counts()
		assert.Zero(t, popups)
		assert.Zero(t, toasts)
	})

	t.Run("reopening resets the form", func(t *testing.T) {
		env := newTestEnv(t, testDebounce)
		env.ctrl.SetResetEmail("user@example.com")
		go env.ctrl.OpenResetPasswordPanel(context.Background())

		assert.Eventually(t, func() bool { ref, _ := env.modals.last(); return ref != nil }, waitFor, tick)
		ref, panel := env.modals.last()
		assert.False(t, panel.Valid())
		panel.Cancel()
		assert.True(t, ref.closed())
	})
}

func TestController_NotLoggedInScenario(t *testing.T) {
	env := newTestEnv(t, testDebounce)
	assert.True(t, env.ctrl.IsLoading())

	env.ctrl.Init(context.Background())

	assert.Equal(t, defaultLoginTitle, env.title.get())
	assert.False(t, env.ctrl.IsLoading())
	assert.Empty(t, env.nav.navigations())
}

func TestController_AlreadyLoggedInScenario(t *testing.T) {
	env := newTestEnv(t, testDebounce)
	env.auth.loggedIn = true
	params := Params{"redirect": "/dashboard"}
	env.params.emit(params)

	env.ctrl.Init(context.Background())

	navs := env.nav.navigations()
	require.Len(t, navs, 1)
	assert.Equal(t, "/dashboard", navs[0].target)
	assert.Equal(t, params, navs[0].params)
	assert.Equal(t, defaultPageTitle, env.title.get())
	assert.False(t, env.ctrl.IsLoading())
}

func TestController_Destroy(t *testing.T) {
	env := newTestEnv(t, DefaultDebounce)
	env.ready(t)

	env.ctrl.SetCredentials("admin", "pwd")
	env.ctrl.BtnSignIn(ButtonSignIn)
	env.ctrl.SetResetEmail("user@example.com")
	env.ctrl.BtnClickSendRequestPassword()
	env.ctrl.Destroy()
	env.ctrl.Destroy()

	time.Sleep(3 * DefaultDebounce)
	assert.Zero(t, env.auth.loginCount(), "pending login dropped")
	assert.Zero(t, env.auth.resetCount(), "pending reset dropped")
	assert.True(t, env.params.isUnsubscribed())
}

func TestController_DestroyKeepsInFlightLogin(t *testing.T) {
	env := newTestEnv(t, testDebounce)
	env.ready(t)
	env.auth.release = make(chan struct{})

	env.ctrl.SetCredentials("admin", "pwd")
	env.ctrl.BtnSignIn(ButtonSignIn)
	require.Eventually(t, func() bool { return env.auth.inFlightCount() == 1 }, waitFor, tick)

	env.ctrl.Destroy()
	close(env.auth.release)

	require.Eventually(t, env.auth.IsLoggedIn, waitFor, tick)
	assert.Equal(t, []error{nil}, env.auth.loginCtxErrs())
	assert.Eventually(t, func() bool { return !env.ctrl.IsLoading() }, waitFor, tick)
}

func TestController_ParamsAreCopied(t *testing.T) {
	env := newTestEnv(t, testDebounce)
	params := Params{"redirect": "/admin"}
	env.params.emit(params)
	params["redirect"] = "/elsewhere"

	assert.Equal(t, Params{"redirect": "/admin"}, env.ctrl.Params())
}
