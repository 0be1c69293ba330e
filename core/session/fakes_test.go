package session

import (
	"context"
	"errors"
	"sync"
)

var errBackend = errors.New("backend unavailable")

type fakeAuth struct {
	mu          sync.Mutex
	loggedIn    bool
	loginErr    error
	resetErr    error
	logins      []Credentials
	resets      []string
	inFlight    int
	maxInFlight int
	release     chan struct{} // when set, calls block until it is closed
	ctxErrs     []error
}

func (a *fakeAuth) IsLoggedIn() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loggedIn
}

func (a *fakeAuth) enter() chan struct{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.inFlight++
	if a.inFlight > a.maxInFlight {
		a.maxInFlight = a.inFlight
	}
	return a.release
}

func (a *fakeAuth) leave() {
	a.mu.Lock()
	a.inFlight--
	a.mu.Unlock()
}

func (a *fakeAuth) Login(ctx context.Context, creds Credentials) error {
	if release := a.enter(); release != nil {
		<-release
	}
	defer a.leave()

	a.mu.Lock()
	defer a.mu.Unlock()
	a.ctxErrs = append(a.ctxErrs, ctx.Err())
	if err := ctx.Err(); err != nil {
		return err
	}
	a.logins = append(a.logins, creds)
	if a.loginErr != nil {
		return a.loginErr
	}
	a.loggedIn = true
	return nil
}

func (a *fakeAuth) ForgetPassword(_ context.Context, email string) error {
	if release := a.enter(); release != nil {
		<-release
	}
	defer a.leave()

	a.mu.Lock()
	defer a.mu.Unlock()
	a.resets = append(a.resets, email)
	return a.resetErr
}

func (a *fakeAuth) inFlightCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.inFlight
}

func (a *fakeAuth) loginCtxErrs() []error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]error(nil), a.ctxErrs...)
}

func (a *fakeAuth) loginCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.logins)
}

func (a *fakeAuth) resetCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.resets)
}

func (a *fakeAuth) setLoginErr(err error) {
	a.mu.Lock()
	a.loginErr = err
	a.mu.Unlock()
}

type navigation struct {
	target string
	params Params
}

type fakeNav struct {
	mu    sync.Mutex
	calls []navigation
}

func (n *fakeNav) Navigate(_ context.Context, target string, params Params) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, navigation{target: target, params: params})
	return nil
}

func (n *fakeNav) navigations() []navigation {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]navigation(nil), n.calls...)
}

type fakeNotifier struct {
	mu     sync.Mutex
	popups []string
	toasts []string
}

func (n *fakeNotifier) Popup(_ context.Context, message, title string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.popups = append(n.popups, title+": "+message)
	return nil
}

func (n *fakeNotifier) ToastError(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.toasts = append(n.toasts, message)
}

func (n *fakeNotifier) counts() (popups, toasts int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.popups), len(n.toasts)
}

type fakeModalRef struct {
	once   sync.Once
	done   chan struct{}
	result bool
	err    error
}

func newFakeModalRef() *fakeModalRef {
	return &fakeModalRef{done: make(chan struct{})}
}

func (r *fakeModalRef) Result(ctx context.Context) (bool, error) {
	select {
	case <-r.done:
		return r.result, r.err
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (r *fakeModalRef) Close(result bool) {
	r.once.Do(func() {
		r.result = result
		close(r.done)
	})
}

func (r *fakeModalRef) Dismiss(err error) {
	r.once.Do(func() {
		r.err = err
		close(r.done)
	})
}

func (r *fakeModalRef) closed() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

type fakeModals struct {
	mu     sync.Mutex
	opened []*fakeModalRef
	panels []*ResetPasswordPanel
}

func (m *fakeModals) Open(content interface{}, _ ModalOptions) ModalRef {
	m.mu.Lock()
	defer m.mu.Unlock()
	ref := newFakeModalRef()
	m.opened = append(m.opened, ref)
	if panel, ok := content.(*ResetPasswordPanel); ok {
		m.panels = append(m.panels, panel)
	}
	return ref
}

func (m *fakeModals) last() (*fakeModalRef, *ResetPasswordPanel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.opened) == 0 {
		return nil, nil
	}
	return m.opened[len(m.opened)-1], m.panels[len(m.panels)-1]
}

type fakeTitle struct {
	mu    sync.Mutex
	title string
}

func (t *fakeTitle) SetTitle(title string) {
	t.mu.Lock()
	t.title = title
	t.mu.Unlock()
}

func (t *fakeTitle) get() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.title
}

type fakeParams struct {
	mu           sync.Mutex
	fn           func(Params)
	unsubscribed bool
}

func (p *fakeParams) Subscribe(fn func(Params)) Subscription {
	p.mu.Lock()
	p.fn = fn
	p.mu.Unlock()
	return SubscriptionFunc(func() {
		p.mu.Lock()
		p.unsubscribed = true
		p.mu.Unlock()
	})
}

func (p *fakeParams) emit(params Params) {
	p.mu.Lock()
	fn := p.fn
	p.mu.Unlock()
	fn(params)
}

func (p *fakeParams) isUnsubscribed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.unsubscribed
}
