package session

import "context"

type (
	// Credentials are read from the login form on submit. They are never persisted.
	Credentials struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	// ResetRequest is the password reset form.
	ResetRequest struct {
		Email string `json:"email" validate:"required,realemail"`
	}

	// Params are the query parameters of the current route.
	Params map[string]string

	// AuthProvider owns the session: it knows whether a user is logged in and talks to the backend.
	AuthProvider interface {
		IsLoggedIn() bool
		Login(ctx context.Context, creds Credentials) error
		ForgetPassword(ctx context.Context, email string) error
	}

	// Navigator moves the user to another route.
	Navigator interface {
		Navigate(ctx context.Context, target string, params Params) error
	}

	// Notifier shows feedback to the user.
	Notifier interface {
		// Popup blocks until the user acknowledges the message.
		Popup(ctx context.Context, message, title string) error
		ToastError(message string)
	}

	// ModalService opens dialogs. The content is rendered by the implementation.
	ModalService interface {
		Open(content interface{}, opts ModalOptions) ModalRef
	}

	// ModalRef is a handle on an opened dialog.
	ModalRef interface {
		// Result blocks until the dialog is closed or dismissed.
		// A dismissal (or ctx being done) yields an error.
		Result(ctx context.Context) (bool, error)
		Close(result bool)
	}

	ModalOptions struct {
		Size     string
		Centered bool
		// Static dialogs are not dismissed by clicking outside or pressing Escape.
		Static bool
	}

	TitleSetter interface {
		SetTitle(title string)
	}

	// ParamsSource streams the query parameters of the current route.
	ParamsSource interface {
		Subscribe(fn func(Params)) Subscription
	}
)

// NormalModalOptions are used for the password reset panel.
var NormalModalOptions = ModalOptions{Size: "md", Centered: true, Static: true}

// Copy returns a copy of p that is safe to hand out.
func (p Params) Copy() Params {
	if p == nil {
		return nil
	}
	cp := make(Params, len(p))
	for k, v := range p {
		cp[k] = v
	}
	return cp
}

type staticParams Params

// StaticParams is a ParamsSource that emits p once, on Subscribe.
func StaticParams(p Params) ParamsSource {
	return staticParams(p)
}

func (p staticParams) Subscribe(fn func(Params)) Subscription {
	fn(Params(p).Copy())
	return SubscriptionFunc(func() {})
}
