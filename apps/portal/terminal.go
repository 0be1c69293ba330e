package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/core/session"
)

var errDismissed = errors.New("dialog dismissed")

// terminal renders the portal on a line based terminal.
// Only one prompt reads from in at a time: the main loop blocks while a dialog is open.
type terminal struct {
	in           *bufio.Reader
	out          io.Writer
	readPassword func() (string, error)
	settle       time.Duration // how long a submitted dialog may take to close

	mu sync.Mutex
}

var (
	_ session.Notifier     = (*terminal)(nil)
	_ session.TitleSetter  = (*terminal)(nil)
	_ session.ModalService = (*terminal)(nil)
)

func newTerminal(in io.Reader, out io.Writer, readPassword func() (string, error), settle time.Duration) *terminal {
	t := &terminal{in: bufio.NewReader(in), out: out, readPassword: readPassword, settle: settle}
	if t.readPassword == nil {
		t.readPassword = t.readLine
	}
	return t
}

func (t *terminal) printf(format string, args ...interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, _ = fmt.Fprintf(t.out, format, args...)
}

func (t *terminal) readLine() (string, error) {
	line, err := t.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (t *terminal) prompt(label string) (string, error) {
	t.printf("%s: ", label)
	return t.readLine()
}

func (t *terminal) SetTitle(title string) {
	t.printf("\n== %s ==\n", title)
}

// Popup waits for the user to press Enter.
func (t *terminal) Popup(ctx context.Context, message, title string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.printf("\n[%s]\n%s\n(press Enter) ", title, message)
	_, err := t.readLine()
	return err
}

func (t *terminal) ToastError(message string) {
	t.printf("! %s\n", message)
}

func (t *terminal) Open(content interface{}, opts session.ModalOptions) session.ModalRef {
	ref := newModalRef()
	panel, ok := content.(*session.ResetPasswordPanel)
	if !ok {
		ref.dismiss(errors.Errorf("unsupported dialog content %T", content))
		return ref
	}
	go t.runResetPasswordPanel(panel, ref)
	return ref
}

// runResetPasswordPanel prompts for an email until the request succeeds or the user gives up.
func (t *terminal) runResetPasswordPanel(panel *session.ResetPasswordPanel, ref *modalRef) {
	t.printf("\n-- Forgot password --\n")
	for {
		email, err := t.prompt("Email (empty to cancel)")
		if err != nil {
			ref.dismiss(errors.Wrap(err, "reading email"))
			return
		}
		if email == "" {
			ref.dismiss(errDismissed)
			return
		}

		panel.SetEmail(email)
		if !panel.Valid() {
			t.printf("! enter a valid email address\n")
			continue
		}
		panel.Submit()

		if t.waitClosed(panel, ref) {
			return
		}
	}
}

// waitClosed reports whether ref got closed once the submitted request settled.
func (t *terminal) waitClosed(panel *session.ResetPasswordPanel, ref *modalRef) bool {
	deadline := time.Now().Add(t.settle)
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ref.done:
			return true
		case <-ticker.C:
			if time.Now().After(deadline) && !panel.Loading() {
				select {
				case <-ref.done:
					return true
				default:
					return false
				}
			}
		}
	}
}

type modalRef struct {
	once   sync.Once
	done   chan struct{}
	result bool
	err    error
}

func newModalRef() *modalRef {
	return &modalRef{done: make(chan struct{})}
}

func (r *modalRef) Result(ctx context.Context) (bool, error) {
	select {
	case <-r.done:
		return r.result, r.err
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (r *modalRef) Close(result bool) {
	r.once.Do(func() {
		r.result = result
		close(r.done)
	})
}

func (r *modalRef) dismiss(err error) {
	r.once.Do(func() {
		r.err = err
		close(r.done)
	})
}
