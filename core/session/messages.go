package session

import (
	"strconv"
	"strings"

	ut "github.com/go-playground/universal-translator"
)

const (
	msgResetSuccessTitle = "session.reset.success.title"
	msgResetSuccess      = "session.reset.success"
	msgResetFailure      = "session.reset.failure"
)

var defaultMessages = map[string]string{
	msgResetSuccessTitle: "Operation successful",
	msgResetSuccess: "Your password RESET request has been accepted. We have sent an email with instructions " +
		"to recover your password to {0}. If you do not receive it, please check your Spam folder.",
	msgResetFailure: "Operation failed",
}

// RegisterTranslations adds the default texts of the session messages to translator.
// Texts already registered under the same keys are kept, so a localized translator wins.
func RegisterTranslations(translator ut.Translator) {
	for key, text := range defaultMessages {
		_ = translator.Add(key, text, false)
	}
}

func translate(translator ut.Translator, key string, params ...string) string {
	if translator != nil {
		if s, err := translator.T(key, params...); err == nil {
			return s
		}
	}
	s := defaultMessages[key]
	for i, p := range params {
		s = strings.ReplaceAll(s, "{"+strconv.Itoa(i)+"}", p)
	}
	return s
}
