package session

type PasswordVisibility string

const (
	PasswordHidden PasswordVisibility = "hide"
	PasswordShown  PasswordVisibility = "show"
)

// PasswordField describes how the password input is rendered. Next is the state a toggle moves to.
type PasswordField struct {
	Type string
	Icon string
	Next PasswordVisibility
}

var passwordFieldControl = map[PasswordVisibility]PasswordField{
	PasswordHidden: {Type: "password", Icon: "fa fa-eye-slash", Next: PasswordShown},
	PasswordShown:  {Type: "text", Icon: "fa fa-eye", Next: PasswordHidden},
}

func (f PasswordField) toggle() PasswordField {
	return passwordFieldControl[f.Next]
}

// Visible reports whether the password is shown in clear text.
func (f PasswordField) Visible() bool { return f.Type == "text" }
