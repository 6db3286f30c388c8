package mailer

import "embed"

const (
	FromName              = "Storefront"
	maxRetries            = 3
	ResetPasswordTemplate = "reset_password.tmpl"
)

//go:embed "templates"
var FS embed.FS

// Client renders templateFile with data and delivers it to email. The int is
// a transport status code for logging.
type Client interface {
	Send(templateFile, username, email string, data any) (int, error)
}
