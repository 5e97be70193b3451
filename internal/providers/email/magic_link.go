package email

import (
	"context"
	"fmt"
)

// SendMagicLink delivers the login link. The body stays deliberately
// small; the link is the message.
func SendMagicLink(ctx context.Context, p Provider, to, loginURL string) error {
	subject := "Your Ultra Civic sign-in link"
	body := fmt.Sprintf(
		`<p>Click the link below to sign in. It expires in 5 minutes and works once.</p>
<p><a href="%s">Sign in to Ultra Civic</a></p>
<p>If you did not request this, you can ignore this email.</p>`,
		loginURL,
	)
	return p.Send(ctx, []string{to}, subject, body)
}
