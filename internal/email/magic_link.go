package email

import (
	"fmt"
	"html"
)

// MagicLinkSubject is the subject line for magic-link mail.
const MagicLinkSubject = "Your sign-in link"

// MagicLinkHTML renders the html body for a magic-link message.
func MagicLinkHTML(link, clientName string) string {
	escapedLink := html.EscapeString(link)
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; max-width: 480px; margin: 0 auto;">
  <h2>Sign in to %s</h2>
  <p>Click the button below to sign in. The link works once and expires in 10 minutes.</p>
  <p style="margin: 24px 0;">
    <a href="%s" style="background: #2563eb; color: #fff; padding: 12px 24px; border-radius: 6px; text-decoration: none;">Sign in</a>
  </p>
  <p style="color: #666; font-size: 13px;">If the button does not work, copy this address into your browser:<br>%s</p>
  <p style="color: #666; font-size: 13px;">If you did not request this, you can ignore this message.</p>
</body>
</html>`, html.EscapeString(clientName), escapedLink, escapedLink)
}

// MagicLinkText renders the plain-text fallback body.
func MagicLinkText(link, clientName string) string {
	return fmt.Sprintf(`Sign in to %s

Open this link to sign in. It works once and expires in 10 minutes.

%s

If you did not request this, you can ignore this message.
`, clientName, link)
}
