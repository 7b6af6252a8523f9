package templates

import (
	"fmt"
	"html"
	"strings"
)

// RenderNotificationEmail generates the HTML body for a notification e-mail. The message is
// escaped and newlines become <br> tags. A link button is added when link is not empty.
func RenderNotificationEmail(subject, message, link string) string {
	safeSubject := html.EscapeString(subject)
	body := strings.ReplaceAll(html.EscapeString(message), "\n", "<br>")

	button := ""
	if link != "" {
		button = fmt.Sprintf(`<p class="action"><a href="%s">Open in Secure Evidence</a></p>`, html.EscapeString(link))
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
  <meta http-equiv="Content-Type" content="text/html; charset=utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>%s</title>
  <style type="text/css">
    body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 0; background-color: #f3f4f6; }
    .container { max-width: 600px; margin: 0 auto; background-color: #ffffff; }
    .header { background-color: #1f2937; padding: 32px 30px; text-align: center; }
    .header h1 { color: #fff; margin: 0; font-size: 22px; font-weight: 600; }
    .content { padding: 32px 30px; color: #111827; line-height: 1.6; font-size: 15px; }
    .action a { display: inline-block; padding: 10px 18px; background-color: #2563eb; color: #fff; text-decoration: none; border-radius: 4px; }
    .footer { padding: 24px; text-align: center; color: #6b7280; font-size: 12px; border-top: 1px solid #e5e7eb; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>%s</h1>
    </div>
    <div class="content">
      <p>%s</p>
      %s
    </div>
    <div class="footer">
      <p>You are receiving this because you have notifications enabled for your Secure Evidence account.</p>
    </div>
  </div>
</body>
</html>`, safeSubject, safeSubject, body, button)
}
