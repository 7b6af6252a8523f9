package templates

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderNotificationEmail(t *testing.T) {
	out := RenderNotificationEmail("New evidence", "New evidence uploaded for case: <Break-in>\nPlease review", "https://app.example.com/cases/1")

	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, "&lt;Break-in&gt;<br>Please review")
	assert.Contains(t, out, `href="https://app.example.com/cases/1"`)
	assert.NotContains(t, out, "<Break-in>")
}

func TestRenderNotificationEmailWithoutLink(t *testing.T) {
	out := RenderNotificationEmail("Assigned", "You have been assigned to case: X", "")

	assert.NotContains(t, out, "href=")
}
