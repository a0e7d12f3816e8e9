package http

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderMarkdown(t *testing.T) {
	out := string(renderMarkdown("**Amplia** casa\n\n- jardin\n- cochera"))
	require.Contains(t, out, "<strong>Amplia</strong>")
	require.Contains(t, out, "<li>jardin</li>")
}

func TestRenderMarkdownDropsRawHTML(t *testing.T) {
	out := string(renderMarkdown("hola <script>alert(1)</script>\n\n[x](javascript:alert(1))"))
	require.NotContains(t, out, "<script>")
	require.NotContains(t, out, "javascript:")
}
