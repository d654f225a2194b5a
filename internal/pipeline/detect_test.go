package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetectRendering(t *testing.T) {
	shell := `<html><head><script src="/a.js"></script><script src="/b.js"></script></head><body><div id="root"></div></body></html>`
	res := DetectRendering([]byte(shell))
	require.True(t, res.NeedsBrowser)
	require.Equal(t, "rules_needs_browser", res.Reason)

	res = DetectRendering([]byte("   "))
	require.True(t, res.NeedsBrowser)
	require.Equal(t, "empty_body", res.Reason)

	require.False(t, NeedsBrowser([]byte(tablePage)))
	require.False(t, NeedsBrowser([]byte(nextDataPage)))
	require.False(t, NeedsBrowser([]byte(linksPage)))

	long := "<html><body>" + strings.Repeat("<p>Climbing news and more text.</p>", 200) + "</body></html>"
	res = DetectRendering([]byte(long))
	require.False(t, res.NeedsBrowser)
}
