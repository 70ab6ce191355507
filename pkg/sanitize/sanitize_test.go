package sanitize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/techcorp/gatehouse/pkg/sanitize"
)

func TestClean_TrimsAndStripsNulBytes(t *testing.T) {
	assert.Equal(t, "hello", sanitize.Clean("  hello  "))
	assert.Equal(t, "hello", sanitize.Clean("he\x00llo"))
	assert.Equal(t, "", sanitize.Clean("\x00"))
	assert.Equal(t, "", sanitize.Clean("   "))
}

func TestClean_EscapesHTML(t *testing.T) {
	assert.Equal(t, "&lt;b&gt;bold&lt;/b&gt;", sanitize.Clean("<b>bold</b>"))
	assert.Equal(t, "a &amp; b", sanitize.Clean("a & b"))
	assert.Equal(t, "&quot;quoted&quot;", sanitize.Clean(`"quoted"`))
	assert.Equal(t, "it&#39;s", sanitize.Clean("it's"))
}

func TestClean_StripsScriptBlocks(t *testing.T) {
	assert.Equal(t, "before  after", sanitize.Clean("before <script>alert(1)</script> after"))
	assert.Equal(t, "x", sanitize.Clean(`x<SCRIPT src="evil.js"></SCRIPT>`))
}

func TestClean_StripsEventHandlers(t *testing.T) {
	got := sanitize.Clean(`<img src="x" onerror="alert(1)">`)
	assert.NotContains(t, got, "onerror")
}

func TestClean_StripsJavascriptScheme(t *testing.T) {
	assert.Equal(t, "alert(1)", sanitize.Clean("javascript:alert(1)"))
	assert.Equal(t, "alert(1)", sanitize.Clean("JavaScript:alert(1)"))
}

func TestClean_StripsReassembledPatterns(t *testing.T) {
	// Removing a match must not leave behind a fragment that reassembles
	// into another match.
	assert.Equal(t, "", sanitize.Clean("javascjavascript:ript:"))
	assert.Equal(t, "alert(1)", sanitize.Clean("jajavascript:vascript:alert(1)"))
	assert.Equal(t, "", sanitize.Clean("<scr<script>x</script>ipt>y</scr<script>z</script>ipt>"))
	assert.Equal(t, "alert(1)", sanitize.Clean("javasc<script>x</script>ript:alert(1)"))

	got := sanitize.Clean("jajavascript:vascript:alert(1)")
	assert.NotContains(t, got, "javascript:")
}

func TestClean_Idempotent(t *testing.T) {
	inputs := []string{
		"plain text",
		"  padded  ",
		"<b>bold</b>",
		"a & b & c",
		`"quotes" and 'apostrophes'`,
		"<script>alert(1)</script>",
		`<img onload="x">javascript:void(0)`,
		"javascjavascript:ript:",
		"jajavascript:vascript:alert(1)",
		"<scr<script>x</script>ipt>y</scr<script>z</script>ipt>",
		"café ☃",
		"already &amp; escaped &lt;tag&gt;",
		"x <script>a</script>",
	}

	for _, input := range inputs {
		once := sanitize.Clean(input)
		assert.Equal(t, once, sanitize.Clean(once), "input %q", input)
	}
}

func TestCleanMap_RecursesIntoKeysAndValues(t *testing.T) {
	input := map[string]any{
		"<key>": "  <value>  ",
		"nested": map[string]any{
			"inner": "<script>x</script>ok",
		},
		"list":  []any{"<a>", 42, true},
		"count": 7,
	}

	got := sanitize.CleanMap(input)

	assert.Equal(t, "&lt;value&gt;", got["&lt;key&gt;"])
	nested := got["nested"].(map[string]any)
	assert.Equal(t, "ok", nested["inner"])
	list := got["list"].([]any)
	assert.Equal(t, "&lt;a&gt;", list[0])
	assert.Equal(t, 42, list[1])
	assert.Equal(t, true, list[2])
	assert.Equal(t, 7, got["count"])
}

func TestCleanMap_PreservesInput(t *testing.T) {
	input := map[string]any{"k": "<v>"}
	_ = sanitize.CleanMap(input)
	assert.Equal(t, "<v>", input["k"])
}
