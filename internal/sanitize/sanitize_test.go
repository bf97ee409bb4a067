package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommentKeepsAllowedMarkup(t *testing.T) {
	cleaned, ok := Comment(`<p>Hello <b>world</b></p>`)
	assert.True(t, ok)
	assert.Equal(t, `<p>Hello <b>world</b></p>`, cleaned)
}

func TestCommentStripsDisallowedMarkup(t *testing.T) {
	cleaned, ok := Comment(`<p onclick="x()">hi</p><script>alert(1)</script><img src="a.png">`)
	assert.True(t, ok)
	assert.Equal(t, `<p>hi</p>`, cleaned)
}

func TestCommentRejectsBlank(t *testing.T) {
	for _, text := range []string{"", "   ", "<b></b>", "<p> </p><br>", "&nbsp;", "<script>alert(1)</script>"} {
		_, ok := Comment(text)
		assert.False(t, ok, "text %q", text)
	}
}

func TestIsBlank(t *testing.T) {
	assert.True(t, IsBlank("<b>  </b>"))
	assert.False(t, IsBlank("<i>x</i>"))
}
