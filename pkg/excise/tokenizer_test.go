package excise

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenizer_Next(t *testing.T) {
	t.Parallel()

	t.Run("yields tag name tokens", func(t *testing.T) {
		t.Parallel()

		src := `this is a test <div class="abc">something</div><div class="ee">`
		tz := newTokenizer(src, 0, len(src))

		tok, ok := tz.next()
		assert.True(t, ok)
		assert.Equal(t, "<div", tok)

		tok, ok = tz.next()
		assert.True(t, ok)
		assert.Equal(t, "</div", tok)
		assert.Equal(t, 47, tz.cursor)
	})

	t.Run("restarts token on second angle bracket", func(t *testing.T) {
		t.Parallel()

		src := `a < b <div>`
		tz := newTokenizer(src, 0, len(src))

		tok, ok := tz.next()
		assert.True(t, ok)
		assert.Equal(t, "<", tok)

		tok, ok = tz.next()
		assert.True(t, ok)
		assert.Equal(t, "<div", tok)
	})

	t.Run("stops at limit", func(t *testing.T) {
		t.Parallel()

		src := `<div></div>`
		tz := newTokenizer(src, 0, 4)

		_, ok := tz.next()
		assert.False(t, ok)
	})
}
