package utils

import (
	"math"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestDefaultNickname(t *testing.T) {
	assert.Equal(t, "User-abcd", DefaultNickname("abcdef-123"))
	assert.Equal(t, "User-ab", DefaultNickname("ab"))

	nick := DefaultNickname("가나다라마")
	assert.Equal(t, "User-가나다라", nick)
	assert.True(t, utf8.ValidString(nick))
}

func TestValidCoordinates(t *testing.T) {
	assert.True(t, ValidCoordinates(37.5665, 126.978))
	assert.True(t, ValidCoordinates(-90, 180))
	assert.False(t, ValidCoordinates(91, 0))
	assert.False(t, ValidCoordinates(0, -181))
	assert.False(t, ValidCoordinates(math.NaN(), 0))
	assert.False(t, ValidCoordinates(0, math.Inf(1)))
}
