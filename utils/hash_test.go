package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashText(t *testing.T) {
	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", HashText("hello"))
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", HashText(""))
	assert.Len(t, HashText("anything"), 32)
	assert.Equal(t, HashText("same input"), HashText("same input"))
	assert.NotEqual(t, HashText("a"), HashText("b"))
}
