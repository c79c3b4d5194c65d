package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayName(t *testing.T) {
	withName := User{Email: "user@example.com", Name: "Ada"}
	assert.Equal(t, "Ada", withName.DisplayName())

	// Name is optional; the email stands in for it
	withoutName := User{Email: "user@example.com"}
	assert.Equal(t, "user@example.com", withoutName.DisplayName())
}
