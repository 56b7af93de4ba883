package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateSlug(t *testing.T) {
	assert.Equal(t, "godspeed-you-black-emperor", GenerateSlug("Godspeed You! Black Emperor"))
	assert.Equal(t, "", GenerateSlug("!@#$%^&"))
	assert.Equal(t, "foo-bar", GenerateSlug("-- Foo Bar --"))
	assert.Equal(t, "foo-bar", GenerateSlug("foo--bar"))
	assert.Equal(t, "foo-bar", GenerateSlug("  Foo  Bar  "))
	assert.Equal(t, "20-000-leagues-under-the-sea", GenerateSlug("20,000 Leagues Under the Sea"))
}
