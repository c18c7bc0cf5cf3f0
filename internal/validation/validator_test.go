package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Kind  string   `json:"type" validate:"required,oneof=note url"`
	Link  string   `json:"url,omitempty" validate:"omitempty,url"`
	Tags  []string `json:"tags" validate:"dive,required"`
	Plain string   `validate:"max=3"`
}

func TestValidate_OK(t *testing.T) {
	v := New()
	assert.NoError(t, v.Validate(sample{Kind: "note", Tags: []string{"a"}}))
	assert.NoError(t, v.Validate(sample{Kind: "url", Link: "https://example.com"}))
}

func TestValidate_ReportsJSONNames(t *testing.T) {
	v := New()
	err := v.Validate(sample{Kind: "video", Link: "not a url", Tags: []string{""}, Plain: "toolong"})
	require.Error(t, err)

	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "must be one of: note url", verr.Fields["type"])
	assert.Equal(t, "must be a valid URL", verr.Fields["url"])
	assert.Equal(t, "is required", verr.Fields["tags[0]"])
	assert.Equal(t, "must not exceed 3 characters", verr.Fields["Plain"])
	assert.Contains(t, err.Error(), "validation failed: ")
}
