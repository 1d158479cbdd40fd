package validators

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type kindRequest struct {
	Type   string `validate:"omitempty,entity_kind"`
	Action string `validate:"omitempty,reaction_action"`
}

type listRequest struct {
	Action string `validate:"omitempty,reaction_action=all"`
}

func TestValidateEntityKind(t *testing.T) {
	v := NewValidator()

	for _, ok := range []string{"", "video", "Videos", "POST", "memories", "all", " podcast "} {
		assert.NoError(t, v.Validate(&kindRequest{Type: ok}), ok)
	}

	err := v.Validate(&kindRequest{Type: "story"})
	require.Error(t, err)
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusBadRequest, he.Code)
	assert.Contains(t, he.Message, "entity_kind")
}

func TestValidateReactionAction(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.Validate(&kindRequest{Action: "like"}))
	assert.NoError(t, v.Validate(&kindRequest{Action: "DISLIKE"}))
	assert.Error(t, v.Validate(&kindRequest{Action: "love"}))
	assert.Error(t, v.Validate(&kindRequest{Action: "all"}))

	for _, ok := range []string{"", "all", "All", "like", "Dislike"} {
		assert.NoError(t, v.Validate(&listRequest{Action: ok}), ok)
	}
	assert.Error(t, v.Validate(&listRequest{Action: "none"}))
}
