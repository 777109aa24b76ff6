package metrics

import (
	"errors"
	"testing"

	apperrors "bikerent/pkg/errors"

	"github.com/stretchr/testify/assert"
)

func TestOutcome(t *testing.T) {
	assert.Equal(t, ResultSuccess, Outcome(nil))
	assert.Equal(t, ResultFailure, Outcome(errors.New("boom")))
	assert.Equal(t, "asset_unavailable", Outcome(apperrors.Conflict("ASSET_UNAVAILABLE", "taken")))
	assert.Equal(t, "not_found", Outcome(apperrors.NotFound("Rental")))
}
