package response

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeShapes(t *testing.T) {
	raw, err := json.Marshal(Success(map[string]int{"n": 1}, nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{"n":1}}`, string(raw))

	raw, err = json.Marshal(Unprocessable("Could not estimate calories"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":{"code":422,"message":"Could not estimate calories"}}`, string(raw))

	assert.Equal(t, 401, Unauthorized("x").Error.Code)
	assert.Equal(t, 404, NotFound("x").Error.Code)
	assert.Equal(t, 400, BadRequest("x").Error.Code)
	assert.Equal(t, 500, InternalError("x").Error.Code)
	assert.Equal(t, 409, NewAppError(409, "x").Error.Code)
}
