package validation

import (
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type decisionBody struct {
	Decision string `validate:"required,decision"`
	DueDate  string `validate:"omitempty,date"`
}

func TestCustomTags(t *testing.T) {
	v := validator.New()
	require.NoError(t, RegisterOn(v))

	assert.NoError(t, v.Struct(decisionBody{Decision: "approved"}))
	assert.NoError(t, v.Struct(decisionBody{Decision: "Rejected", DueDate: "2030-01-31"}))
	assert.NoError(t, v.Struct(decisionBody{Decision: "approved", DueDate: "2030-01-31T10:00:00+07:00"}))

	assert.Error(t, v.Struct(decisionBody{Decision: "borrowed"}))
	assert.Error(t, v.Struct(decisionBody{Decision: "approved", DueDate: "31/01/2030"}))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2030-01-31")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2030, 1, 31, 23, 59, 59, 0, time.UTC), d)

	d, err = ParseDate("2030-01-31T10:00:00+07:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2030, 1, 31, 3, 0, 0, 0, time.UTC), d)

	_, err = ParseDate("")
	assert.Error(t, err)
}
