package validator

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type submitForm struct {
	ProfessorID string `json:"professor_id" validate:"required"`
	Comment     string `json:"comment" validate:"omitempty,max=10"`
}

func TestValidate_Passes(t *testing.T) {
	assert.NoError(t, Validate(submitForm{ProfessorID: "prof-1"}))
}

func TestValidate_RequiredField(t *testing.T) {
	err := Validate(submitForm{})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, err.Error(), "ProfessorID")
	assert.Contains(t, err.Error(), "is required")
	assert.Equal(t, "is required", valErr.Fields()["ProfessorID"])
}

func TestValidate_MaxLength(t *testing.T) {
	err := Validate(submitForm{ProfessorID: "prof-1", Comment: "this comment is far too long"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at most 10 characters")
}

func TestDecodeAndValidate(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"professor_id":"prof-1"}`))
	var form submitForm
	require.NoError(t, DecodeAndValidate(r, &form))
	assert.Equal(t, "prof-1", form.ProfessorID)

	r = httptest.NewRequest("POST", "/", strings.NewReader(`{not json`))
	err := DecodeAndValidate(r, &form)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode request body")
}
