package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	s := Schema{
		"icon":  String(),
		"order": Required(Int()),
		"tags":  Slice(String()),
	}

	t.Run("Success", func(t *testing.T) {
		assert.NoError(t, Validate(s, map[string]any{"order": 1, "extra": struct{}{}}))
		assert.NoError(t, Validate(s, map[string]any{"order": 2.0, "icon": "book", "tags": []any{"a"}}))
	})

	t.Run("EmptySchema", func(t *testing.T) {
		assert.NoError(t, Validate(nil, nil))
		assert.NoError(t, Validate(Schema{}, map[string]any{"x": 1}))
	})

	t.Run("Failures", func(t *testing.T) {
		err := Validate(s, map[string]any{"icon": 3, "tags": []any{1}})
		require.Error(t, err)

		errs := ValidationErrors(err)
		require.Len(t, errs, 3)
		assert.Equal(t, `header "icon": expected string, got int`, errs[0].Error())
		assert.Equal(t, `header "order": required`, errs[1].Error())
		assert.Contains(t, errs[2].Error(), `header "tags": element 0`)
		assert.Contains(t, err.Error(), "; ")

		var ve *ValidationError
		require.ErrorAs(t, errs[0], &ve)
		assert.Equal(t, "icon", ve.Key)
		assert.Equal(t, 3, ve.Value)
	})

	t.Run("NilHeader", func(t *testing.T) {
		err := Validate(s, nil)
		require.Error(t, err)
		assert.Equal(t, `header "order": required`, err.Error())
	})
}

func TestValidationErrors_Plain(t *testing.T) {
	assert.Nil(t, ValidationErrors(nil))
	assert.Nil(t, ValidationErrors(assert.AnError))
}
