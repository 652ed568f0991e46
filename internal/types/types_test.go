package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{"message only", NewAppError(ErrCompile, "PDF file was not generated", nil), "PDF file was not generated"},
		{"with details", NewAppErrorWithDetails(ErrFileNotFound, "failed to read document", "a.tex", nil), "failed to read document: a.tex"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("exit status 1")
	err := NewAppError(ErrConvert, "pandoc failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Nil(t, NewAppError(ErrConvert, "pandoc failed", nil).Unwrap())
}

func TestIsCode(t *testing.T) {
	base := NewAppError(ErrMalformedLabel, "bad label", nil)
	wrapped := fmt.Errorf("stage environments: %w", base)

	assert.True(t, IsCode(base, ErrMalformedLabel))
	assert.True(t, IsCode(wrapped, ErrMalformedLabel))
	assert.False(t, IsCode(wrapped, ErrConfig))
	assert.False(t, IsCode(errors.New("plain"), ErrMalformedLabel))
	assert.False(t, IsCode(nil, ErrMalformedLabel))
}

func TestRegion_Len(t *testing.T) {
	assert.Equal(t, 0, Region{}.Len())
	assert.Equal(t, 4, Region{Text: "abcd", Start: 3, End: 7}.Len())
}
