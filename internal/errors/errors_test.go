package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError(t *testing.T) {
	t.Run("Error returns formatted string", func(t *testing.T) {
		err := New(ErrCodeNotFound, "Session not found")
		assert.Equal(t, "NOT_FOUND: Session not found", err.Error())
	})

	t.Run("Error with cause includes cause", func(t *testing.T) {
		cause := errors.New("database connection failed")
		err := Wrap(ErrCodeDatabase, "Database error", cause)
		assert.Contains(t, err.Error(), "DATABASE_ERROR")
		assert.Contains(t, err.Error(), "Database error")
		assert.Contains(t, err.Error(), "database connection failed")
	})

	t.Run("WithCause adds cause to error", func(t *testing.T) {
		cause := errors.New("original error")
		err := New(ErrCodeInternal, "Something went wrong").WithCause(cause)
		assert.Equal(t, cause, err.Unwrap())
	})

	t.Run("WithDetails adds details to error", func(t *testing.T) {
		details := map[string]string{"field": "answers", "reason": "wrong length"}
		err := New(ErrCodeValidation, "Validation failed").WithDetails(details)
		assert.Equal(t, details, err.Details)
	})
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name         string
		constructor  func() *AppError
		expectedCode ErrorCode
	}{
		{"NotFound", func() *AppError { return NotFound("Session") }, ErrCodeNotFound},
		{"SessionFull", func() *AppError { return SessionFull() }, ErrCodeSessionFull},
		{"UnknownParticipant", func() *AppError { return UnknownParticipant() }, ErrCodeUnknownParticipant},
		{"InvalidAnswers", func() *AppError { return InvalidAnswers("wrong length") }, ErrCodeInvalidAnswers},
		{"DuplicateSubmission", func() *AppError { return DuplicateSubmission() }, ErrCodeDuplicateSubmission},
		{"ResultNotReady", func() *AppError { return ResultNotReady() }, ErrCodeResultNotReady},
		{"ComputationFailed", func() *AppError { return ComputationFailed("timeout") }, ErrCodeComputationFailed},
		{"GeneratorExhausted", func() *AppError { return GeneratorExhausted() }, ErrCodeGeneratorExhausted},
		{"ValidationError", func() *AppError { return ValidationError("test") }, ErrCodeValidation},
		{"InvalidInput", func() *AppError { return InvalidInput("name", "empty") }, ErrCodeInvalidInput},
		{"MissingRequired", func() *AppError { return MissingRequired("name") }, ErrCodeMissingRequired},
		{"RateLimitExceeded", func() *AppError { return RateLimitExceeded() }, ErrCodeRateLimitExceeded},
		{"Internal", func() *AppError { return Internal("test") }, ErrCodeInternal},
		{"Database", func() *AppError { return Database(errors.New("cause")) }, ErrCodeDatabase},
		{"External", func() *AppError { return External("scorer", errors.New("cause")) }, ErrCodeExternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.constructor()
			assert.Equal(t, tt.expectedCode, err.Code)
			assert.NotEmpty(t, err.Message)
		})
	}
}

func TestErrorHelpers(t *testing.T) {
	t.Run("IsAppError detects AppError", func(t *testing.T) {
		assert.True(t, IsAppError(NotFound("Session")))
		assert.False(t, IsAppError(errors.New("plain error")))
	})

	t.Run("AsAppError unwraps nested AppError", func(t *testing.T) {
		inner := SessionFull()
		appErr, ok := AsAppError(inner)
		assert.True(t, ok)
		assert.Equal(t, ErrCodeSessionFull, appErr.Code)

		_, ok = AsAppError(errors.New("plain"))
		assert.False(t, ok)
	})

	t.Run("GetCode falls back to internal", func(t *testing.T) {
		assert.Equal(t, ErrCodeNotFound, GetCode(NotFound("Session")))
		assert.Equal(t, ErrCodeInternal, GetCode(errors.New("plain")))
	})
}
