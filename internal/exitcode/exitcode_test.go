package exitcode

import (
	"errors"
	"fmt"
	"testing"

	"github.com/nhle/taskdesk/internal/apperr"
)

func TestFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, Success},
		{"auth", apperr.NotAuthenticated("no"), AuthError},
		{"api 401", &apperr.APIError{Status: 401, Detail: "expired"}, AuthError},
		{"validation", apperr.Invalid("title", "Title is required"), UserError},
		{"network", &apperr.NetworkError{Err: errors.New("refused")}, BackendError},
		{"api 404", &apperr.APIError{Status: 404, Detail: "Task not found"}, UserError},
		{"api 500", &apperr.APIError{Status: 500, Detail: "boom"}, BackendError},
		{"format", &apperr.FormatError{Message: "bad"}, BackendError},
		{"wrapped", fmt.Errorf("ctx: %w", &apperr.NetworkError{Err: errors.New("x")}), BackendError},
		{"plain", errors.New("bad flag"), UserError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := For(tt.err); got != tt.want {
				t.Errorf("For(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
