package validate

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/nhle/taskdesk/internal/apperr"
	"github.com/nhle/taskdesk/internal/model"
)

// Task checks the editable task fields against the API limits.
func Task(title, description string) error {
	if strings.TrimSpace(title) == "" {
		return apperr.Invalid("title", "Title is required")
	}
	if utf8.RuneCountInString(title) > model.MaxTitleLength {
		return apperr.Invalid("title",
			fmt.Sprintf("Title must be %d characters or fewer", model.MaxTitleLength))
	}
	if utf8.RuneCountInString(description) > model.MaxDescriptionLength {
		return apperr.Invalid("description",
			fmt.Sprintf("Description must be %d characters or fewer", model.MaxDescriptionLength))
	}
	return nil
}
