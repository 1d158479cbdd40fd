package validators

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// CustomValidator adapts go-playground/validator to echo
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates the validator with the reaction tags registered:
// entity_kind accepts any case, singular or plural, and "all";
// reaction_action accepts like or dislike in any case, and "all" as well
// when written reaction_action=all.
func NewValidator() *CustomValidator {
	v := validator.New()
	_ = v.RegisterValidation("entity_kind", validateEntityKind)
	_ = v.RegisterValidation("reaction_action", validateReactionAction)
	return &CustomValidator{validator: v}
}

// Validate implements echo.Validator
func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, formatErrors(err))
	}
	return nil
}

var entityKinds = map[string]bool{
	"ALL":   true,
	"VIDEO": true, "VIDEOS": true,
	"POST": true, "POSTS": true,
	"COMMENT": true, "COMMENTS": true,
	"MEMORY": true, "MEMORIES": true,
	"PLAYLIST": true, "PLAYLISTS": true,
	"PODCAST": true, "PODCASTS": true,
}

func validateEntityKind(fl validator.FieldLevel) bool {
	return entityKinds[strings.ToUpper(strings.TrimSpace(fl.Field().String()))]
}

func validateReactionAction(fl validator.FieldLevel) bool {
	v := strings.ToUpper(strings.TrimSpace(fl.Field().String()))
	switch v {
	case "LIKE", "DISLIKE":
		return true
	}
	return fl.Param() == "all" && v == "ALL"
}

func formatErrors(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fe.Field() + " failed on " + fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		msgs = append(msgs, msg)
	}
	return strings.Join(msgs, "; ")
}
