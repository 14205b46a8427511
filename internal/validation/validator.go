// Package validation checks incoming requests before they reach a service.
// Every violation is collected into a single *common.ValidationError keyed by
// the JSON field name, so clients can show all problems at once.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"scoreledger/internal/common"
	"scoreledger/internal/models"
)

// Validator wraps go-playground/validator with the JSON field naming used in responses
type Validator struct {
	validate *validator.Validate
}

// New creates a validator that reports fields by their json tag
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v}
}

// Struct validates the tags of any request DTO
func (v *Validator) Struct(s interface{}) error {
	out := common.NewValidationError()
	if err := v.collect(s, out); err != nil {
		return err
	}
	return out.Err()
}

// Match validates a match record on behalf of the authenticated player
func (v *Validator) Match(req *models.AddMatchRequest, identity string) error {
	out := common.NewValidationError()
	if err := v.collect(req, out); err != nil {
		return err
	}

	if req.PlayerID != "" && req.PlayerID != identity {
		out.Add("player_id", "must match the authenticated player")
	}

	switch models.GameMode(req.GameMode) {
	case models.GameModeTimed:
		// Timed matches that did not complete may still report the elapsed time.
		if models.MatchStatus(req.Status) == models.StatusCompleted && req.CompletionTime == nil {
			out.Add("completion_time", "is required for completed timed matches")
		}
	case models.GameModeUntimed:
		if req.CompletionTime != nil {
			out.Add("completion_time", "must be omitted for untimed matches")
		}
	}

	switch models.GameType(req.GameType) {
	case models.GameTypeMultiplayer:
		if req.RoomCode == nil || strings.TrimSpace(*req.RoomCode) == "" {
			out.Add("room_code", "is required for multiplayer matches")
		}
		if req.Position == nil {
			out.Add("position", "is required for multiplayer matches")
		}
		if req.TotalPlayers == nil {
			out.Add("total_players", "is required for multiplayer matches")
		}
		if req.Position != nil && req.TotalPlayers != nil && *req.Position > *req.TotalPlayers {
			out.Add("position", "cannot exceed total_players")
		}
	case models.GameTypeSolo:
		if req.RoomCode != nil {
			out.Add("room_code", "must be omitted for solo matches")
		}
		if req.Position != nil {
			out.Add("position", "must be omitted for solo matches")
		}
		if req.TotalPlayers != nil {
			out.Add("total_players", "must be omitted for solo matches")
		}
	}

	return out.Err()
}

// collect runs the struct tags and merges field errors into out.
// Only a malformed validation target is returned as an error.
func (v *Validator) collect(s interface{}, out *common.ValidationError) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return fmt.Errorf("validation target: %w", err)
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	for _, fe := range fieldErrs {
		out.Add(fe.Field(), message(fe))
	}
	return nil
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	default:
		return fmt.Sprintf("failed the %q rule", fe.Tag())
	}
}
