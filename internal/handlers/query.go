package handlers

import (
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/starfederation/datastar-go/datastar"

	"sales-dashboard/internal/analytics"
	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/models"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type dashboardQuery struct {
	Granularity string `json:"granularity" validate:"omitempty,oneof=daily weekly monthly"`
}

type uploadForm struct {
	Filename string `validate:"required,max=255"`
}

// parseGranularity reads ?granularity=, falling back to the granularity
// signal of a Datastar request. Empty means monthly.
func parseGranularity(r *http.Request) (models.Granularity, error) {
	var q dashboardQuery
	q.Granularity = r.URL.Query().Get("granularity")
	if q.Granularity == "" && r.Header.Get("Datastar-Request") != "" {
		var signals dashboardQuery
		if err := datastar.ReadSignals(r, &signals); err == nil {
			q.Granularity = signals.Granularity
		}
	}
	q.Granularity = strings.ToLower(strings.TrimSpace(q.Granularity))

	if err := validate.Struct(q); err != nil {
		return "", validationError(err)
	}
	return analytics.ParseGranularity(q.Granularity)
}

func validationError(err error) *errors.AppError {
	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return errors.ValidationWrap(err, "Invalid request")
	}

	fe := fieldErrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "oneof":
		return errors.ValidationWrap(err, field+" must be one of: "+fe.Param())
	case "required":
		return errors.ValidationWrap(err, field+" is required")
	case "max":
		return errors.ValidationWrap(err, field+" must be at most "+fe.Param()+" characters")
	default:
		return errors.ValidationWrap(err, field+" is invalid")
	}
}
