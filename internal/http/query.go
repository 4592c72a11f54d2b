package httpserver

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Clark-Hu/cinerank/internal/domain"
	"github.com/Clark-Hu/cinerank/internal/report"
)

const maxUpstreamPage = 500

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, tag := range []string{"query", "json"} {
			if name, _, _ := strings.Cut(field.Tag.Get(tag), ","); name != "" && name != "-" {
				return name
			}
		}
		return field.Name
	})
	return v
}

// validateStruct runs the struct tags and reports the first violation as
// invalid input.
func validateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		if fe.Param() != "" {
			return fmt.Errorf("%w: %s must satisfy %s=%s", domain.ErrInvalidInput, fe.Field(), fe.Tag(), fe.Param())
		}
		return fmt.Errorf("%w: %s is %s", domain.ErrInvalidInput, fe.Field(), fe.Tag())
	}
	return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
}

type browseQuery struct {
	Type  string `query:"type" validate:"omitempty,oneof=popular top_rated"`
	Genre string `query:"genre" validate:"omitempty,max=32"`
	Page  int    `query:"page" validate:"min=1,max=500"`
}

type searchQuery struct {
	Q    string `query:"q" validate:"required,max=200"`
	Page int    `query:"page" validate:"min=1,max=500"`
}

type pageQuery struct {
	Page  int `query:"page" validate:"min=1"`
	Limit int `query:"limit" validate:"min=1,max=50"`
}

func buildBrowseQuery(values url.Values) (browseQuery, error) {
	q := browseQuery{
		Type:  strings.ToLower(strings.TrimSpace(values.Get("type"))),
		Genre: strings.ToLower(strings.TrimSpace(values.Get("genre"))),
	}
	page, err := intParam(values, "page", 1)
	if err != nil {
		return q, err
	}
	q.Page = page
	return q, validateStruct(q)
}

func buildSearchQuery(values url.Values) (searchQuery, error) {
	q := searchQuery{Q: strings.TrimSpace(values.Get("q"))}
	page, err := intParam(values, "page", 1)
	if err != nil {
		return q, err
	}
	q.Page = page
	return q, validateStruct(q)
}

func buildPageQuery(values url.Values) (pageQuery, error) {
	var q pageQuery
	var err error
	if q.Page, err = intParam(values, "page", 1); err != nil {
		return q, err
	}
	if q.Limit, err = intParam(values, "limit", report.DefaultPageLimit); err != nil {
		return q, err
	}
	return q, validateStruct(q)
}

func intParam(values url.Values, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s value", domain.ErrInvalidInput, key)
	}
	return n, nil
}
