package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/notekeeper/internal/errors"
	"github.com/tphakala/notekeeper/internal/notes"
)

// Pagination defaults for list endpoints.
const (
	DefaultLimit  = 10
	DefaultOffset = 0
)

// Field error messages for request parsing.
const (
	msgFieldRequired = "field required"
	msgInvalidJSON   = "invalid JSON body"
	msgNotInteger    = "value is not a valid integer"
	msgNotPositive   = "must be a positive integer"
)

// fieldErrors builds a validation error from name/message pairs
func fieldErrors(fields ...notes.FieldError) error {
	return &notes.ValidationError{Fields: fields}
}

// decodeBody decodes the JSON request body into dst. Unknown fields are
// ignored and JSON null leaves pointer fields nil.
func decodeBody(c echo.Context, dst any) error {
	body := c.Request().Body
	if body == nil || body == http.NoBody {
		return fieldErrors(notes.FieldError{Field: "body", Message: msgFieldRequired})
	}

	err := json.NewDecoder(body).Decode(dst)
	if err == nil {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case errors.Is(err, io.EOF):
		return fieldErrors(notes.FieldError{Field: "body", Message: msgFieldRequired})
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return fieldErrors(notes.FieldError{Field: field, Message: "must be of type " + typeErr.Type.String()})
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return fieldErrors(notes.FieldError{Field: "body", Message: msgInvalidJSON})
	default:
		// body limit and read failures surface as their own errors
		return err
	}
}

// queryInt parses an optional integer query parameter.
func queryInt(c echo.Context, name string, def int) (int, *notes.FieldError) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &notes.FieldError{Field: name, Message: msgNotInteger}
	}
	return n, nil
}

// pageParams reads limit and offset, collecting parse failures of both.
func pageParams(c echo.Context) (limit, offset int, err error) {
	var fields []notes.FieldError
	limit, ferr := queryInt(c, "limit", DefaultLimit)
	if ferr != nil {
		fields = append(fields, *ferr)
	}
	offset, ferr = queryInt(c, "offset", DefaultOffset)
	if ferr != nil {
		fields = append(fields, *ferr)
	}
	if len(fields) > 0 {
		return 0, 0, fieldErrors(fields...)
	}
	return limit, offset, nil
}

// parsePositiveID parses a positive integer id.
func parsePositiveID(field, raw string) (uint, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 0)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return 0, fieldErrors(notes.FieldError{Field: field, Message: msgNotPositive})
		}
		if strings.HasPrefix(strings.TrimSpace(raw), "-") {
			return 0, fieldErrors(notes.FieldError{Field: field, Message: msgNotPositive})
		}
		return 0, fieldErrors(notes.FieldError{Field: field, Message: msgNotInteger})
	}
	if n == 0 {
		return 0, fieldErrors(notes.FieldError{Field: field, Message: msgNotPositive})
	}
	return uint(n), nil
}

// noteID reads the :id path parameter.
func noteID(c echo.Context) (uint, error) {
	return parsePositiveID("id", c.Param("id"))
}

// optionalQuery returns a pointer to the query value when the parameter is present.
func optionalQuery(c echo.Context, name string) *string {
	values := c.QueryParams()
	if !values.Has(name) {
		return nil
	}
	v := values.Get(name)
	return &v
}
