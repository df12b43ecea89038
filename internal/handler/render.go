package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	jmespath "github.com/jmespath-community/go-jmespath"

	"oasip/internal/pkg/errs"
)

// Render writes v as indented JSON. A non-empty query is evaluated against the
// JSON form of v first.
func Render(w io.Writer, v any, query string) error {
	if query != "" {
		raw, err := json.Marshal(v)
		if err != nil {
			return errs.Wrap(errs.ErrEncodeFailed, err)
		}
		var data any
		if err := json.Unmarshal(raw, &data); err != nil {
			return errs.Wrap(errs.ErrEncodeFailed, err)
		}
		if v, err = jmespath.Search(query, data); err != nil {
			return errs.Wrap(errs.ErrInvalidParams, err).WithMessage("Cannot evaluate -query expression.")
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errs.Wrap(errs.ErrEncodeFailed, err)
	}
	return nil
}

// errorBody is the JSON shape of a failed command on stderr.
type errorBody struct {
	Code    int               `json:"code"`
	Status  int               `json:"status,omitempty"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// RenderError writes err to w. CustomErrors keep their code, status and details.
func RenderError(w io.Writer, err error) {
	body := errorBody{Code: errs.ErrUnknown, Message: err.Error()}

	var customErr *errs.CustomError
	if errors.As(err, &customErr) {
		body = errorBody{
			Code:    customErr.Code,
			Status:  customErr.Status,
			Message: customErr.Message,
			Details: customErr.Details,
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(body); encErr != nil {
		fmt.Fprintln(w, err)
	}
}
