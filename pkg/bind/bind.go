// Package bind decodes and validates a JSON request body.
package bind

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/multidelivery/painel/config"
	"github.com/multidelivery/painel/pkg/validate"
)

// ErrEmptyBody is returned when the request carries no body at all.
var ErrEmptyBody = errors.New("bind: empty body")

func maxBodyBytes() int64 {
	n := config.Int("MAX_BODY_BYTES", 1<<20)
	if n <= 0 {
		return 1 << 20
	}
	return int64(n)
}

// JSON decodes r.Body into dest and runs validation on it.
// It returns (errs, nil) for validation failures and (nil, err) when the body
// is malformed or larger than MAX_BODY_BYTES.
func JSON(r *http.Request, dest interface{}) (map[string]string, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, ErrEmptyBody
	}
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes())

	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return nil, fmt.Errorf("bind: body larger than %d bytes", maxErr.Limit)
		case errors.Is(err, io.EOF):
			return nil, ErrEmptyBody
		}
		return nil, fmt.Errorf("bind: invalid JSON: %w", err)
	}

	if errs := validate.Struct(dest); validate.HasErrors(errs) {
		return errs, nil
	}
	return nil, nil
}
