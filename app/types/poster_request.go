package types

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
)

const maxStatementLength = 2000

type SubmitPosterRequestRequest struct {
	Statement string `json:"statement"`
}

// NewSubmitPosterRequestRequestFromContext tolerates an empty body.
func NewSubmitPosterRequestRequestFromContext(ctx echo.Context) (*SubmitPosterRequestRequest, error) {
	var body SubmitPosterRequestRequest
	if ctx.Request().ContentLength == 0 {
		return &body, nil
	}
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *SubmitPosterRequestRequest) Validate() error {
	if len(strings.TrimSpace(r.Statement)) > maxStatementLength {
		return errors.New("statement is too long")
	}

	return nil
}
