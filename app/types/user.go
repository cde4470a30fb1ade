package types

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// UpdateProfileRequest leaves nil fields unchanged. Passwords are changed elsewhere.
type UpdateProfileRequest struct {
	Username       *string `json:"username"`
	Email          *string `json:"email"`
	ProfilePicture *string `json:"profile_picture"`
	Bio            *string `json:"bio"`
	Job            *string `json:"job"`
	Location       *string `json:"location"`
	Instagram      *string `json:"instagram"`
	Whatsapp       *string `json:"whatsapp"`
}

func NewUpdateProfileRequestFromContext(ctx echo.Context) (*UpdateProfileRequest, error) {
	var body UpdateProfileRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *UpdateProfileRequest) Validate() error {
	if r.Username != nil {
		if strings.TrimSpace(*r.Username) == "" {
			return errors.New("username must not be empty")
		}
		if strings.ContainsAny(*r.Username, " \t\n") {
			return errors.New("username must not contain whitespace")
		}
	}
	if r.Email != nil && !strings.Contains(*r.Email, "@") {
		return errors.New("email is invalid")
	}

	return nil
}

// SelfDeleteRequest re-authenticates the owner before the grace window opens.
type SelfDeleteRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func NewSelfDeleteRequestFromContext(ctx echo.Context) (*SelfDeleteRequest, error) {
	var body SelfDeleteRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *SelfDeleteRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" || r.Password == "" || r.ConfirmPassword == "" {
		return errors.New("email, password and confirm_password are required")
	}

	return nil
}

const (
	MaxDesignerPage  = 10000
	MaxDesignerLimit = 100
)

type ListDesignersRequest struct {
	Page  int
	Limit int
}

func NewListDesignersRequestFromContext(ctx echo.Context) (*ListDesignersRequest, error) {
	req := &ListDesignersRequest{Page: 1}

	if raw := ctx.QueryParam("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errors.New("page must be a number")
		}
		req.Page = page
	}
	if raw := ctx.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errors.New("limit must be a number")
		}
		req.Limit = limit
	}

	return req, nil
}

func (r *ListDesignersRequest) Validate() error {
	if r.Page < 1 || r.Page > MaxDesignerPage {
		return fmt.Errorf("page must be between 1 and %d", MaxDesignerPage)
	}
	if r.Limit < 0 || r.Limit > MaxDesignerLimit {
		return fmt.Errorf("limit must be between 1 and %d", MaxDesignerLimit)
	}

	return nil
}

// ParseIDParam reads a positive numeric path parameter.
func ParseIDParam(ctx echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New(name + " must be a positive number")
	}
	return id, nil
}
