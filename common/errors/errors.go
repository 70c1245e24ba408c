package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"pharmacy-storefront/models"
)

// Error represents an application error
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// JSON returns the error as a JSON string
func (e *Error) JSON() string {
	b, _ := json.Marshal(e)
	return string(b)
}

func New(code int, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// StatusCoder is implemented by errors that already know their HTTP status.
type StatusCoder interface {
	HTTPStatus() int
}

// FromError maps any error onto an *Error. Known sentinels get their status;
// everything else is an internal error.
func FromError(err error) *Error {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr
	}
	var sc StatusCoder
	if stderrors.As(err, &sc) {
		return New(sc.HTTPStatus(), err.Error(), err)
	}

	switch {
	case stderrors.Is(err, models.ErrAuthenticationFailed):
		return New(http.StatusUnauthorized, "Invalid credentials", err)
	case stderrors.Is(err, models.ErrNotAuthenticated):
		return New(http.StatusUnauthorized, "Unauthorized", err)
	case stderrors.Is(err, models.ErrNotFound):
		return New(http.StatusNotFound, "Not found", err)
	case stderrors.Is(err, models.ErrInvalidProduct),
		stderrors.Is(err, models.ErrInvalidQuantity),
		stderrors.Is(err, models.ErrMultipleDefaultAddresses),
		stderrors.Is(err, models.ErrEmptyCart),
		stderrors.Is(err, models.ErrNoDeliveryAddress),
		stderrors.Is(err, models.ErrInvalidPaymentMethod):
		return New(http.StatusBadRequest, err.Error(), err)
	case stderrors.Is(err, models.ErrInvalidTransition):
		return New(http.StatusConflict, err.Error(), err)
	}
	return New(http.StatusInternalServerError, "Internal server error", err)
}

// Common error types
var (
	ErrUnauthorized     = New(http.StatusUnauthorized, "Unauthorized", nil)
	ErrNotFound         = New(http.StatusNotFound, "Not found", nil)
	ErrTooManyRequests  = New(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.", nil)
	ErrInternalServer   = New(http.StatusInternalServerError, "Internal server error", nil)
	ErrInvalidInput     = New(http.StatusBadRequest, "Invalid input", nil)
	ErrInvalidToken     = New(http.StatusUnauthorized, "Invalid token", nil)
	ErrMissingAuthToken = New(http.StatusUnauthorized, "Authorization header required", nil)
)

// Wrap returns a copy of a template error carrying err.
func Wrap(tmpl *Error, err error) *Error {
	return New(tmpl.Code, tmpl.Message, err)
}

// ErrorMiddleware renders the last error attached to the gin context.
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		appErr := FromError(c.Errors.Last().Err)
		c.AbortWithStatusJSON(appErr.Code, appErr)
	}
}

// Abort attaches err to the context and stops the handler chain.
func Abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
