package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/princinho/natours/apperrors"
	"github.com/princinho/natours/database"
	"github.com/princinho/natours/utils"
)

var errMissingUser = errors.New("protected handler reached without an authenticated user")

const msgSomethingWrong = "Something went wrong!"

// ErrorHandler renders the last error attached with c.Error. Operational
// errors are shown to the client as they are; anything else is logged and
// answered with a generic 500.
func ErrorHandler(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		appErr := Translate(err)
		log := logger.With("request_id", RequestIDFrom(c), "method", c.Request.Method, "path", c.Request.URL.Path)

		if !appErr.Operational {
			log.ErrorContext(c.Request.Context(), "unexpected error", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": msgSomethingWrong})
			return
		}

		if appErr.Status >= http.StatusInternalServerError {
			log.ErrorContext(c.Request.Context(), appErr.Message, "error", err)
		} else {
			log.DebugContext(c.Request.Context(), "request rejected", "status", appErr.Status, "kind", appErr.Kind.String(), "message", appErr.Message)
		}
		c.JSON(appErr.Status, gin.H{"status": appErr.ResponseStatus(), "message": appErr.Message})
	}
}

// Recovery turns a handler panic into an internal error so ErrorHandler logs
// it and answers with the generic 500. Register it after ErrorHandler.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, rec any) {
		_ = c.Error(apperrors.Internal(fmt.Errorf("panic: %v\n%s", rec, debug.Stack())))
		c.Abort()
	})
}

// Translate maps library and store errors onto the AppError taxonomy.
func Translate(err error) *apperrors.AppError {
	if appErr, ok := apperrors.As(err); ok {
		return appErr
	}

	var verrs validator.ValidationErrors
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var tooLarge *http.MaxBytesError

	switch {
	case errors.As(err, &verrs):
		return apperrors.Validation("Invalid input data. " + validationMessages(verrs))
	case errors.As(err, &tooLarge):
		return apperrors.Validation("Request body too large").WithStatus(http.StatusRequestEntityTooLarge)
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return apperrors.Validation("Invalid request body")
	case errors.Is(err, database.ErrDuplicateEmail), utils.IsDuplicateKey(err):
		return apperrors.Validation("Duplicate field value. Please use another value!")
	case errors.Is(err, database.ErrInvalidID):
		return apperrors.Validation("Invalid id")
	case errors.Is(err, utils.ErrTokenExpired):
		return apperrors.Unauthorized("Your token has expired! Please log in again.")
	case errors.Is(err, utils.ErrTokenInvalid):
		return apperrors.Unauthorized("Invalid token. Please log in again!")
	default:
		return apperrors.Internal(err)
	}
}

func validationMessages(verrs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return strings.Join(msgs, ". ")
}

func fieldMessage(fe validator.FieldError) string {
	field := lowerFirst(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("Please provide %s", field)
	case "email":
		return "Please provide a valid email"
	case "eqfield":
		return "Passwords are not the same!"
	case "min":
		return fmt.Sprintf("%s must have at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must have at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
