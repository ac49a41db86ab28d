package handlers

import (
	"strings"

	"github.com/pkg/errors"

	"shopfront/internal/services"
)

const tryAgain = "Something went wrong. Please try again later."

// userMessage turns a service error into text that is safe to show. The
// second result is false for unexpected errors, which callers should log.
func userMessage(err error) (string, bool) {
	var se *services.StockError
	switch {
	case errors.As(err, &se):
		return se.Error(), true
	case errors.Is(err, services.ErrCartEmpty):
		return "Your cart is empty.", true
	case errors.Is(err, services.ErrNotFound):
		return "The requested item could not be found.", true
	case errors.Is(err, services.ErrInvalidState), errors.Is(err, services.ErrInvalidArgument):
		return detail(err), true
	case errors.Is(err, services.ErrTransaction):
		return tryAgain, false
	}
	return tryAgain, false
}

// detail strips the sentinel suffix pkg/errors appends to wrapped messages
// and capitalizes what is left.
func detail(err error) string {
	msg := err.Error()
	cause := errors.Cause(err).Error()
	if len(msg) > len(cause)+2 && msg[len(msg)-len(cause)-2:] == ": "+cause {
		msg = msg[:len(msg)-len(cause)-2]
	}
	if msg == "" {
		return msg
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
