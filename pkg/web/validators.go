package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
)

// ParamValidator is a function type that validates a parameter.
type ParamValidator func(valueToTest float64) bool

// gte returns a ParamValidator that checks if the argument is greater than or equal to the given value.
func gte(valToCompareAgainst float64) ParamValidator {
	return func(argValue float64) bool {
		return argValue >= valToCompareAgainst
	}
}

// ParseOptionalPriceBound parses an optional non-negative decimal query
// parameter. Returns nil when the parameter is absent, and false on a
// malformed or negative value (a 400 response has already been written).
func ParseOptionalPriceBound(r *http.Request, w http.ResponseWriter, logger *slog.Logger, key string) (*float64, bool) {
	return parseOptionalFloat(r, w, logger, key, gte(0))
}

func parseOptionalFloat(r *http.Request, w http.ResponseWriter, logger *slog.Logger, key string, pValidator ParamValidator) (*float64, bool) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return nil, true // Absent is fine for optional parameters
	}
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil || !pValidator(floatValue) {
		RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("Invalid %s number: %s", key, value))
		return nil, false
	}
	return &floatValue, true
}
