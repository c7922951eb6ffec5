package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrQuotaExhausted = errors.New("quota exhausted")
	ErrNetwork        = errors.New("network error")
	ErrUpstreamUpdate = errors.New("upstream update failure")
	ErrMalformedFrame = errors.New("malformed stream frame")
	ErrNoMatch        = errors.New("no match found")
	ErrValidation     = errors.New("validation error")
	ErrConfiguration  = errors.New("configuration error")
)

// Wrap builds an error message that includes workflow context while tagging it
// with the provided marker for later halt classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, mode, operation, message string, err error) error {
	detail := buildDetail(mode, operation, message)
	if marker == nil {
		marker = ErrNetwork
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// HaltKind names the taxonomy bucket for err. Unknown errors report "network"
// because every unclassified remote failure halts the run the same way.
func HaltKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrQuotaExhausted):
		return "quota"
	case errors.Is(err, ErrUpstreamUpdate):
		return "upstream_update"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrNoMatch):
		return "no_match"
	case errors.Is(err, ErrMalformedFrame):
		return "malformed_frame"
	default:
		return "network"
	}
}

// IsFatal reports whether err must halt the active run. Only NoMatch and
// malformed stream frames are tolerated.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrNoMatch) && !errors.Is(err, ErrMalformedFrame)
}

func buildDetail(mode, operation, message string) string {
	parts := make([]string, 0, 3)
	if mode = strings.TrimSpace(mode); mode != "" {
		parts = append(parts, mode)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
