package model

import (
	"errors"
	"fmt"
	"strings"
)

// Locale selects which translated fields are returned
type Locale string

const (
	LocaleFR Locale = "fr"
	LocaleEN Locale = "en"
)

// ErrInvalidLocale is returned for anything other than fr or en
var ErrInvalidLocale = errors.New("invalid locale")

// ParseLocale parses a locale code. An empty string means French, the site's default.
func ParseLocale(s string) (Locale, error) {
	switch Locale(strings.ToLower(strings.TrimSpace(s))) {
	case "", LocaleFR:
		return LocaleFR, nil
	case LocaleEN:
		return LocaleEN, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidLocale, s)
	}
}

func (l Locale) String() string {
	return string(l)
}
