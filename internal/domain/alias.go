package domain

import (
	"fmt"
	"strings"
)

// AliasType identifies the contact channel a user is claimed by.
type AliasType string

const (
	AliasEmail  AliasType = "email"
	AliasMobile AliasType = "mobile"
)

// ParseAliasType maps an inbound string onto an AliasType.
// Matching is case-insensitive.
func ParseAliasType(s string) (AliasType, error) {
	switch strings.ToLower(s) {
	case string(AliasEmail):
		return AliasEmail, nil
	case string(AliasMobile):
		return AliasMobile, nil
	default:
		return "", fmt.Errorf("unknown alias type %q: %w", s, ErrBadRequest)
	}
}
