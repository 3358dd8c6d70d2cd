// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation provides input validation utilities for security-critical operations.
//
// This package contains validators for user-provided identifiers that end up
// in storage keys, URL paths, or log output. Using these validators prevents
// key collisions and path traversal via crafted plan or step ids.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// identifierPattern matches valid plan and step identifiers.
// Allows: letters, digits, dots, underscores, hyphens; must start
// with a letter or digit. Slashes are excluded because ids are
// embedded in storage keys and URL paths.
var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._\-]*$`)

// maxIdentifierLen caps identifier length. Ids beyond this are
// almost certainly generated by mistake and bloat storage keys.
const maxIdentifierLen = 128

// ValidatePlanID validates a plan identifier before it is used in a
// storage key or URL path.
//
// Valid ids:
//   - 1-128 characters
//   - Letters, digits, dots, underscores, hyphens
//   - First character is a letter or digit
//
// Returns an error if the id is invalid.
//
// Example:
//
//	if err := validation.ValidatePlanID(req.PlanID); err != nil {
//	    c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
//	    return
//	}
func ValidatePlanID(id string) error {
	return validateIdentifier("plan id", id)
}

// ValidateStepID validates a step identifier using the same rules
// as ValidatePlanID.
func ValidateStepID(id string) error {
	return validateIdentifier("step id", id)
}

func validateIdentifier(kind, id string) error {
	if id == "" {
		return fmt.Errorf("%s cannot be empty", kind)
	}
	if len(id) > maxIdentifierLen {
		return fmt.Errorf("%s is %d characters, limit is %d", kind, len(id), maxIdentifierLen)
	}
	if !identifierPattern.MatchString(id) {
		return fmt.Errorf("invalid %s: %q (letters, digits, dots, underscores, and hyphens only)", kind, id)
	}
	return nil
}

// SanitizePlanID trims whitespace and validates a plan id.
// Returns the trimmed id if valid, or an error if invalid.
func SanitizePlanID(id string) (string, error) {
	trimmed := strings.TrimSpace(id)
	if err := ValidatePlanID(trimmed); err != nil {
		return "", err
	}
	return trimmed, nil
}
