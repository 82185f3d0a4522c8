// Package mocks holds in-memory stand-ins for DynamoDB and Redis so the
// server runs locally with USE_MOCKS=true and no AWS account.
package mocks

import (
	"os"
	"strconv"
	"strings"
)

// IsMockMode returns true if USE_MOCKS is set to a true value (true, 1, yes)
func IsMockMode() bool {
	val := strings.TrimSpace(os.Getenv("USE_MOCKS"))
	if strings.EqualFold(val, "yes") {
		return true
	}
	on, err := strconv.ParseBool(val)
	return err == nil && on
}
