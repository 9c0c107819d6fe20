package logging

import (
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func AccountID(id uuid.UUID) zap.Field {
	return zap.String("account_id", id.String())
}

// Email logs only the domain part of an address.
func Email(address string) zap.Field {
	_, domain, _ := strings.Cut(address, "@")
	return zap.String("email_domain", domain)
}

func Count(n int64) zap.Field {
	return zap.Int64("count", n)
}
