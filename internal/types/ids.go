package types

import (
	"github.com/google/uuid"
)

// NewProductID generates a time-ordered UUIDv7 product identifier.
func NewProductID() ProductID {
	return ProductID(uuid.Must(uuid.NewV7()).String())
}

// NewRuleID generates a time-ordered UUIDv7 rule identifier.
func NewRuleID() RuleID {
	return RuleID(uuid.Must(uuid.NewV7()).String())
}

// ParseProductID validates a string as a product identifier.
func ParseProductID(s string) (ProductID, error) {
	_, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return ProductID(s), nil
}

// ParseRuleID validates a string as a rule identifier.
func ParseRuleID(s string) (RuleID, error) {
	_, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return RuleID(s), nil
}
