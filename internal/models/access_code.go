package models

import (
	"strings"
	"time"
)

// PropertyAccessCode is a single-use invitation granting one email address
// access to one property. Only derived hashes of the raw code are stored:
// CodeLookup is a deterministic index, CodeHash is the salted slow hash that
// actually authenticates the code.
type PropertyAccessCode struct {
	ID            string     `json:"id"`
	PropertyID    string     `json:"property_id"`
	IssuedToEmail string     `json:"issued_to_email"`
	CodeLookup    string     `json:"-"`
	CodeHash      string     `json:"-"`
	CreatedBySub  string     `json:"created_by_sub"`
	CreatedAt     time.Time  `json:"created_at"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	RedeemedAt    *time.Time `json:"redeemed_at,omitempty"`
	RedeemedBySub *string    `json:"redeemed_by_sub,omitempty"`
	RevokedAt     *time.Time `json:"revoked_at,omitempty"`
	RevokedBySub  *string    `json:"revoked_by_sub,omitempty"`
}

func (c PropertyAccessCode) IsExpired(now time.Time) bool {
	return c.ExpiresAt != nil && c.ExpiresAt.Before(now)
}

func (c PropertyAccessCode) IsRedeemed() bool {
	return c.RedeemedAt != nil
}

func (c PropertyAccessCode) IsRevoked() bool {
	return c.RevokedAt != nil
}

// IsActive reports whether the code can still be redeemed. Exactly one of
// active, expired, redeemed, revoked describes a code at any instant.
func (c PropertyAccessCode) IsActive(now time.Time) bool {
	return !c.IsRevoked() && !c.IsExpired(now) && !c.IsRedeemed()
}

func (c PropertyAccessCode) IsIssuedTo(email string) bool {
	return c.IssuedToEmail != "" && strings.EqualFold(c.IssuedToEmail, email)
}

func (c PropertyAccessCode) IsCreatedBy(userSub string) bool {
	return c.CreatedBySub != "" && c.CreatedBySub == userSub
}
