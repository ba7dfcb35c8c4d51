package domain

import "time"

// TokenPurpose tags what a single-use token proves.
type TokenPurpose string

const (
	PurposeVerifyEmail   TokenPurpose = "verify_email"
	PurposeResetPassword TokenPurpose = "reset_password"
)

func (p TokenPurpose) Valid() bool {
	return p == PurposeVerifyEmail || p == PurposeResetPassword
}

// Token is the stored half of an emailed token. Only the hash of the raw value
// is ever persisted.
type Token struct {
	Hash       string       `json:"-"`
	Purpose    TokenPurpose `json:"purpose"`
	ExpiresAt  time.Time    `json:"expires_at"`
	ConsumedAt *time.Time   `json:"consumed_at,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
}

// IsExpiredAt reports whether the token is past its expiry at t.
func (t Token) IsExpiredAt(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

func (t Token) IsConsumed() bool { return t.ConsumedAt != nil }

// UsableAt reports whether the token can still be validated at now.
func (t Token) UsableAt(now time.Time) bool {
	return !t.IsConsumed() && !t.IsExpiredAt(now)
}
