package session

import "time"

// AccountType selects the TTL policy and binding requirements for a
// session.
type AccountType uint8

const (
	// AccountUser is a standard end-user session.
	AccountUser AccountType = iota
	// AccountOperator is an elevated support/operations session.
	AccountOperator
	// AccountAdmin is a fully elevated administrative session.
	AccountAdmin
)

func (a AccountType) String() string {
	switch a {
	case AccountUser:
		return "user"
	case AccountOperator:
		return "operator"
	case AccountAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// Session is the gateway-owned session record. AccessToken and RefreshToken
// hold AEAD ciphertext; plaintext tokens exist only transiently inside the
// coordinator.
type Session struct {
	SessionID string
	Account   AccountType

	AccessToken  []byte
	RefreshToken []byte

	FingerprintHash [32]byte
	MFAVerified     bool

	CreatedAt      int64
	LastActivityAt int64
	AbsoluteExpiry int64
}

// Bound reports whether the session carries a device fingerprint.
func (s *Session) Bound() bool {
	var zero [32]byte
	return s.FingerprintHash != zero
}

// Policy is the TTL and binding policy for one account type.
type Policy struct {
	IdleTimeout      time.Duration
	AbsoluteLifetime time.Duration
	// RequireFingerprint rejects session establishment without a device
	// fingerprint. Mandatory for elevated account types by default.
	RequireFingerprint bool
}

// DefaultPolicies returns the per-account-type defaults: generous windows
// for end users, progressively shorter windows plus mandatory fingerprint
// binding for elevated accounts.
func DefaultPolicies() map[AccountType]Policy {
	return map[AccountType]Policy{
		AccountUser: {
			IdleTimeout:      30 * time.Minute,
			AbsoluteLifetime: 24 * time.Hour,
		},
		AccountOperator: {
			IdleTimeout:        15 * time.Minute,
			AbsoluteLifetime:   8 * time.Hour,
			RequireFingerprint: true,
		},
		AccountAdmin: {
			IdleTimeout:        10 * time.Minute,
			AbsoluteLifetime:   4 * time.Hour,
			RequireFingerprint: true,
		},
	}
}
