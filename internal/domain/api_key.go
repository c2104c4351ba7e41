package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ExchangeType identifies the venue an API key belongs to
type ExchangeType string

const (
	ExchangeTypeUpbit   ExchangeType = "UPBIT"
	ExchangeTypeBithumb ExchangeType = "BITHUMB"
	ExchangeTypeBinance ExchangeType = "BINANCE"
	ExchangeTypeKiwoom  ExchangeType = "KIWOOM"
	ExchangeTypeKIS     ExchangeType = "KIS"
)

// ParseExchangeType converts a case-insensitive string into an ExchangeType
func ParseExchangeType(s string) (ExchangeType, error) {
	t := ExchangeType(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case ExchangeTypeUpbit, ExchangeTypeBithumb, ExchangeTypeBinance, ExchangeTypeKiwoom, ExchangeTypeKIS:
		return t, nil
	}
	return "", fmt.Errorf("%w: unknown exchange type %q", ErrInvalidArgument, s)
}

// IsCrypto reports whether the venue is a crypto exchange
func (e ExchangeType) IsCrypto() bool {
	return e == ExchangeTypeUpbit || e == ExchangeTypeBithumb || e == ExchangeTypeBinance
}

// IsStockBroker reports whether the venue is a stock broker
func (e ExchangeType) IsStockBroker() bool {
	return e == ExchangeTypeKiwoom || e == ExchangeTypeKIS
}

// Permission is a capability granted to an API key
type Permission string

const (
	PermissionRead  Permission = "read"
	PermissionTrade Permission = "trade"
)

// Permissions is a set of granted capabilities
type Permissions map[Permission]struct{}

// ParsePermissions parses a comma-separated list such as "read,trade"
func ParsePermissions(s string) (Permissions, error) {
	perms := Permissions{}
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		switch Permission(part) {
		case PermissionRead, PermissionTrade:
			perms[Permission(part)] = struct{}{}
		default:
			return nil, fmt.Errorf("%w: unknown permission %q", ErrInvalidArgument, part)
		}
	}
	return perms, nil
}

// Has reports whether p is granted
func (ps Permissions) Has(p Permission) bool {
	_, ok := ps[p]
	return ok
}

// String renders the set in sorted, comma-separated form for storage
func (ps Permissions) String() string {
	parts := make([]string, 0, len(ps))
	for p := range ps {
		parts = append(parts, string(p))
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}

// APIKey is a stored exchange credential. The secret is kept sealed;
// only the apikeys service can open it.
type APIKey struct {
	ID                 uuid.UUID
	UserID             uuid.UUID
	ExchangeType       ExchangeType
	ExchangeName       string
	AccessKey          string
	SecretKeyEncrypted string
	Permissions        Permissions
	IsActive           bool
	LastUsedAt         *time.Time
	ExpiresAt          *time.Time
	Timestamps
}

// Validate rejects unknown exchanges and permissions
func (k *APIKey) Validate() error {
	if _, err := ParseExchangeType(string(k.ExchangeType)); err != nil {
		return err
	}
	if strings.TrimSpace(k.ExchangeName) == "" {
		return fmt.Errorf("%w: exchange name cannot be empty", ErrInvalidArgument)
	}
	if strings.TrimSpace(k.AccessKey) == "" {
		return fmt.Errorf("%w: access key cannot be empty", ErrInvalidArgument)
	}
	if k.SecretKeyEncrypted == "" {
		return fmt.Errorf("%w: secret key cannot be empty", ErrInvalidArgument)
	}
	if len(k.Permissions) == 0 {
		return fmt.Errorf("%w: at least one permission is required", ErrInvalidArgument)
	}
	return nil
}

// IsExpired reports whether ExpiresAt lies before now
func (k *APIKey) IsExpired(now time.Time) bool {
	return k.ExpiresAt != nil && k.ExpiresAt.Before(now)
}

// IsActiveAndValid reports whether the key may be used at now
func (k *APIKey) IsActiveAndValid(now time.Time) bool {
	return k.IsActive && !k.IsExpired(now)
}

// HasPermission reports whether p is granted
func (k *APIKey) HasPermission(p Permission) bool { return k.Permissions.Has(p) }

// CanTrade reports whether the key may place orders
func (k *APIKey) CanTrade() bool { return k.HasPermission(PermissionTrade) }

// CanRead reports whether the key may read balances
func (k *APIKey) CanRead() bool { return k.HasPermission(PermissionRead) }

// UpdateLastUsed records a use at now
func (k *APIKey) UpdateLastUsed(now time.Time) { k.LastUsedAt = &now }

// Deactivate disables the key
func (k *APIKey) Deactivate() { k.IsActive = false }
