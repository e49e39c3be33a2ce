package ledger

import (
	"fmt"

	"github.com/google/uuid"
)

// AccountIdentity is the internal identity of an account. It is never used
// for lookups at the boundary; account numbers are.
type AccountIdentity struct {
	uuid uuid.UUID
}

func NewAccountIdentity() AccountIdentity {
	return AccountIdentity{uuid: uuid.New()}
}

func ParseAccountIdentity(s string) (AccountIdentity, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return AccountIdentity{}, fmt.Errorf("invalid account identity %q: %w", s, err)
	}
	return AccountIdentity{uuid: id}, nil
}

func (a AccountIdentity) UUID() uuid.UUID { return a.uuid }

func (a AccountIdentity) String() string { return a.uuid.String() }

func (a AccountIdentity) IsZero() bool { return a.uuid == uuid.Nil }

// ParseAccountNumber parses a client-supplied account number.
func ParseAccountNumber(s string) (uuid.UUID, error) {
	number, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid account number %q", ErrNotFound, s)
	}
	return number, nil
}

func (a AccountIdentity) MarshalText() ([]byte, error) {
	return a.uuid.MarshalText()
}

func (a *AccountIdentity) UnmarshalText(data []byte) error {
	return a.uuid.UnmarshalText(data)
}
