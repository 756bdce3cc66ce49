package link

import (
	"time"

	"github.com/google/uuid"

	"github.com/unifin/unifin/internal/engine/record"
)

// Type is the kind of financial source a link connects
type Type string

const (
	TypeWallet Type = "wallet" // blockchain wallet address
	TypeBank   Type = "bank"   // banking aggregator access token
	TypeBroker Type = "broker" // brokerage connection
)

// IsValid checks if the link type is known
func (t Type) IsValid() bool {
	switch t {
	case TypeWallet, TypeBank, TypeBroker:
		return true
	}
	return false
}

// Link connects a user to one external financial source. ExternalRef is
// the provider-side handle: a wallet address, a Plaid access token, or a
// brokerage account id.
type Link struct {
	ID          uuid.UUID     `json:"id"`
	UserID      uuid.UUID     `json:"user_id"`
	Type        Type          `json:"type"`
	Source      record.Source `json:"source"`
	Name        string        `json:"name"`
	ExternalRef string        `json:"external_ref"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// walletSources are the chains a wallet link may point at
var walletSources = map[record.Source]bool{
	record.SourceEthereum: true,
	record.SourcePolygon:  true,
}

// ValidateCreate validates link fields for creation. Wallet addresses are
// checked for EVM format and EIP-55 checksum, and stored checksummed.
func (l *Link) ValidateCreate() error {
	if l.UserID == uuid.Nil {
		return ErrInvalidUserID
	}
	if !l.Type.IsValid() {
		return ErrInvalidType
	}
	if l.Name == "" {
		return ErrMissingName
	}
	if len(l.Name) > 100 {
		return ErrNameTooLong
	}
	if l.ExternalRef == "" {
		return ErrMissingExternalRef
	}

	switch l.Type {
	case TypeWallet:
		if !walletSources[l.Source] {
			return ErrUnsupportedChain
		}
		checksummed, err := ValidateEVMAddress(l.ExternalRef)
		if err != nil {
			return err
		}
		l.ExternalRef = checksummed
	case TypeBank:
		l.Source = record.SourcePlaid
	case TypeBroker:
		l.Source = record.SourceBroker
	}

	return nil
}
