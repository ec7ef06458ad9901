package wallet

import (
	"encoding/json"
	"fmt"

	"github.com/jmcleod/ironvault/secrets"
)

// Kind tags which asset-derivation scheme a wallet's default account
// uses (spec §4.8 façade creation variants).
type Kind int

const (
	KindBIP32 Kind = iota
	KindArmory135
	KindWatchingOnly
	KindBlank
)

func (k Kind) String() string {
	switch k {
	case KindBIP32:
		return "BIP32"
	case KindArmory135:
		return "Armory135"
	case KindWatchingOnly:
		return "WatchingOnly"
	case KindBlank:
		return "Blank"
	default:
		return "Unknown"
	}
}

func (k Kind) MarshalJSON() ([]byte, error) { return json.Marshal(k.String()) }

func (k *Kind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("wallet: unmarshaling Kind: %w", err)
	}
	switch s {
	case "BIP32":
		*k = KindBIP32
	case "Armory135":
		*k = KindArmory135
	case "WatchingOnly":
		*k = KindWatchingOnly
	case "Blank":
		*k = KindBlank
	default:
		return ErrUnknownWalletKind
	}
	return nil
}

// Header is the wallet's own header record, stored inside the "assets"
// data sub-DB (spec §6 File layout: "its own headers, asset entries,
// account definitions"). It records everything needed to rebuild the
// default account on load, plus the private-material container
// protecting the account's seed or root private key.
type Header struct {
	Kind           Kind     `json:"kind"`
	DerivationPath []uint32 `json:"derivationPath,omitempty"`
	Lookup         uint32   `json:"lookup"`

	RootPub   []byte `json:"rootPub,omitempty"`
	Chaincode []byte `json:"chaincode,omitempty"`

	// Seed is nil for WatchingOnly containers, which carry no private
	// material at all.
	Seed            *secrets.EncryptedObject `json:"seed,omitempty"`
	SeedDefaultOnly bool                     `json:"seedDefaultOnly,omitempty"`
}
