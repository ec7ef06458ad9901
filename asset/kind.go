package asset

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownKind is returned when an unrecognized tagged-variant kind is
// encountered while decoding.
var ErrUnknownKind = errors.New("asset: unknown kind")

// AssetKind tags an AssetEntry variant (spec §3 AssetEntry).
type AssetKind int

const (
	AssetSingle AssetKind = iota
	AssetMultisig
	AssetBIP32Root
)

func (k AssetKind) String() string {
	switch k {
	case AssetSingle:
		return "Single"
	case AssetMultisig:
		return "Multisig"
	case AssetBIP32Root:
		return "BIP32Root"
	default:
		return "Unknown"
	}
}

func (k AssetKind) MarshalJSON() ([]byte, error) { return json.Marshal(k.String()) }

func (k *AssetKind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("asset: unmarshaling AssetKind: %w", err)
	}
	switch s {
	case "Single":
		*k = AssetSingle
	case "Multisig":
		*k = AssetMultisig
	case "BIP32Root":
		*k = AssetBIP32Root
	default:
		return ErrUnknownKind
	}
	return nil
}

// AccountKind tags an AssetAccount variant (spec §4.7).
type AccountKind int

const (
	AccountArmory135Chain AccountKind = iota
	AccountBIP32
	AccountBIP32Salted
	AccountECDH
)

func (k AccountKind) String() string {
	switch k {
	case AccountArmory135Chain:
		return "Armory135Chain"
	case AccountBIP32:
		return "BIP32"
	case AccountBIP32Salted:
		return "BIP32Salted"
	case AccountECDH:
		return "ECDH"
	default:
		return "Unknown"
	}
}

func (k AccountKind) MarshalJSON() ([]byte, error) { return json.Marshal(k.String()) }

func (k *AccountKind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("asset: unmarshaling AccountKind: %w", err)
	}
	switch s {
	case "Armory135Chain":
		*k = AccountArmory135Chain
	case "BIP32":
		*k = AccountBIP32
	case "BIP32Salted":
		*k = AccountBIP32Salted
	case "ECDH":
		*k = AccountECDH
	default:
		return ErrUnknownKind
	}
	return nil
}

// AddressKind tags an AddressEntry variant (spec §3 AddressEntry).
type AddressKind int

const (
	AddressP2PK AddressKind = iota
	AddressP2PKH
	AddressP2PKHUncompressed
	AddressP2WPKH
	AddressP2SH
	AddressP2WSH
	AddressMultisig
)

func (k AddressKind) String() string {
	switch k {
	case AddressP2PK:
		return "P2PK"
	case AddressP2PKH:
		return "P2PKH"
	case AddressP2PKHUncompressed:
		return "P2PKH_U"
	case AddressP2WPKH:
		return "P2WPKH"
	case AddressP2SH:
		return "P2SH"
	case AddressP2WSH:
		return "P2WSH"
	case AddressMultisig:
		return "Multisig"
	default:
		return "Unknown"
	}
}

func (k AddressKind) MarshalJSON() ([]byte, error) { return json.Marshal(k.String()) }

func (k *AddressKind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("asset: unmarshaling AddressKind: %w", err)
	}
	switch s {
	case "P2PK":
		*k = AddressP2PK
	case "P2PKH":
		*k = AddressP2PKH
	case "P2PKH_U":
		*k = AddressP2PKHUncompressed
	case "P2WPKH":
		*k = AddressP2WPKH
	case "P2SH":
		*k = AddressP2SH
	case "P2WSH":
		*k = AddressP2WSH
	case "Multisig":
		*k = AddressMultisig
	default:
		return ErrUnknownKind
	}
	return nil
}
