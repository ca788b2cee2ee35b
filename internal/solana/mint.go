package solana

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

// MintAccountSize is the length of an SPL Token mint account.
const MintAccountSize = 82

// ErrNotMintAccount is returned when account data is not an SPL mint.
var ErrNotMintAccount = errors.New("not a mint account")

// Mint is a decoded SPL Token mint account.
// Authorities are empty when the COption is None.
type Mint struct {
	MintAuthority   string
	Supply          uint64
	Decimals        uint8
	IsInitialized   bool
	FreezeAuthority string
}

// DecodeMint decodes base64 account data using the SPL mint layout:
//
//	0..4   mint authority COption tag (u32 LE)
//	4..36  mint authority
//	36..44 supply (u64 LE)
//	44     decimals
//	45     is_initialized
//	46..50 freeze authority COption tag (u32 LE)
//	50..82 freeze authority
//
// Token-2022 mints carry extensions after byte 82 and decode the same way.
func DecodeMint(data string) (*Mint, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("decode mint data: %w", err)
	}
	if len(raw) < MintAccountSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrNotMintAccount, len(raw))
	}

	m := &Mint{
		Supply:        binary.LittleEndian.Uint64(raw[36:44]),
		Decimals:      raw[44],
		IsInitialized: raw[45] == 1,
	}
	if !m.IsInitialized {
		return nil, fmt.Errorf("%w: uninitialized", ErrNotMintAccount)
	}

	m.MintAuthority, err = decodeOptionalKey(raw[0:4], raw[4:36])
	if err != nil {
		return nil, fmt.Errorf("mint authority: %w", err)
	}
	m.FreezeAuthority, err = decodeOptionalKey(raw[46:50], raw[50:82])
	if err != nil {
		return nil, fmt.Errorf("freeze authority: %w", err)
	}

	return m, nil
}

func decodeOptionalKey(tag, key []byte) (string, error) {
	switch binary.LittleEndian.Uint32(tag) {
	case 0:
		return "", nil
	case 1:
		return base58.Encode(key), nil
	default:
		return "", fmt.Errorf("%w: bad option tag", ErrNotMintAccount)
	}
}
