package holders

import "errors"

var (
	// ErrZeroSupply is returned when a mint reports no supply.
	ErrZeroSupply = errors.New("mint has zero supply")

	// ErrMintNotFound is returned when the mint account does not exist.
	ErrMintNotFound = errors.New("mint account not found")
)
