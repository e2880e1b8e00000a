package amm

import "errors"

// Errors returned by Amm implementations. Implementations wrap them with
// context, so callers should match with errors.Is.
var (
	// ErrMissingAccount is returned by Update when a tracked address is absent
	ErrMissingAccount = errors.New("missing account")

	// ErrDecode is returned by Update when account bytes do not match the expected layout
	ErrDecode = errors.New("account decode failed")

	// ErrStaleSnapshot is returned by Quote before the first successful Update
	ErrStaleSnapshot = errors.New("stale or missing snapshot")

	// ErrInvalidMintPair is returned when the mints are not the venue's reserve pair
	ErrInvalidMintPair = errors.New("invalid mint pair")

	// ErrUnsupportedMode is returned for exact-out quotes
	ErrUnsupportedMode = errors.New("unsupported swap mode")

	// ErrInsufficientLiquidity is returned when the venue cannot cover the output
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")

	// ErrInvalidAmount is returned for a zero input amount
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrVenuePaused is returned when the snapshot reports the venue paused
	ErrVenuePaused = errors.New("venue paused")

	// ErrBuild is returned when the swap account list cannot be derived
	ErrBuild = errors.New("swap accounts build failed")
)
