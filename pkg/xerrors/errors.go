// Package xerrors holds the sentinel error kinds shared across the exchange core.
package xerrors

import "errors"

var (
	ErrMalformedPair         = errors.New("malformed pair id")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrOverflow              = errors.New("arithmetic overflow")
	ErrOrderNotFound         = errors.New("order not found")
	ErrPairNotFound          = errors.New("pair not found")
	ErrAlreadyCancelled      = errors.New("order already cancelled")
	ErrBlockStoreIO          = errors.New("block store io error")
	ErrSerialisation         = errors.New("serialisation error")
	ErrOracleAssertionFailed = errors.New("oracle assertion failed")
	ErrOracleCapExceeded     = errors.New("oracle replay span exceeds cap")
)
