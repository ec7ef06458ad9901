package walletdb

import "errors"

// Sentinel errors for wallet-DB structural operations (spec §4.6).
var (
	// ErrLiveTransactions is returned by SetDbCount/Shutdown when a
	// transaction is currently open on the control sub-DB or any data
	// sub-DB.
	ErrLiveTransactions = errors.New("walletdb: live transaction on a sub-DB")

	// ErrShrinkNotAllowed is returned by SetDbCount when n is below the
	// number of data sub-DBs already provisioned.
	ErrShrinkNotAllowed = errors.New("walletdb: dbCount cannot shrink below the current sub-DB count")

	// ErrControlLocked is returned by LockControlContainer when a lock
	// scope is already outstanding.
	ErrControlLocked = errors.New("walletdb: control container already locked")

	// ErrControlNotLocked is returned by AddHeader/UnlockControlContainer
	// when no lock scope is currently held.
	ErrControlNotLocked = errors.New("walletdb: control container is not locked")

	// ErrDbCountExceeded is returned by AddHeader once the number of data
	// sub-DBs would exceed the declared dbCount.
	ErrDbCountExceeded = errors.New("walletdb: adding this header would exceed the declared dbCount")

	// ErrUnknownSubDB is returned when a data sub-DB name is not present
	// in the control header.
	ErrUnknownSubDB = errors.New("walletdb: unknown data sub-DB")

	// ErrDuplicateSubDB is returned by AddHeader when name is already
	// registered.
	ErrDuplicateSubDB = errors.New("walletdb: data sub-DB already exists")
)
