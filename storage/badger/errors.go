package badger

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/careerfit/storage"
)

var errClosed = storage.ErrStorageClosed

// translate maps badger errors onto storage errors.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrNotFound),
		errors.Is(err, storage.ErrDuplicateKey),
		errors.Is(err, storage.ErrSerializationFailed),
		errors.Is(err, storage.ErrStorageClosed):
		return err
	case errors.Is(err, badger.ErrKeyNotFound):
		return storage.ErrNotFound
	case errors.Is(err, badger.ErrDBClosed):
		return storage.ErrStorageClosed
	default:
		return fmt.Errorf("%w: %w", storage.ErrTransactionFailed, err)
	}
}
