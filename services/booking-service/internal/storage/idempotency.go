package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// ClaimIdempotencyKey inserts the key if it is new and locks its row either way. A
// concurrent request with the same key blocks here until the first one commits.
func (t *txStore) ClaimIdempotencyKey(ctx context.Context, ownerID, key string) (string, error) {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO booking_idempotency_keys (owner_id, idempotency_key)
		VALUES ($1, $2)
		ON CONFLICT (owner_id, idempotency_key) DO NOTHING
	`, ownerID, key)
	if err != nil {
		return "", err
	}

	var bookingID *string
	err = t.tx.QueryRow(ctx, `
		SELECT booking_id::text
		FROM booking_idempotency_keys
		WHERE owner_id = $1 AND idempotency_key = $2
		FOR UPDATE
	`, ownerID, key).Scan(&bookingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", errors.New("idempotency key vanished")
		}
		return "", err
	}
	if bookingID == nil {
		return "", nil
	}
	return *bookingID, nil
}

func (t *txStore) FinalizeIdempotencyKey(ctx context.Context, ownerID, key, bookingID string) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE booking_idempotency_keys
		SET booking_id = $3,
			updated_at = now()
		WHERE owner_id = $1 AND idempotency_key = $2
	`, ownerID, key, bookingID)
	return err
}
