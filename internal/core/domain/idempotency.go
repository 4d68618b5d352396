package domain

import (
	"time"

	"github.com/google/uuid"
)

// IdempotencyLog caches the result of a completed transfer so a retried
// request with the same key is a no-op returning the original record.
type IdempotencyLog struct {
	Key          string    `json:"key"` // Format: "sender_id:client_key"
	TransferID   uuid.UUID `json:"transfer_id"`
	ResponseJSON []byte    `json:"response_json"` // Cached transfer to return
	CreatedAt    time.Time `json:"created_at"`
}

// BuildIdempotencyKey scopes a caller-supplied key to the sending account,
// so two senders reusing the same client key never collide.
func BuildIdempotencyKey(senderID uuid.UUID, clientKey string) string {
	return senderID.String() + ":" + clientKey
}
