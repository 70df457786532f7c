package checkout

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const receiptPrefix = "rcpt"

// BuildReceipt derives the gateway receipt for a seller order. The gateway
// caps receipts at 40 characters, so ids are truncated to their first eight
// hex digits.
func BuildReceipt(buyerID, sellerID uuid.UUID, at time.Time) string {
	return fmt.Sprintf("%s_%s_%s_%d", receiptPrefix, shortID(buyerID), shortID(sellerID), at.Unix())
}

func shortID(id uuid.UUID) string {
	return strings.ReplaceAll(id.String(), "-", "")[:8]
}
