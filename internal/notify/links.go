package notify

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// JobStartPayload is the deep-link payload printed as a QR code on the
// customer receipt.
func JobStartPayload(jobID int64) string {
	return fmt.Sprintf("job_%d", jobID)
}

// OwnerStartPayload is the deep-link payload that subscribes a shop owner
// to daily reports.
func OwnerStartPayload(token string) string {
	return "owner_" + token
}

// BotLink builds the t.me deep link the QR code encodes.
func BotLink(botName, payload string) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", botName, payload)
}

// NewOwnerToken returns an unguessable token for an owner deep link.
func NewOwnerToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
