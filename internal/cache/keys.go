package cache

import "fmt"

// PendingKey stores a chat's bulk batch awaiting confirmation.
func PendingKey(chat string) string {
	return fmt.Sprintf("shipment_bot:pending:%s", chat)
}

// UpdateKey marks a Telegram update id as already handled.
func UpdateKey(updateID int) string {
	return fmt.Sprintf("shipment_bot:update:%d", updateID)
}

// RateKey counts bulk parses per chat within the rate window.
func RateKey(kind, chat string) string {
	return fmt.Sprintf("shipment_bot:rl:%s:%s", kind, chat)
}
