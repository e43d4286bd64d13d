package rediskey

import "fmt"

// Namespace prefixes shared across the control plane.
const (
	NotificationPrefix = "notification:unread"
)

func NamespaceKey(namespace, key string) string {
	return fmt.Sprintf("%s:%s", namespace, key)
}

// BuildUnreadCountKey returns "notification:unread:{recipientID}"
func BuildUnreadCountKey(recipientID string) string {
	return NamespaceKey(NotificationPrefix, recipientID)
}
