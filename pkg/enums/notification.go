package enums

import "fmt"

// NotificationType classifies an in-app notification.
type NotificationType string

const (
	NotificationTypeNewOrder          NotificationType = "new_order"
	NotificationTypeOrderUpdate       NotificationType = "order_update"
	NotificationTypeOrderCancelled    NotificationType = "order_cancelled"
	NotificationTypeSellerApplication NotificationType = "seller_application"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeNewOrder,
	NotificationTypeOrderUpdate,
	NotificationTypeOrderCancelled,
	NotificationTypeSellerApplication,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
