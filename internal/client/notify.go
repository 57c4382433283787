package client

// Notifier receives user-facing outcome messages for write operations.
type Notifier interface {
	Success(message string)
	Error(message string)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) Success(string) {}

func (NopNotifier) Error(string) {}
