package notify

import "log"

// Notifier delivers user-facing messages. Every terminal outcome of the
// ordering flow goes through here; nothing is silently discarded.
type Notifier interface {
	Success(title, description string)
	Error(title, description string)
	Info(title, description string)
}

// LogNotifier writes notifications to the application log. The storefront
// frontend polls its own toast channel; server-side we only need the trace.
type LogNotifier struct{}

func (LogNotifier) Success(title, description string) {
	log.Printf("[NOTIFY] [SUCCESS] %s: %s", title, description)
}

func (LogNotifier) Error(title, description string) {
	log.Printf("[NOTIFY] [ERROR] %s: %s", title, description)
}

func (LogNotifier) Info(title, description string) {
	log.Printf("[NOTIFY] [INFO] %s: %s", title, description)
}
