// Package notifications delivers batch run events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. Each event type can be switched off individually through the
// [notifications] run_* flags, in which case Publish returns nil without
// sending anything.
//
// Workflow code depends only on the Service interface.
package notifications
