// Package notifications delivers processing events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and degrades to a no-op when notifications are disabled.
// Individual events can be switched off in the [notifications] section.
package notifications
