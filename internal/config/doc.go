// Package config loads, normalizes, and validates quest configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OPENAI_API_KEY, ANTHROPIC_API_KEY and QUEST_API_TOKEN. The Config type
// centralizes the database location, the enrichment provider, and the
// dispatcher's liveness and retry policy so the daemon and CLI agree on them.
package config
