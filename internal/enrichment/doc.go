// Package enrichment turns one agenda question plus the meeting transcript
// into a structured answer by calling a hosted language model.
//
// OpenAI and Anthropic are supported through their official SDKs. Provider
// failures are tagged with the services error markers so the dispatcher can
// tell retryable outages from requests that will never succeed.
package enrichment
