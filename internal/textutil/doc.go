// Package textutil normalizes ingested agenda text and compares questions for
// group suggestions.
//
// Text is NFC-normalized on ingest so that the same question typed through
// different tools compares equal. Fingerprints are case-folded term-frequency
// vectors; tokens shorter than three runes and common Dutch function words are
// dropped before cosine similarity is computed.
package textutil
