// Package normalize turns stored cookie blobs into browser-importable cookie
// records and stored proxy columns into proxy descriptors.
//
// Cookie attributes come from per-network policy tables keyed by cookie name.
// Parsing is lenient: malformed segments are dropped and never reported, the
// only error a caller can get back is an unsupported network.
package normalize
