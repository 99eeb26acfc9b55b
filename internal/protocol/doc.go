// Syncfleet - Orchestrated Data Source Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syncfleet

// Package protocol defines the wire message catalogue exchanged over a
// worker's hub connection, the envelope that frames every message with a
// correlation id and a wire-name discriminator, and the codec registry
// that maps discriminators to typed decoders.
//
// The registry is built explicitly at startup (DefaultRegistry); inbound
// messages are decoded by looking up the envelope's wire name, never by
// runtime reflection.
package protocol
