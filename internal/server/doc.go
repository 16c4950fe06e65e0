// Package server provides the HTTP layer of pibench.
//
// This package is internal to pibench and handles all HTTP concerns:
//
//   - [Server]: an explicitly constructed listener with Start/Stop lifecycle
//   - [PiHandler]: parses the iterations query parameter and answers with
//     the Leibniz approximation of π as plain text
//   - [RequestID] and [AccessLog]: middleware shared by every listener
//
// Servers bind synchronously in [Server.Start], so a port that is already in
// use is reported to the caller instead of being logged from a goroutine.
// Users of the pibench library start servers through [pibench.PiBench.Start].
package server
