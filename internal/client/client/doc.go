// Package client contains the client-side transport and persistence bootstrap
// for daylog.
//
// # Overview
//
// The package provides:
//  1. A concrete gRPC implementation of the record store (see GRPCClient). It
//     manages one connection, injects the access token through a unary
//     interceptor and maps gRPC status codes back to the sentinel errors of
//     package common, so the engine sees the same errors as with the local
//     store.
//  2. Local persistence bootstrap (InitDatabase) for the CLI: an SQLite
//     database with the embedded goose migrations applied.
//
// # Error Handling
//
// Callers match errors with errors.Is against common.ErrUnauthenticated,
// common.ErrTokenExpired, common.ErrUnavailable, common.ErrNoData and the
// other journal sentinels.
//
// Concurrency & Contexts
//
// GRPCClient is safe for concurrent use; the token can be swapped while calls
// are in flight. All operations accept context.Context and honor cancellation.
package client
