// Package fathom is a thin client for the Fathom external API.
//
// It normalizes pagination, transcript shape, and upstream error codes into a
// stable contract so callers never inspect raw HTTP status codes. Error
// taxonomy is decided here and nowhere else.
package fathom
