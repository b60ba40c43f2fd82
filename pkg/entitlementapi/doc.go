// Package entitlementapi exposes the plan catalog, the role table and
// stored subscription records as a read-only JSON API.
//
// Every response is an Envelope carrying either data or an error with a
// stable code. Invalid path or query parameters answer 400; a failing
// record store answers 503. Owners without a stored record get the default
// trial, marked as not stored.
package entitlementapi
