// Package auth implements per-request session validation.
//
// A Session is built for each inbound request from the submitted Params and
// the request's sessionstore.Store. On first query the Resolver selects one
// authentication path (API key, persisted token, or username and password)
// and looks up the candidate user; the Authenticator checks the credential;
// the outcome is cached for the rest of the request. Password checks update
// the user's counters, the other paths never do.
package auth
