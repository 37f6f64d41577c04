// Package auth implements the interactive OAuth2 authorization-code flow
// with PKCE for the dripctl CLI: challenge generation, the transient
// loopback callback listener, the code-for-token exchange, and pluggable
// token storage (file, OS keychain, in-memory).
package auth
