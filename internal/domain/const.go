package domain

const (
	PrincipalCtxKey = "dn-principal"
	SessionCtxKey   = "dn-sessionId"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "session"
