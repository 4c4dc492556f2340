package models

// JWTClaims represents the structure of the JWT token claims
type JWTClaims struct {
	JTI          string   `json:"jti"`
	Exp          int64    `json:"exp"`
	IAT          int64    `json:"iat"`
	ISS          string   `json:"iss"`
	AUD          []string `json:"aud"`
	SUB          string   `json:"sub"`
	UID          int64    `json:"uid"`
	RealmAccess  struct {
		Roles []string `json:"roles"`
	} `json:"realm_access"`
	Scope             string `json:"scope"`
	Name              string `json:"name"`
	PreferredUsername string `json:"preferred_username"`
	Email             string `json:"email"`
}
