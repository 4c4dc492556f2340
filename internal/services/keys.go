package services

// Store key layout. Each entity owns its own namespace; cross-entity
// consistency is not transactional.
const (
	codeKeyPrefix     = "phone-verification:code:"
	verifiedKeyPrefix = "phone-verification:verified:"
	ipKeyPrefix       = "phone-verification:ip:"
	settingsKey       = "phone-verification:settings"

	// phoneIndexKey maps phone -> uid (member=phone, score=uid).
	phoneIndexKey = "phone:uid"
	// listingIndexKey orders users by last phone activity
	// (member=uid, score=ms timestamp).
	listingIndexKey = "users:phone"
)
