package models

// UserPhone is the phone state attached to a user account.
type UserPhone struct {
	Phone           string `json:"phone"`
	PhoneVerified   bool   `json:"phoneVerified"`
	PhoneVerifiedAt int64  `json:"phoneVerifiedAt,omitempty"`
}

// PhoneListEntry is one row of the admin phone listing.
type PhoneListEntry struct {
	UID             int64  `json:"uid"`
	Username        string `json:"username"`
	Phone           string `json:"phone"`
	PhoneVerified   bool   `json:"phoneVerified"`
	PhoneVerifiedAt int64  `json:"phoneVerifiedAt,omitempty"`
}

// PhoneList is a paginated view over the listing index.
type PhoneList struct {
	Users []PhoneListEntry `json:"users"`
	Total int64            `json:"total"`
}
