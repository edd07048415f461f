package models

// Identity is what the external identity collaborator verified about a caller.
// Subject becomes the account id, Email is the raw onboarding signal,
// ClaimedRole is optional and checked against the stored role.
type Identity struct {
	Subject     string
	Email       string
	ClaimedRole string
}
