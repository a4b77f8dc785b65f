package entities

// RegisteredUser is one row of the server-side user registry the periodic
// sweep iterates over. Registration happens over the HTTP API; the sweep
// only reads users and prunes push tokens that delivery reports as dead.
type RegisteredUser struct {
	ID        int64  `json:"id"`
	City      string `json:"city"`
	Country   string `json:"country"`
	PushToken string `json:"pushToken"`
}

// HasCompleteProfile reports whether the user can be processed by the
// sweep: a location to fetch timings for and a destination to push to.
func (u *RegisteredUser) HasCompleteProfile() bool {
	return u.City != "" && u.Country != "" && u.PushToken != ""
}
