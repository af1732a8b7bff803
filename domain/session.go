package domain

// Session is the credential and identity the client holds for the current user.
type Session struct {
	Token string `json:"token,omitempty"`
	User  *User  `json:"user,omitempty"`
}

// IsAuthenticated reports whether both halves of the session are present.
func (s *Session) IsAuthenticated() bool {
	return s != nil && s.Token != "" && s.User != nil
}
