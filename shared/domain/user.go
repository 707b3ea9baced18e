package domain

// UserRef is the author block embedded in every post record.
type UserRef struct {
	Id        UserId      `json:"id"`
	Username  Username    `json:"username" validate:"required"`
	AvatarRef ResourceRef `json:"picture_url,omitempty"`
	Role      Role        `json:"role"`
}

// Session is the caller's identity for one request. It is always passed
// explicitly; nothing below the HTTP layer reads tokens on its own.
type Session struct {
	Token  string
	UserId UserId
	Role   Role
}

func (s Session) Anonymous() bool {
	return s.Token == ""
}

// CanModify reports whether the session may edit or delete posts by author.
func (s Session) CanModify(author UserId) bool {
	if s.Anonymous() {
		return false
	}
	return s.UserId == author || s.Role == RoleAdministrator
}
