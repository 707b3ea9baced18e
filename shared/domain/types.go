package domain

type (
	UserId = int64
	PostId = int64

	Username = string
	Role     = string

	// ResourceRef identifies a binary asset on the remote file service.
	ResourceRef = string
)

// RoleAdministrator may modify any post.
const RoleAdministrator Role = "ADMINISTRATOR"
