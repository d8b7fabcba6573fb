// internal/app/features/groups/types.go
package groups

// createGroupRequest is the POST /groups body.
type createGroupRequest struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	GroupImage    string `json:"groupImage"`
	GroupColor    string `json:"groupColor"`
	ExternalLink  string `json:"externalLink"`
	Accessibility string `json:"accessibility"` // public | private, defaults to public
	WhoCanPublish string `json:"whoCanPublish"` // everyone | admins, defaults to everyone
}

// patchGroupRequest is the PATCH /groups/{id} body. Absent fields are left
// untouched.
type patchGroupRequest struct {
	Name         *string `json:"name"`
	Description  *string `json:"description"`
	GroupImage   *string `json:"groupImage"`
	GroupColor   *string `json:"groupColor"`
	ExternalLink *string `json:"externalLink"`
}

// targetRequest carries the user a membership action applies to.
type targetRequest struct {
	UserID string `json:"userId"`
}

// joinResponse reports the role granted by a join.
type joinResponse struct {
	Role string `json:"role"`
}

// userSummary is the member-listing projection of a user.
type userSummary struct {
	ID           string `json:"id"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	ProfileImage string `json:"profileImage,omitempty"`
	UserType     string `json:"userType"`
	Division     string `json:"division"`
}

type messageResponse struct {
	Message string `json:"message"`
}
