// internal/app/features/registration/types.go
package registration

// signupRequest is the POST /signup body. Password arrives twice and must
// match before anything is persisted.
type signupRequest struct {
	FirstName            string `json:"firstName"`
	LastName             string `json:"lastName"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"passwordConfirmation"`
	ProfileImage         string `json:"profileImage,omitempty"`
	Bio                  string `json:"bio,omitempty"`
	UserType             string `json:"userType"`
	Division             string `json:"division"`
	AcademicLevel        string `json:"academicLevel,omitempty"`
	DegreeName           string `json:"degreeName,omitempty"`
}

// redirectResponse steers a client that is mid-verification to the
// verification screen. Served with 307 so clients treat it as a redirect.
type redirectResponse struct {
	RedirectPath string `json:"redirectPath"`
	Email        string `json:"email"`
}

type verifyEmailRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type requestResetRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token                string `json:"token"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"passwordConfirmation"`
}

// messageResponse is the generic success acknowledgement.
type messageResponse struct {
	Message string `json:"message"`
}

// resendResponse acknowledges a code send and tells the client when the next
// one may be requested.
type resendResponse struct {
	Message     string `json:"message"`
	AvailableAt string `json:"availableAt"`
}
