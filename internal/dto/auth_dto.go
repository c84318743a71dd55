package dto

// AuthURLResponse is the answer of GET /auth/url.
type AuthURLResponse struct {
	URL   string `json:"url" validate:"required,url"`
	State string `json:"state,omitempty"`
}

// CallbackParams is the query the backend appends when it redirects the
// browser back to the client's callback route. Other parameters are ignored.
type CallbackParams struct {
	Session string `query:"session"`
	Error   string `query:"error"`
}
