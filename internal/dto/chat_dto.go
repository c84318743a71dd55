package dto

// ChatRequest is the body of POST /agent/chat.
type ChatRequest struct {
	SessionID string `json:"session_id" validate:"required"`
	Message   string `json:"message" validate:"required"`
}

type ChatResponse struct {
	Reply string `json:"reply"`
}
