package dto

// AskRequest payload for the RAG proxy.
type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse carries the upstream answer.
type AskResponse struct {
	Answer string `json:"answer"`
}
