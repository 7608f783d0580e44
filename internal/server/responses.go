package server

// envelope is the JSON body of every non-streaming response.
type envelope struct {
	Payload any    `json:"payload"`
	Message string `json:"message"`
	Success bool   `json:"success"`
}

func success(payload any, message string) envelope {
	return envelope{Payload: payload, Message: message, Success: true}
}

func failure(message string) envelope {
	return envelope{Payload: nil, Message: message, Success: false}
}

type chatRequest struct {
	Query string `json:"query"`
}

type healthResponse struct {
	Message string `json:"message"`
	Date    string `json:"date"`
}
