package handlers

import (
	"errors"
	"net/http"

	"mindtracker/internal/ai"
)

const (
	msgSaved          = "Entry saved successfully!"
	msgSaveFailed     = "Your entry could not be saved. It is kept for now and saving will be retried with your next entry."
	msgAIConfig       = "The AI service is unavailable. Check the API key configuration."
	msgAITransient    = "The AI service is temporarily unavailable. Please try again."
	msgAIService      = "The AI service returned an error. Please try again."
	msgNoHistory      = "No previous conversations recorded."
	msgNoChartData    = "No data available yet."
	msgMethodNotAllow = "Method not allowed."
	msgTooLarge       = "Entry is too long."
)

// maxRequestBody caps form and JSON bodies before they reach the generator.
const maxRequestBody = 64 << 10

func tooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

// generatorFailure maps a generator error to what the user sees and the HTTP status.
func generatorFailure(err error) (string, int) {
	switch ai.KindOf(err) {
	case ai.KindConfig:
		return msgAIConfig, http.StatusServiceUnavailable
	case ai.KindTransient:
		return msgAITransient, http.StatusServiceUnavailable
	default:
		return msgAIService, http.StatusBadGateway
	}
}
