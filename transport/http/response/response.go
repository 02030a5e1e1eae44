package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"nibog/shared/constant"
	"nibog/shared/failure"
	"nibog/shared/logger"
	"strconv"
)

const internalErrorMessage = "internal server error"

type Data[T any] struct {
	Data *T `json:"data,omitempty"`
}

type Error struct {
	Error *string `json:"error,omitempty"`
}

type Message struct {
	Message *string `json:"message,omitempty"`
}

// WithMessage sends a response with a simple text message
func WithMessage(writer http.ResponseWriter, code int, message string) {
	write(writer, code, Message{Message: &message})
}

// WithJSON wraps payload in a data envelope.
func WithJSON(writer http.ResponseWriter, code int, payload any) {
	write(writer, code, Data[any]{Data: &payload})
}

// WithPartial reports a response assembled from some, not all, of its upstream sources.
func WithPartial(writer http.ResponseWriter, payload any) {
	WithJSON(writer, http.StatusMultiStatus, payload)
}

// WithError maps err to its failure code. Errors that are not a failure.Failure are
// reported as a generic 500 so driver and upstream details stay in the logs.
func WithError(writer http.ResponseWriter, err error) {
	message := internalErrorMessage

	var fail *failure.Failure
	if errors.As(err, &fail) {
		message = fail.Message
	}

	write(writer, failure.GetCode(err), Error{Error: &message})
}

// WithRequestLimitExceeded answers 429 and tells the client when the window reopens.
func WithRequestLimitExceeded(writer http.ResponseWriter, retryAfterSeconds int) {
	if retryAfterSeconds > 0 {
		writer.Header().Set(constant.ResponseHeaderRetryAfter, strconv.Itoa(retryAfterSeconds))
	}

	WithMessage(writer, http.StatusTooManyRequests, constant.ResponseErrorRequestLimitExceeded)
}

func WithPreparingShutdown(writer http.ResponseWriter) {
	WithMessage(writer, http.StatusServiceUnavailable, constant.ResponseErrorPrepareShutdown)
}

func WithUnhealthy(writer http.ResponseWriter) {
	WithMessage(writer, http.StatusServiceUnavailable, constant.ResponseErrorUnhealthy)
}

func write(writer http.ResponseWriter, code int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		logger.ErrorWithStack(err)
		http.Error(writer, internalErrorMessage, http.StatusInternalServerError)

		return
	}

	writer.Header().Set(constant.RequestHeaderContentType, constant.ContentTypeJSON)
	writer.WriteHeader(code)

	if _, err = writer.Write(body); err != nil {
		logger.ErrorWithStack(err)
	}
}
