package models

import "fmt"

// AppError is a domain error with a stable code. Infra layers wrap causes
// with %w; the API maps StatusCode straight to the response.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// Is makes errors.Is match any AppError carrying the same code, so wrapped
// instances created via WithError compare equal to the sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

var (
	// ErrImageDecode: the image bytes cannot be decoded. Non-retryable.
	ErrImageDecode = &AppError{
		Code:       "IMAGE_DECODE_FAILED",
		Message:    "Image could not be decoded",
		StatusCode: 422,
	}

	// ErrStorageRetrieval: object storage did not return the photo. Transient.
	ErrStorageRetrieval = &AppError{
		Code:       "STORAGE_RETRIEVAL_FAILED",
		Message:    "Photo could not be retrieved from storage",
		StatusCode: 502,
	}

	// ErrMatchQuery: the vector index is unavailable. Transient.
	ErrMatchQuery = &AppError{
		Code:       "MATCH_QUERY_FAILED",
		Message:    "Similarity search is unavailable",
		StatusCode: 502,
	}

	// ErrConflict: a uniqueness constraint rejected the write.
	ErrConflict = &AppError{
		Code:       "CONFLICT",
		Message:    "The record conflicts with existing state",
		StatusCode: 409,
	}

	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "Resource not found",
		StatusCode: 404,
	}

	ErrPersonNotFound = &AppError{
		Code:       "PERSON_NOT_FOUND",
		Message:    "Person not found",
		StatusCode: 404,
	}

	ErrFaceNotFound = &AppError{
		Code:       "FACE_NOT_FOUND",
		Message:    "Face not found",
		StatusCode: 404,
	}

	ErrAnalysisNotFound = &AppError{
		Code:       "ANALYSIS_NOT_FOUND",
		Message:    "Analysis not found",
		StatusCode: 404,
	}

	// ErrCrossOwner: an operation tried to bind records of different owners.
	ErrCrossOwner = &AppError{
		Code:       "CROSS_OWNER",
		Message:    "Face and person belong to different owners",
		StatusCode: 403,
	}
)
