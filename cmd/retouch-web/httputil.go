package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/fpang/retouch-studio/internal/gemini"
	"github.com/fpang/retouch-studio/internal/i18n"
	"github.com/fpang/retouch-studio/internal/imaging"
	"github.com/fpang/retouch-studio/internal/wizard"
)

// maxRequestBytes bounds upload request bodies. It sits above
// imaging.MaxUploadBytes so oversized files reach validation and get the
// size-specific message.
const maxRequestBytes = 2 * imaging.MaxUploadBytes

// maxJSONBytes bounds JSON request bodies.
const maxJSONBytes = 64 << 10

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func httpError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondError writes err localized for the request, with a status derived
// from its type.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errBadRequest) {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	httpError(w, statusFor(err), wizard.Describe(err, i18n.FromContext(r.Context())))
}

func statusFor(err error) int {
	var vErr *imaging.ValidationError
	var pErr *gemini.ParameterError
	var opErr *gemini.RemoteOperationError
	switch {
	case errors.As(err, &vErr), errors.As(err, &pErr):
		return http.StatusBadRequest
	case errors.As(err, &opErr):
		return http.StatusBadGateway
	case errors.Is(err, wizard.ErrWrongStep),
		errors.Is(err, wizard.ErrBusy),
		errors.Is(err, wizard.ErrStale),
		errors.Is(err, wizard.ErrClosed):
		return http.StatusConflict
	case errors.Is(err, wizard.ErrHandleLimit):
		return http.StatusTooManyRequests
	case errors.Is(err, wizard.ErrNoImage),
		errors.Is(err, wizard.ErrNoReference),
		errors.Is(err, wizard.ErrEmptySelection),
		errors.Is(err, wizard.ErrNoEnhancedResult),
		errors.Is(err, wizard.ErrUnparsableResult),
		errors.Is(err, wizard.ErrUnreadableImage),
		errors.Is(err, wizard.ErrColorNotInPalette),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

var errBadRequest = errors.New("bad request")

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	return nil
}

// readUpload extracts the multipart "file" field. Size and type are checked
// later by imaging.Validate.
func readUpload(w http.ResponseWriter, r *http.Request) (imaging.Upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return imaging.Upload{}, &imaging.ValidationError{Reason: imaging.ReasonTooLarge, Size: tooBig.Limit}
		}
		return imaging.Upload{}, fmt.Errorf("%w: invalid multipart form: %v", errBadRequest, err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return imaging.Upload{}, wizard.ErrNoImage
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, imaging.MaxUploadBytes+1))
	if err != nil {
		return imaging.Upload{}, fmt.Errorf("%w: failed to read upload: %v", errBadRequest, err)
	}

	return imaging.Upload{
		Filename: header.Filename,
		MIMEType: header.Header.Get("Content-Type"),
		Data:     data,
	}, nil
}

// parseCount reads a palette size from a form value.
func parseCount(v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &gemini.ParameterError{Field: "count", Value: v}
	}
	return n, nil
}
