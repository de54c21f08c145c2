package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/kailas-cloud/lostfound/internal/domain"
	"github.com/kailas-cloud/lostfound/internal/imagecodec"
)

const (
	// imageField is the multipart part carrying the photo.
	imageField = "image"
	// formOverhead is the body allowance for text fields and multipart framing.
	formOverhead = 1 << 20
	// multipartMemory is kept in memory before parts spill to temp files.
	multipartMemory = 32 << 20
	// maxJSONBody caps JSON request bodies.
	maxJSONBody = 1 << 20
)

// bodyError is a request body problem reported before any service call.
type bodyError struct {
	status int
	code   ErrorResponseCode
	msg    string
}

func (e *bodyError) Error() string { return e.msg }

// formFields maps multipart field names to setters on the request struct.
type formFields map[string]func(string)

func reportFormFields(req *ReportItemRequest) formFields {
	return formFields{
		"type":          func(v string) { req.Type = v },
		"title":         func(v string) { req.Title = v },
		"category":      func(v string) { req.Category = v },
		"description":   func(v string) { req.Description = v },
		"location":      func(v string) { req.Location = v },
		"building":      func(v string) { req.Building = v },
		"date":          func(v string) { req.Date = v },
		"contact_name":  func(v string) { req.ContactName = v },
		"contact_email": func(v string) { req.ContactEmail = v },
	}
}

func patchFormFields(req *PatchItemRequest) formFields {
	return formFields{
		"title":       func(v string) { req.Title = &v },
		"category":    func(v string) { req.Category = &v },
		"description": func(v string) { req.Description = &v },
		"location":    func(v string) { req.Location = &v },
		"building":    func(v string) { req.Building = &v },
		"date":        func(v string) { req.Date = &v },
	}
}

// decodeItemBody fills dst from a JSON body, or from a multipart form via fields.
// A multipart image part is returned as a blob; JSON bodies never carry one.
func (s *Server) decodeItemBody(
	w http.ResponseWriter, r *http.Request, dst any, fields formFields,
) (*imagecodec.Blob, error) {
	if !isMultipart(r) {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(dst); err != nil {
			return nil, &bodyError{
				status: http.StatusBadRequest,
				code:   ErrorResponseCodeBadRequest,
				msg:    "Invalid request body: " + err.Error(),
			}
		}
		return nil, nil
	}

	if err := s.parseMultipart(w, r); err != nil {
		return nil, err
	}
	for name, set := range fields {
		if vals, ok := r.MultipartForm.Value[name]; ok && len(vals) > 0 {
			set(vals[0])
		}
	}

	file, err := formFile(r)
	if err != nil || file == nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.maxImageBytes+1))
	if err != nil {
		return nil, domain.NewEncodingError(fmt.Errorf("read upload: %w", err))
	}
	if int64(len(data)) > s.maxImageBytes {
		return nil, s.tooLarge()
	}
	return &imagecodec.Blob{Data: data, ContentType: imagecodec.Sniff(data)}, nil
}

// openUpload returns the image part of a multipart request, or nil when absent.
func (s *Server) openUpload(w http.ResponseWriter, r *http.Request) (multipart.File, error) {
	if !isMultipart(r) {
		return nil, &bodyError{
			status: http.StatusBadRequest,
			code:   ErrorResponseCodeBadRequest,
			msg:    "expected multipart/form-data with an image part",
		}
	}
	if err := s.parseMultipart(w, r); err != nil {
		return nil, err
	}
	return formFile(r)
}

func (s *Server) parseMultipart(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxImageBytes+formOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return s.tooLarge()
		}
		return &bodyError{
			status: http.StatusBadRequest,
			code:   ErrorResponseCodeBadRequest,
			msg:    "invalid multipart form: " + err.Error(),
		}
	}
	return nil
}

func (s *Server) tooLarge() error {
	return &bodyError{
		status: http.StatusRequestEntityTooLarge,
		code:   ErrorResponseCodeValidationFailed,
		msg:    fmt.Sprintf("image exceeds %d bytes", s.maxImageBytes),
	}
}

func (s *Server) writeBodyError(w http.ResponseWriter, err error) {
	var be *bodyError
	if errors.As(err, &be) {
		writeError(w, be.status, be.code, be.msg)
		return
	}
	s.handleDomainError(w, err)
}

func formFile(r *http.Request) (multipart.File, error) {
	file, _, err := r.FormFile(imageField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, &bodyError{
			status: http.StatusBadRequest,
			code:   ErrorResponseCodeBadRequest,
			msg:    "invalid image part: " + err.Error(),
		}
	}
	return file, nil
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

// validationMessage trims wrapping context so the message starts at the validation failure.
func validationMessage(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, domain.ErrInvalidInput.Error()); i > 0 {
		return msg[i:]
	}
	return msg
}
