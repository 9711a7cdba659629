package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/AnshRaj112/pixora-backend/internal/apperror"
	"github.com/AnshRaj112/pixora-backend/internal/middleware"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	requestTimeout = 5 * time.Second
	uploadTimeout  = 30 * time.Second

	maxJSONBody   = 1 << 20
	maxUploadSize = 10 << 20
)

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperror.Validation("Request body is required")
		}
		return apperror.Validation("Invalid request body")
	}
	return nil
}

func idParam(r *http.Request, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		return primitive.NilObjectID, apperror.Validation("Invalid id")
	}
	return id, nil
}

func caller(r *http.Request) (*middleware.Principal, error) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		return nil, apperror.Auth("You are not logged in. Please log in to access")
	}
	return p, nil
}

// imageFile returns the uploaded image under field, or nil when the field is
// absent. Non-image uploads are rejected.
func imageFile(r *http.Request, field string) (multipart.File, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.Validation("Invalid upload")
	}
	if ct := header.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		file.Close()
		return nil, apperror.Validation("Only image uploads are allowed")
	}
	return file, nil
}

func parseMultipart(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return apperror.Validation("Invalid multipart form or file too large")
	}
	return nil
}
