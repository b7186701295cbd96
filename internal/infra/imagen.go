package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// ImageUploader posts files to a Cloudinary-compatible unsigned upload endpoint.
type ImageUploader struct {
	uploadURL  string
	preset     string
	folder     string
	httpClient *http.Client
	cb         *CircuitBreaker
}

func NewImageUploader(uploadURL, preset, folder string, cb *CircuitBreaker) *ImageUploader {
	return &ImageUploader{
		uploadURL:  uploadURL,
		preset:     preset,
		folder:     folder,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cb:         cb,
	}
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// UploadError carries the provider's own message.
type UploadError struct {
	Status  int
	Message string
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("imagen: upload rechazado (%d): %s", e.Status, e.Message)
}

// Upload sends the file and returns its public URL.
func (u *ImageUploader) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("imagen: form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("imagen: copy: %w", err)
	}
	_ = mw.WriteField("upload_preset", u.preset)
	if u.folder != "" {
		_ = mw.WriteField("folder", u.folder)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("imagen: close form: %w", err)
	}

	var url string
	err = u.cb.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.uploadURL, bytes.NewReader(body.Bytes()))
		if err != nil {
			return fmt.Errorf("imagen: create request: %w", err)
		}
		req.Header.Set("Content-Type", mw.FormDataContentType())

		resp, err := u.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("imagen: provider unreachable: %w", err)
		}
		defer resp.Body.Close()

		var out uploadResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return fmt.Errorf("imagen: decode response: %w", err)
		}
		if resp.StatusCode != http.StatusOK || out.SecureURL == "" {
			msg := "respuesta sin secure_url"
			if out.Error != nil {
				msg = out.Error.Message
			}
			return &UploadError{Status: resp.StatusCode, Message: msg}
		}
		url = out.SecureURL
		return nil
	})
	return url, err
}
