package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// MaxImagenBytes caps product image uploads.
const MaxImagenBytes = 5 << 20

var extensionesImagen = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true,
}

// Uploader stores a file remotely and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, filename string, r io.Reader) (string, error)
}

type ImagenService interface {
	Subir(ctx context.Context, filename string, size int64, r io.Reader) (string, error)
}

type imagenService struct {
	uploader Uploader
}

func NewImagenService(uploader Uploader) ImagenService {
	return &imagenService{uploader: uploader}
}

func (s *imagenService) Subir(ctx context.Context, filename string, size int64, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !extensionesImagen[ext] {
		return "", fmt.Errorf("%w: formato %q no soportado", ErrImagenInvalida, ext)
	}
	if size <= 0 || size > MaxImagenBytes {
		return "", fmt.Errorf("%w: tamaño máximo 5 MB", ErrImagenInvalida)
	}
	return s.uploader.Upload(ctx, filename, io.LimitReader(r, MaxImagenBytes))
}
