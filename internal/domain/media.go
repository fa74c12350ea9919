package domain

import "context"

// MediaStore persists encoded images and hands back durable URLs.
type MediaStore interface {
	Store(ctx context.Context, encoded string) (string, error)
	Delete(ctx context.Context, url string) error
}
