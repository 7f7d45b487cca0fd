package book

import (
	"context"

	"github.com/vmaleev/bookreview/internal/models"
	"github.com/vmaleev/bookreview/internal/repository"
)

// CoverStore hands out upload destinations for cover images.
// Nil means uploads are not configured.
type CoverStore interface {
	// PresignCoverPut returns the object key and a short-lived URL the
	// client PUTs the image to
	PresignCoverPut(ctx context.Context, bookID int64, filename string) (key string, uploadURL string, publicURL string, err error)
}

type BookService struct {
	storage repository.Storage
	covers  CoverStore
}

func NewService(storage repository.Storage, covers CoverStore) *BookService {
	return &BookService{
		storage: storage,
		covers:  covers,
	}
}

func (s *BookService) CreateBook(ctx context.Context, arg repository.CreateBookParams) (models.Book, error) {
	return s.storage.Book().CreateBook(ctx, arg)
}

func (s *BookService) GetBook(ctx context.Context, id int64) (models.Book, error) {
	return s.storage.Book().GetBook(ctx, id)
}

func (s *BookService) ListBooks(ctx context.Context) ([]models.Book, error) {
	return s.storage.Book().ListBooks(ctx)
}

func (s *BookService) UpdateBook(ctx context.Context, id int64, arg repository.CreateBookParams) (models.Book, error) {
	return s.storage.Book().UpdateBook(ctx, id, arg)
}

func (s *BookService) DeleteBook(ctx context.Context, id int64) error {
	return s.storage.Book().DeleteBook(ctx, id)
}

// CoverUpload allocates an upload slot for the book cover and stores the
// resulting object location on the book row
func (s *BookService) CoverUpload(ctx context.Context, bookID int64, filename string) (string, error) {
	if s.covers == nil {
		return "", ErrUploadsDisabled
	}

	// 404 before presigning anything
	if _, err := s.storage.Book().GetBook(ctx, bookID); err != nil {
		return "", err
	}

	key, uploadURL, publicURL, err := s.covers.PresignCoverPut(ctx, bookID, filename)
	if err != nil {
		return "", err
	}

	if err := s.storage.Book().SetCover(ctx, bookID, key, publicURL); err != nil {
		return "", err
	}

	return uploadURL, nil
}
