package suggestion

import (
	"context"
	"time"

	"github.com/vmaleev/bookreview/internal/models"
	"github.com/vmaleev/bookreview/internal/repository"
)

type SuggestionService struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *SuggestionService {
	return &SuggestionService{storage: storage}
}

func (s *SuggestionService) Suggest(ctx context.Context, arg repository.CreateSuggestionParams) (models.Suggestion, error) {
	return s.storage.Suggestion().CreateSuggestion(ctx, arg)
}

func (s *SuggestionService) ListMine(ctx context.Context, userID int64) ([]models.Suggestion, error) {
	return s.storage.Suggestion().ListByUser(ctx, userID)
}

func (s *SuggestionService) ListAll(ctx context.Context) ([]models.Suggestion, error) {
	return s.storage.Suggestion().ListAll(ctx)
}

// Approve resolves the suggestion and creates the suggested book, both in
// one transaction: an approved suggestion always has its book
func (s *SuggestionService) Approve(ctx context.Context, actorID int64, suggestionID int64) (models.Suggestion, models.Book, error) {
	var (
		resolved models.Suggestion
		created  models.Book
	)

	err := s.storage.InTx(ctx, func(store repository.Storage) error {
		var err error
		resolved, err = store.Suggestion().ResolveSuggestion(ctx, repository.ResolveSuggestionParams{
			SuggestionID: suggestionID,
			Status:       models.SuggestionStatusApproved,
			ResolvedBy:   actorID,
			ResolvedAt:   time.Now(),
		})
		if err != nil {
			return err
		}

		created, err = store.Book().CreateBook(ctx, repository.CreateBookParams{
			Title:       resolved.Title,
			Author:      resolved.Author,
			Description: resolved.Note,
		})
		if err != nil {
			return err
		}

		return store.Audit().Record(ctx, models.AuditEntry{
			ActorUserID: &actorID,
			Action:      models.AuditSuggestionApproved,
			EntityType:  "book_suggestion",
			EntityID:    &suggestionID,
			Metadata:    map[string]any{"book_id": created.ID},
		})
	})

	return resolved, created, err
}

func (s *SuggestionService) Reject(ctx context.Context, actorID int64, suggestionID int64) (models.Suggestion, error) {
	var resolved models.Suggestion

	err := s.storage.InTx(ctx, func(store repository.Storage) error {
		var err error
		resolved, err = store.Suggestion().ResolveSuggestion(ctx, repository.ResolveSuggestionParams{
			SuggestionID: suggestionID,
			Status:       models.SuggestionStatusRejected,
			ResolvedBy:   actorID,
			ResolvedAt:   time.Now(),
		})
		if err != nil {
			return err
		}

		return store.Audit().Record(ctx, models.AuditEntry{
			ActorUserID: &actorID,
			Action:      models.AuditSuggestionRejected,
			EntityType:  "book_suggestion",
			EntityID:    &suggestionID,
		})
	})

	return resolved, err
}
