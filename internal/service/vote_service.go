package service

import (
	"context"

	"namethatobject/internal/models"
	"namethatobject/internal/observability"
	"namethatobject/internal/repository"
)

// VoteService applies anonymous up and down votes to posts and comments.
// Votes are not recorded per user, so a user may vote any number of times.
type VoteService struct {
	tx repository.Transactor
}

func NewVoteService(tx repository.Transactor) *VoteService {
	return &VoteService{tx: tx}
}

// Vote increments one counter of the target and returns both counters as
// read back inside the same transaction.
func (s *VoteService) Vote(ctx context.Context, target models.VoteTarget, id uint, dir models.VoteDirection) (*models.VoteResult, error) {
	if dir != models.VoteUp && dir != models.VoteDown {
		return nil, models.NewValidationError("Invalid vote direction")
	}
	if target != models.VotePost && target != models.VoteComment {
		return nil, models.NewValidationError("Invalid vote target")
	}

	var result *models.VoteResult
	err := s.tx.InTx(ctx, func(r repository.Repos) error {
		var err error
		if target == models.VotePost {
			result, err = r.Posts.Vote(ctx, id, dir)
		} else {
			result, err = r.Comments.Vote(ctx, id, dir)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	observability.VotesTotal.WithLabelValues(string(target), string(dir)).Inc()
	return result, nil
}
