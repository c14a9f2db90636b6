// Package handlers implements the REST surface. Handlers run behind the
// authentication gate and read the requester identity it propagates;
// authorization beyond "authenticated" is a self-or-admin check against the
// people store.
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"dinnerd/internal/infrastructure/persistence/models"
	"dinnerd/internal/infrastructure/repository"
	apperrors "dinnerd/internal/shared/errors"
	"dinnerd/internal/shared/utils"
)

// requester loads the authenticated principal behind the request.
func requester(ctx context.Context, c *gin.Context, people repository.PersonRepository) (*models.PersonModel, error) {
	id := utils.RequesterID(c)
	if id == 0 {
		return nil, apperrors.NewUnauthorizedError("no requester identity")
	}

	person, err := people.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if person == nil {
		return nil, apperrors.NewUnauthorizedError("requester unknown")
	}
	return person, nil
}

// requireSelfOrAdmin loads the requester and verifies they are the given
// person or an administrator.
func requireSelfOrAdmin(ctx context.Context, c *gin.Context, people repository.PersonRepository, personID uint) (*models.PersonModel, error) {
	actor, err := requester(ctx, c, people)
	if err != nil {
		return nil, err
	}
	if actor.ID != personID && actor.Group != models.GroupAdmin {
		return nil, apperrors.NewForbiddenError("not the owner and not an administrator")
	}
	return actor, nil
}

// isAuthorOrAdmin reports whether the actor owns the resource or is an
// administrator. A nil author means the resource is unowned and only admins
// may mutate it.
func isAuthorOrAdmin(actor *models.PersonModel, authorID *uint) bool {
	if actor.Group == models.GroupAdmin {
		return true
	}
	return authorID != nil && *authorID == actor.ID
}
