package lib

import (
	"context"
	"errors"
	"fmt"
	"konspektbot/m/v2/app/config"
	"konspektbot/m/v2/app/db/mongo"
	"konspektbot/m/v2/app/models"

	log "github.com/sirupsen/logrus"
)

// LoadOrCreateUser returns the stored user, registering a new one with
// default fields on first contact. Caller must hold the user's lock.
func LoadOrCreateUser(ctx context.Context, store mongo.MongoClient, userID string, username string) (*models.MongoUser, error) {
	user, err := store.GetUser(ctx, userID)
	if err == nil {
		if username != "" && user.Username != username {
			user.Username = username
		}
		return user, nil
	}
	if !errors.Is(err, mongo.ErrNotFound) {
		return nil, fmt.Errorf("LoadOrCreateUser: %w", err)
	}

	log.Infof("LoadOrCreateUser: registering new user %s (@%s)", userID, username)
	user = models.NewMongoUser(userID, username)
	if err := store.PutUser(ctx, user); err != nil {
		return nil, fmt.Errorf("LoadOrCreateUser: put new user %s: %w", userID, err)
	}
	config.CONFIG.DataDogClient.Incr("new_user", nil, 1)
	return user, nil
}
