package invite

import (
	"casehub-auth-svc/src/clients"
	"casehub-auth-svc/src/internal/models"
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	Insert(ctx context.Context, invite *Invite) error
	Consume(ctx context.Context, token string) (*Invite, error)
}

type inviteRepository struct {
	collection *mongo.Collection
}

func NewInviteRepository(mongoClient *clients.MongoDB, collectionName string) Repository {
	collection := mongoClient.Database.Collection(collectionName)
	return &inviteRepository{collection: collection}
}

func (r *inviteRepository) Insert(ctx context.Context, invite *Invite) error {
	_, err := r.collection.InsertOne(ctx, invite)
	if err != nil {
		logrus.WithError(err).WithField("email", invite.Email).Error("Failed to insert invite")
		return models.ErrDatabaseInsert
	}
	return nil
}

// Consume marks a live token consumed and returns it. The filter guards
// on consumed:false and an unexpired window, and the document update is
// atomic, so exactly one caller ever wins a given token. Unknown,
// expired, and already-consumed all come back nil alike.
func (r *inviteRepository) Consume(ctx context.Context, token string) (*Invite, error) {
	now := time.Now().UTC()

	filter := bson.M{
		"_id":        token,
		"consumed":   false,
		"expires_at": bson.M{"$gt": now},
	}
	update := bson.M{
		"$set": bson.M{
			"consumed":    true,
			"consumed_at": now,
		},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var invite Invite
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&invite)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		logrus.WithError(err).Error("Failed to consume invite")
		return nil, models.ErrDatabaseUpdate
	}
	return &invite, nil
}
