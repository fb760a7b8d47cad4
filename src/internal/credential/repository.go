package credential

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
	Insert(ctx context.Context, user *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	SetPasswordAndActivate(ctx context.Context, userID, digest string) (*User, error)
	Update(ctx context.Context, id string, set bson.M) (*User, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type userRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(mongoClient *clients.MongoDB, collectionName string) Repository {
	collection := mongoClient.Database.Collection(collectionName)
	repository := &userRepository{collection: collection}
	repository.ensureIndexes()
	return repository
}

// ensureIndexes installs the unique email index the duplicate-email
// invariant rests on. Emails are stored lowercased, so a plain unique
// index is enough. Insert relies on this index to surface concurrent
// duplicates as ErrDuplicateEmail.
func (r *userRepository) ensureIndexes() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create unique email index")
	}
}

func (r *userRepository) Insert(ctx context.Context, user *User) error {
	_, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrDuplicateEmail
		}
		logrus.WithError(err).WithField("email", user.Email).Error("Failed to insert user")
		return models.ErrDatabaseInsert
	}
	return nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *userRepository) findOne(ctx context.Context, filter bson.M) (*User, error) {
	var user User
	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil // Not an error, just not found
		}
		logrus.WithError(err).Error("Failed to find user")
		return nil, models.ErrDatabaseQuery
	}
	return &user, nil
}

// SetPasswordAndActivate flips a pending account to active and installs
// its digest in one document update, so the two can never be observed
// apart. A nil result means no pending account matched.
func (r *userRepository) SetPasswordAndActivate(ctx context.Context, userID, digest string) (*User, error) {
	filter := bson.M{
		"_id":    userID,
		"status": StatusPending,
	}
	update := bson.M{
		"$set": bson.M{
			"password_digest": digest,
			"status":          StatusActive,
			"updated_at":      time.Now().UTC(),
		},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user User
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to activate user")
		return nil, models.ErrDatabaseUpdate
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, id string, set bson.M) (*User, error) {
	set["updated_at"] = time.Now().UTC()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user User
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		logrus.WithError(err).WithField("user_id", id).Error("Failed to update user")
		return nil, models.ErrDatabaseUpdate
	}
	return &user, nil
}

func (r *userRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"status": status})
	if err != nil {
		logrus.WithError(err).Error("Failed to count users")
		return 0, models.ErrDatabaseQuery
	}
	return count, nil
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		logrus.WithError(err).Error("Failed to count users")
		return 0, models.ErrDatabaseQuery
	}
	return count, nil
}
