package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/inventory-system/backoffice-api/internal/core/domain"
)

const usersCollection = "users"

// UserRepository implements ports.UserRepository on the users collection.
// Field names match the documents already written by the previous backend.
type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(usersCollection)}
}

type mongoUser struct {
	ID                  primitive.ObjectID  `bson:"_id,omitempty"`
	Username            string              `bson:"username"`
	Email               string              `bson:"email"`
	PasswordHash        string              `bson:"password"`
	Role                string              `bson:"role"`
	FirstName           string              `bson:"first_name,omitempty"`
	LastName            string              `bson:"last_name,omitempty"`
	IsActive            bool                `bson:"is_active"`
	LastLoginAt         *time.Time          `bson:"last_login_at,omitempty"`
	ActiveLocationID    *primitive.ObjectID `bson:"active_location_id"`
	ActiveLocationSetAt *time.Time          `bson:"active_location_set_at,omitempty"`
	CreatedAt           time.Time           `bson:"createdAt"`
	UpdatedAt           time.Time           `bson:"updatedAt"`
}

func toMongoUser(u *domain.User) mongoUser {
	doc := mongoUser{
		Username:            u.Username,
		Email:               domain.NormalizeEmail(u.Email),
		PasswordHash:        u.PasswordHash,
		Role:                string(u.Role),
		FirstName:           u.FirstName,
		LastName:            u.LastName,
		IsActive:            u.IsActive,
		LastLoginAt:         u.LastLoginAt,
		ActiveLocationSetAt: u.ActiveLocationSetAt,
		CreatedAt:           u.CreatedAt.UTC(),
		UpdatedAt:           u.UpdatedAt.UTC(),
	}
	if oid, err := primitive.ObjectIDFromHex(u.ActiveLocationID); err == nil {
		doc.ActiveLocationID = &oid
	}
	return doc
}

func (m mongoUser) toDomain() *domain.User {
	u := &domain.User{
		ID:                  m.ID.Hex(),
		Username:            m.Username,
		Email:               m.Email,
		PasswordHash:        m.PasswordHash,
		Role:                domain.Role(m.Role),
		FirstName:           m.FirstName,
		LastName:            m.LastName,
		IsActive:            m.IsActive,
		LastLoginAt:         m.LastLoginAt,
		ActiveLocationSetAt: m.ActiveLocationSetAt,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
	if !u.Role.Valid() {
		u.Role = domain.DefaultRole
	}
	if m.ActiveLocationID != nil {
		u.ActiveLocationID = m.ActiveLocationID.Hex()
	}
	return u
}

// Create inserts a user. A unique-index violation on email or username is
// reported as domain.ErrDuplicateIdentity.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := toMongoUser(user)
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicateIdentity
		}
		return nil, storeError("insert user", err)
	}

	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = oid
	}
	return doc.toDomain(), nil
}

// FindByEmail looks a user up by case-insensitive email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": domain.NormalizeEmail(email)})
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mu mongoUser
	if err := r.coll.FindOne(ctx, filter).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, storeError("find user", err)
	}
	return mu.toDomain(), nil
}

// UpdateLastLogin stamps last_login_at (and updatedAt) for the user.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"last_login_at": at.UTC(), "updatedAt": at.UTC()}},
	)
	if err != nil {
		return storeError("update last login", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// EnsureIndexes creates the unique indexes that back the one-record-per-email
// and one-record-per-username invariants.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}
