package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/princinho/natours/models"
	"github.com/princinho/natours/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const UsersCollection = "users"

var (
	ErrNotFound       = errors.New("user not found")
	ErrInvalidID      = errors.New("invalid user id")
	ErrDuplicateEmail = errors.New("email already in use")
)

// SaveOptions controls how a user document is written.
type SaveOptions struct {
	// Validate runs the model validators before writing. Writes that only
	// touch reset fields skip it.
	Validate bool
}

var validate = validator.New()

// ValidateUser runs the struct validators declared on models.User.
func ValidateUser(u *models.User) error {
	return validate.Struct(u)
}

// activeOnly hides soft-deleted accounts from every lookup.
func activeOnly(filter bson.M) bson.M {
	filter["active"] = bson.M{"$ne": false}
	return filter
}

// UserStore persists users in a mongo collection.
type UserStore struct {
	col *mongo.Collection
	now func() time.Time
}

func NewUserStore(col *mongo.Collection) *UserStore {
	return &UserStore{col: col, now: time.Now}
}

// EnsureIndexes creates the unique email index.
func (s *UserStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	if err != nil {
		return fmt.Errorf("create email index: %w", err)
	}
	return nil
}

func (s *UserStore) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	if err := s.col.FindOne(ctx, activeOnly(filter)).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": utils.NormalizeEmail(email)})
}

func (s *UserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

// FindByResetToken returns the user with a pending reset matching tokenHash
// that expires after now. Expired resets are never matched.
func (s *UserStore) FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error) {
	return s.findOne(ctx, bson.M{
		"passwordResetToken":   tokenHash,
		"passwordResetExpires": bson.M{"$gt": now.UTC()},
	})
}

func (s *UserStore) FindAll(ctx context.Context) ([]*models.User, error) {
	cursor, err := s.col.Find(ctx, activeOnly(bson.M{}), options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	users := make([]*models.User, 0)
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

// Create validates and inserts a new user, assigning its id and timestamps.
func (s *UserStore) Create(ctx context.Context, u *models.User) error {
	prepareNew(u, s.now())
	if err := ValidateUser(u); err != nil {
		return err
	}
	if _, err := s.col.InsertOne(ctx, u); err != nil {
		if utils.IsDuplicateKey(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateEmail, u.Email)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// Save replaces the stored document with u.
func (s *UserStore) Save(ctx context.Context, u *models.User, opts SaveOptions) error {
	u.Email = utils.NormalizeEmail(u.Email)
	if opts.Validate {
		if err := ValidateUser(u); err != nil {
			return err
		}
	}
	u.UpdatedAt = s.now().UTC()

	res, err := s.col.ReplaceOne(ctx, bson.M{"_id": u.ID}, u)
	if err != nil {
		if utils.IsDuplicateKey(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateEmail, u.Email)
		}
		return fmt.Errorf("save user: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func prepareNew(u *models.User, now time.Time) {
	now = now.UTC()
	if u.ID.IsZero() {
		u.ID = bson.NewObjectID()
	}
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	u.Email = utils.NormalizeEmail(u.Email)
	u.Active = true
	u.CreatedAt = now
	u.UpdatedAt = now
}
