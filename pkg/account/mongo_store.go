package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// CollectionName is the MongoDB collection holding account documents.
const CollectionName = "users"

// MongoStore implements Registry on MongoDB. Uniqueness is enforced among
// verified accounts only, through partial unique indexes on email and
// phone: concurrent unverified registrations for the same identifier stay
// unindexed and are reconciled at verification time, and a second
// promotion for an already-claimed identifier fails atomically at the
// index no matter how the registration and promotion interleave.
//
// MarkVerified promotes via a conditional update on the unverified state.
// If the sweeper deleted the document first, the update matches nothing and
// the caller observes ErrNotFound rather than partial state.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore creates a registry backed by the given database, ensuring
// the indexes that guard verified-identity uniqueness.
func NewMongoStore(ctx context.Context, db *mongo.Database) (*MongoStore, error) {
	coll := db.Collection(CollectionName)

	partialUnique := func(field string) mongo.IndexModel {
		return mongo.IndexModel{
			Keys: bson.D{{Key: field, Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"account_verified": true}),
		}
	}
	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		partialUnique("email"),
		partialUnique("phone"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to ensure account indexes: %w", err)
	}

	return &MongoStore{coll: coll}, nil
}

// accountDoc is the persisted shape of an Account.
type accountDoc struct {
	ID      string `bson:"_id"`
	Name    string `bson:"name"`
	Email   string `bson:"email"`
	Phone   string `bson:"phone"`
	Address string `bson:"address"`
	Role    string `bson:"role"`

	FirstNiche  string `bson:"first_niche,omitempty"`
	SecondNiche string `bson:"second_niche,omitempty"`
	ThirdNiche  string `bson:"third_niche,omitempty"`
	CoverLetter string `bson:"cover_letter,omitempty"`

	ResumePublicID string `bson:"resume_public_id,omitempty"`
	ResumeURL      string `bson:"resume_url,omitempty"`

	PasswordHash []byte `bson:"password_hash"`

	Verified                  bool       `bson:"account_verified"`
	VerificationCode          *int       `bson:"verification_code,omitempty"`
	VerificationCodeExpiresAt *time.Time `bson:"verification_code_expires_at,omitempty"`

	ResetPasswordTokenHash *string    `bson:"reset_password_token_hash,omitempty"`
	ResetPasswordExpiresAt *time.Time `bson:"reset_password_expires_at,omitempty"`

	CreatedAt time.Time `bson:"created_at"`
}

func toDoc(a *Account) *accountDoc {
	return &accountDoc{
		ID:                        a.ID.String(),
		Name:                      a.Name,
		Email:                     a.Email,
		Phone:                     a.Phone,
		Address:                   a.Address,
		Role:                      string(a.Role),
		FirstNiche:                a.Niches.First,
		SecondNiche:               a.Niches.Second,
		ThirdNiche:                a.Niches.Third,
		CoverLetter:               a.CoverLetter,
		ResumePublicID:            a.Resume.PublicID,
		ResumeURL:                 a.Resume.URL,
		PasswordHash:              a.PasswordHash,
		Verified:                  a.Verified,
		VerificationCode:          a.VerificationCode,
		VerificationCodeExpiresAt: a.VerificationCodeExpiresAt,
		ResetPasswordTokenHash:    a.ResetPasswordTokenHash,
		ResetPasswordExpiresAt:    a.ResetPasswordExpiresAt,
		CreatedAt:                 a.CreatedAt,
	}
}

func (d *accountDoc) toAccount() (*Account, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("malformed account id %q: %w", d.ID, err)
	}
	return &Account{
		ID:      id,
		Name:    d.Name,
		Email:   d.Email,
		Phone:   d.Phone,
		Address: d.Address,
		Role:    Role(d.Role),
		Niches: Niches{
			First:  d.FirstNiche,
			Second: d.SecondNiche,
			Third:  d.ThirdNiche,
		},
		CoverLetter:               d.CoverLetter,
		Resume:                    Resume{PublicID: d.ResumePublicID, URL: d.ResumeURL},
		PasswordHash:              d.PasswordHash,
		Verified:                  d.Verified,
		VerificationCode:          d.VerificationCode,
		VerificationCodeExpiresAt: d.VerificationCodeExpiresAt,
		ResetPasswordTokenHash:    d.ResetPasswordTokenHash,
		ResetPasswordExpiresAt:    d.ResetPasswordExpiresAt,
		CreatedAt:                 d.CreatedAt,
	}, nil
}

func (s *MongoStore) CreateUnverified(ctx context.Context, a *Account) error {
	// Fast pre-check for the common case. The partial unique indexes remain
	// the authoritative guard: an insert racing a promotion still cannot
	// yield a second verified owner, because its own promotion will fail.
	count, err := s.coll.CountDocuments(ctx, bson.M{
		"account_verified": true,
		"$or": bson.A{
			bson.M{"email": a.Email},
			bson.M{"phone": a.Phone},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to check existing identity: %w", err)
	}
	if count > 0 {
		return ErrDuplicateIdentity
	}

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	a.Verified = false

	if _, err := s.coll.InsertOne(ctx, toDoc(a)); err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

func (s *MongoStore) FindLatestUnverifiedByEmail(ctx context.Context, email string) (*Account, error) {
	return s.findOne(ctx,
		bson.M{"email": email, "account_verified": false},
		options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
}

func (s *MongoStore) MarkVerified(ctx context.Context, id uuid.UUID) error {
	// Conditional on the unverified state: a document the sweeper already
	// removed (or a concurrent promotion) matches nothing.
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id.String(), "account_verified": false},
		bson.M{
			"$set":   bson.M{"account_verified": true},
			"$unset": bson.M{"verification_code": "", "verification_code_expires_at": ""},
		},
	)
	if err != nil {
		// The partial unique index rejects the flip when another verified
		// account already owns the email or phone.
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateIdentity
		}
		return fmt.Errorf("failed to promote account: %w", err)
	}
	if res.MatchedCount == 0 {
		// Idempotent when the account is already verified.
		a, err := s.FindByID(ctx, id)
		if err != nil {
			return ErrNotFound
		}
		if a.Verified {
			return nil
		}
		return ErrNotFound
	}

	a, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if _, err := s.coll.DeleteMany(ctx, bson.M{
		"_id":              bson.M{"$ne": id.String()},
		"email":            a.Email,
		"account_verified": false,
	}); err != nil {
		return fmt.Errorf("failed to remove duplicate registrations: %w", err)
	}
	return nil
}

func (s *MongoStore) FindByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	return s.findOne(ctx, bson.M{"_id": id.String()})
}

func (s *MongoStore) FindVerifiedByEmail(ctx context.Context, email string) (*Account, error) {
	return s.findOne(ctx, bson.M{"email": email, "account_verified": true})
}

func (s *MongoStore) SetVerificationCode(ctx context.Context, id uuid.UUID, code int, expiresAt time.Time) error {
	return s.updateByID(ctx, id, bson.M{
		"$set": bson.M{
			"verification_code":            code,
			"verification_code_expires_at": expiresAt,
		},
	})
}

func (s *MongoStore) GetPasswordHash(ctx context.Context, id uuid.UUID) ([]byte, error) {
	a, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return a.PasswordHash, nil
}

func (s *MongoStore) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash []byte) error {
	return s.updateByID(ctx, id, bson.M{"$set": bson.M{"password_hash": hash}})
}

func (s *MongoStore) SetResetToken(ctx context.Context, id uuid.UUID, tokenHash string, expiresAt time.Time) error {
	return s.updateByID(ctx, id, bson.M{
		"$set": bson.M{
			"reset_password_token_hash": tokenHash,
			"reset_password_expires_at": expiresAt,
		},
	})
}

func (s *MongoStore) ClearResetToken(ctx context.Context, id uuid.UUID) error {
	return s.updateByID(ctx, id, bson.M{
		"$unset": bson.M{
			"reset_password_token_hash": "",
			"reset_password_expires_at": "",
		},
	})
}

func (s *MongoStore) FindByResetTokenHash(ctx context.Context, tokenHash string, now time.Time) (*Account, error) {
	return s.findOne(ctx, bson.M{
		"reset_password_token_hash": tokenHash,
		"reset_password_expires_at": bson.M{"$gt": now},
		"account_verified":          true,
	})
}

func (s *MongoStore) DeleteStaleUnverified(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{
		"account_verified": false,
		"created_at":       bson.M{"$lt": olderThan},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale registrations: %w", err)
	}
	return res.DeletedCount, nil
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M, opts ...options.Lister[options.FindOneOptions]) (*Account, error) {
	var doc accountDoc
	if err := s.coll.FindOne(ctx, filter, opts...).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query account: %w", err)
	}
	return doc.toAccount()
}

func (s *MongoStore) updateByID(ctx context.Context, id uuid.UUID, update bson.M) error {
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id.String()}, update)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Compile-time interface assertion
var _ Registry = (*MongoStore)(nil)
