package mongo

import (
	"context"
	"strings"
	"time"

	"github.com/samber/oops"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/enewspaper/newsroom/internal/core/domain"
	"github.com/enewspaper/newsroom/internal/core/ports"
)

const (
	accountCollection = "authors"

	indexUsername = "uniq_username"
	indexEmail    = "uniq_email"
)

type AccountRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{
		coll: db.Collection(accountCollection),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

type accountDoc struct {
	ID                primitive.ObjectID  `bson:"_id,omitempty"`
	Username          string              `bson:"username"`
	Email             string              `bson:"email"`
	PasswordHash      string              `bson:"password_hash"`
	Role              string              `bson:"role"`
	Status            string              `bson:"status"`
	Tokens            map[string]tokenDoc `bson:"tokens,omitempty"`
	RememberTokenHash string              `bson:"remember_token_hash,omitempty"`
	CreatedAt         time.Time           `bson:"created_at"`
	UpdatedAt         time.Time           `bson:"updated_at"`
}

type tokenDoc struct {
	Hash       string     `bson:"hash"`
	ExpiresAt  time.Time  `bson:"expires_at"`
	ConsumedAt *time.Time `bson:"consumed_at"`
	CreatedAt  time.Time  `bson:"created_at"`
}

func toAccountDoc(a *domain.Account) accountDoc {
	doc := accountDoc{
		Username:          a.Username,
		Email:             a.Email,
		PasswordHash:      a.PasswordHash,
		Role:              a.Role,
		Status:            string(a.Status),
		RememberTokenHash: a.RememberTokenHash,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
	if len(a.Tokens) > 0 {
		doc.Tokens = make(map[string]tokenDoc, len(a.Tokens))
		for purpose, t := range a.Tokens {
			doc.Tokens[string(purpose)] = toTokenDoc(t)
		}
	}
	return doc
}

func toTokenDoc(t domain.Token) tokenDoc {
	return tokenDoc{Hash: t.Hash, ExpiresAt: t.ExpiresAt, ConsumedAt: t.ConsumedAt, CreatedAt: t.CreatedAt}
}

func (d accountDoc) toDomain() *domain.Account {
	a := &domain.Account{
		ID:                d.ID.Hex(),
		Username:          d.Username,
		Email:             d.Email,
		PasswordHash:      d.PasswordHash,
		Role:              d.Role,
		Status:            domain.AccountStatus(d.Status),
		RememberTokenHash: d.RememberTokenHash,
		CreatedAt:         d.CreatedAt.UTC(),
		UpdatedAt:         d.UpdatedAt.UTC(),
	}
	if len(d.Tokens) > 0 {
		a.Tokens = make(map[domain.TokenPurpose]domain.Token, len(d.Tokens))
		for purpose, t := range d.Tokens {
			a.Tokens[domain.TokenPurpose(purpose)] = domain.Token{
				Hash:       t.Hash,
				Purpose:    domain.TokenPurpose(purpose),
				ExpiresAt:  t.ExpiresAt.UTC(),
				ConsumedAt: t.ConsumedAt,
				CreatedAt:  t.CreatedAt.UTC(),
			}
		}
	}
	return a
}

func tokenField(purpose domain.TokenPurpose, field string) string {
	return "tokens." + string(purpose) + "." + field
}

// Create inserts a new account. Unique index violations are mapped to the
// field they belong to.
func (r *AccountRepository) Create(ctx context.Context, a *domain.Account) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := toAccountDoc(a)
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, duplicateAccountField(err)
		}
		return nil, oops.With("operation", "insert account").Wrap(err)
	}

	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = oid
	}
	return doc.toDomain(), nil
}

func duplicateAccountField(err error) error {
	if strings.Contains(err.Error(), indexEmail) {
		return domain.ErrDuplicateEmail
	}
	if strings.Contains(err.Error(), indexUsername) {
		return domain.ErrDuplicateUsername
	}
	return domain.ErrDuplicateKey
}

func (r *AccountRepository) findOne(ctx context.Context, filter bson.M) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc accountDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, oops.With("operation", "find account").Wrap(err)
	}
	return doc.toDomain(), nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	oid, err := objectID(id, domain.ErrAccountNotFound)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *AccountRepository) FindByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *AccountRepository) FindByTokenHash(ctx context.Context, purpose domain.TokenPurpose, hash string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{tokenField(purpose, "hash"): hash})
}

func (r *AccountRepository) FindByRememberTokenHash(ctx context.Context, hash string) (*domain.Account, error) {
	if hash == "" {
		return nil, domain.ErrAccountNotFound
	}
	return r.findOne(ctx, bson.M{"remember_token_hash": hash})
}

// List returns accounts matching filter, newest first.
func (r *AccountRepository) List(ctx context.Context, f ports.AccountFilter) ([]*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if f.Role != "" {
		filter["role"] = f.Role
	}
	if f.Status != "" {
		filter["status"] = string(f.Status)
	}

	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, oops.With("operation", "list accounts").Wrap(err)
	}
	defer cur.Close(ctx)

	var docs []accountDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, oops.With("operation", "decode accounts").Wrap(err)
	}
	out := make([]*domain.Account, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

// SetToken overwrites the slot for t.Purpose.
func (r *AccountRepository) SetToken(ctx context.Context, id string, t domain.Token) error {
	return r.updateByID(ctx, id, "set token", bson.M{"$set": bson.M{
		"tokens." + string(t.Purpose): toTokenDoc(t),
	}})
}

// ConsumeToken sets consumed_at only while it is still null, so concurrent
// consumers cannot both succeed.
func (r *AccountRepository) ConsumeToken(ctx context.Context, id string, purpose domain.TokenPurpose, hash string, at time.Time) (bool, error) {
	oid, err := objectID(id, domain.ErrAccountNotFound)
	if err != nil {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"_id":                              oid,
		tokenField(purpose, "hash"):        hash,
		tokenField(purpose, "consumed_at"): nil,
	}
	update := bson.M{"$set": bson.M{
		tokenField(purpose, "consumed_at"): at,
		"updated_at":                       r.now(),
	}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, oops.With("operation", "consume token").With("purpose", purpose).Wrap(err)
	}
	return res.ModifiedCount == 1, nil
}

func (r *AccountRepository) UpdateStatus(ctx context.Context, id string, status domain.AccountStatus) error {
	return r.updateByID(ctx, id, "update status", bson.M{"$set": bson.M{"status": string(status)}})
}

// TransitionStatus is a compare-and-set on the status field.
func (r *AccountRepository) TransitionStatus(ctx context.Context, id string, from, to domain.AccountStatus) error {
	oid, err := objectID(id, domain.ErrAccountNotFound)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": oid, "status": string(from)},
		bson.M{"$set": bson.M{"status": string(to), "updated_at": r.now()}},
	)
	if err != nil {
		return oops.With("operation", "transition status").With("account_id", id).Wrap(err)
	}
	if res.MatchedCount == 1 {
		return nil
	}

	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return oops.With("operation", "count account").With("account_id", id).Wrap(err)
	}
	if n == 0 {
		return domain.ErrAccountNotFound
	}
	return domain.ErrInvalidTransition
}

func (r *AccountRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.updateByID(ctx, id, "update password", bson.M{"$set": bson.M{"password_hash": passwordHash}})
}

func (r *AccountRepository) SetRememberToken(ctx context.Context, id, hash string) error {
	if hash == "" {
		return r.updateByID(ctx, id, "clear remember token", bson.M{"$unset": bson.M{"remember_token_hash": ""}})
	}
	return r.updateByID(ctx, id, "set remember token", bson.M{"$set": bson.M{"remember_token_hash": hash}})
}

// updateByID applies update and stamps updated_at.
func (r *AccountRepository) updateByID(ctx context.Context, id, operation string, update bson.M) error {
	oid, err := objectID(id, domain.ErrAccountNotFound)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set, _ := update["$set"].(bson.M)
	if set == nil {
		set = bson.M{}
		update["$set"] = set
	}
	set["updated_at"] = r.now()

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return oops.With("operation", operation).With("account_id", id).Wrap(err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// EnsureIndexes creates the unique and lookup indexes on the accounts collection.
func (r *AccountRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true).SetName(indexUsername)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName(indexEmail)},
		{Keys: bson.D{{Key: tokenField(domain.PurposeVerifyEmail, "hash"), Value: 1}}, Options: options.Index().SetSparse(true)},
		{Keys: bson.D{{Key: tokenField(domain.PurposeResetPassword, "hash"), Value: 1}}, Options: options.Index().SetSparse(true)},
		{Keys: bson.D{{Key: "remember_token_hash", Value: 1}}, Options: options.Index().SetSparse(true)},
		{Keys: bson.D{{Key: "role", Value: 1}, {Key: "status", Value: 1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}
