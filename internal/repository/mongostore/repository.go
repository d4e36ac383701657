package mongostore

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/orabank/digital-banking/internal/domain"
	"github.com/orabank/digital-banking/internal/repository"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	UsersCollection        = "users"
	TransactionsCollection = "transactions"
	CardsCollection        = "cards"
)

// Amounts are stored as decimal strings.
type userDoc struct {
	ID            string `bson:"_id"`
	Name          string `bson:"name"`
	CardNumber    string `bson:"card_number"`
	Balance       string `bson:"balance"`
	AccountType   string `bson:"account_type"`
	AccountNumber string `bson:"account_number"`
}

type transactionDoc struct {
	ID             string    `bson:"_id"`
	Seq            int64     `bson:"seq"`
	Direction      string    `bson:"direction"`
	Category       string    `bson:"category"`
	Amount         string    `bson:"amount"`
	Date           time.Time `bson:"date"`
	Description    string    `bson:"description"`
	Receiver       string    `bson:"receiver,omitempty"`
	TransferMethod string    `bson:"transfer_method,omitempty"`
}

type cardDoc struct {
	ID            string `bson:"_id"`
	Position      int64  `bson:"position"`
	CardNumber    string `bson:"card_number"`
	CardHolder    string `bson:"card_holder"`
	ExpiryDate    string `bson:"expiry_date"`
	CVV           string `bson:"cvv"`
	Type          string `bson:"type"`
	Brand         string `bson:"brand"`
	Balance       string `bson:"balance"`
	IsActive      bool   `bson:"is_active"`
	AccountNumber string `bson:"account_number"`
	Bank          string `bson:"bank"`
}

// Repository implements repository.Store on top of MongoDB.
type Repository struct {
	provider CollectionProvider
	seq      atomic.Int64
}

// NewRepository creates a Repository.
func NewRepository(provider CollectionProvider) *Repository {
	r := &Repository{provider: provider}
	r.seq.Store(time.Now().UnixNano())
	return r
}

// Reset drops every stored record and writes the demo records again, so a
// restart always starts from the seeded state.
func (r *Repository) Reset(ctx context.Context) error {
	for _, name := range []string{UsersCollection, TransactionsCollection, CardsCollection} {
		if _, err := r.provider.Collection(name).DeleteMany(ctx, bson.M{}); err != nil {
			return fmt.Errorf("Reset: clear %s: %w", name, err)
		}
	}
	return repository.Seed(ctx, r)
}

// GetUser implements repository.UserRepository.
func (r *Repository) GetUser(ctx context.Context, id string) (domain.User, error) {
	var doc userDoc
	if err := r.findByID(ctx, UsersCollection, id, &doc); err != nil {
		return domain.User{}, fmt.Errorf("GetUser %s: %w", id, err)
	}
	return doc.toDomain()
}

// ListUsers implements repository.UserRepository.
func (r *Repository) ListUsers(ctx context.Context) ([]domain.User, error) {
	var docs []userDoc
	if err := r.findAll(ctx, UsersCollection, nil, &docs); err != nil {
		return nil, fmt.Errorf("ListUsers: %w", err)
	}

	users := make([]domain.User, 0, len(docs))
	for _, doc := range docs {
		u, err := doc.toDomain()
		if err != nil {
			return nil, fmt.Errorf("ListUsers: %w", err)
		}
		users = append(users, u)
	}
	return users, nil
}

// PutUser implements repository.UserRepository.
func (r *Repository) PutUser(ctx context.Context, user domain.User) error {
	if user.ID == "" {
		return fmt.Errorf("PutUser: user ID is required")
	}
	doc := userDoc{
		ID:            user.ID,
		Name:          user.Name,
		CardNumber:    user.CardNumber,
		Balance:       user.Balance.String(),
		AccountType:   string(user.AccountType),
		AccountNumber: user.AccountNumber,
	}
	return r.upsert(ctx, UsersCollection, user.ID, doc)
}

// GetTransaction implements repository.TransactionRepository.
func (r *Repository) GetTransaction(ctx context.Context, id string) (domain.Transaction, error) {
	var doc transactionDoc
	if err := r.findByID(ctx, TransactionsCollection, id, &doc); err != nil {
		return domain.Transaction{}, fmt.Errorf("GetTransaction %s: %w", id, err)
	}
	return doc.toDomain()
}

// ListTransactions implements repository.TransactionRepository, newest first.
func (r *Repository) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	var docs []transactionDoc
	sort := options.Find().SetSort(bson.D{{Key: "seq", Value: -1}})
	if err := r.findAll(ctx, TransactionsCollection, sort, &docs); err != nil {
		return nil, fmt.Errorf("ListTransactions: %w", err)
	}

	txs := make([]domain.Transaction, 0, len(docs))
	for _, doc := range docs {
		tx, err := doc.toDomain()
		if err != nil {
			return nil, fmt.Errorf("ListTransactions: %w", err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// AppendTransaction implements repository.TransactionRepository. The entry
// gets the next sequence number, which makes it the newest. The unique _id
// index rejects a second insert with the same ID.
func (r *Repository) AppendTransaction(ctx context.Context, tx domain.Transaction) error {
	if tx.ID == "" {
		return fmt.Errorf("AppendTransaction: transaction ID is required")
	}

	doc := transactionDoc{
		ID:             tx.ID,
		Seq:            r.seq.Add(1),
		Direction:      string(tx.Direction),
		Category:       tx.Category,
		Amount:         tx.Amount.String(),
		Date:           tx.Date,
		Description:    tx.Description,
		Receiver:       tx.Receiver,
		TransferMethod: string(tx.TransferMethod),
	}

	_, err := r.provider.Collection(TransactionsCollection).InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("AppendTransaction %s: %w", tx.ID, repository.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("AppendTransaction %s: %w", tx.ID, err)
	}
	return nil
}

// GetCard implements repository.CardRepository.
func (r *Repository) GetCard(ctx context.Context, id string) (domain.Card, error) {
	var doc cardDoc
	if err := r.findByID(ctx, CardsCollection, id, &doc); err != nil {
		return domain.Card{}, fmt.Errorf("GetCard %s: %w", id, err)
	}
	return doc.toDomain()
}

// ListCards implements repository.CardRepository in insertion order.
func (r *Repository) ListCards(ctx context.Context) ([]domain.Card, error) {
	var docs []cardDoc
	sort := options.Find().SetSort(bson.D{{Key: "position", Value: 1}})
	if err := r.findAll(ctx, CardsCollection, sort, &docs); err != nil {
		return nil, fmt.Errorf("ListCards: %w", err)
	}

	cards := make([]domain.Card, 0, len(docs))
	for _, doc := range docs {
		c, err := doc.toDomain()
		if err != nil {
			return nil, fmt.Errorf("ListCards: %w", err)
		}
		cards = append(cards, c)
	}
	return cards, nil
}

// PutCard implements repository.CardRepository.
func (r *Repository) PutCard(ctx context.Context, card domain.Card) error {
	if card.ID == "" {
		return fmt.Errorf("PutCard: card ID is required")
	}

	pos, err := orderKey(ctx, r, CardsCollection, card.ID, func(raw *cardDoc) int64 { return raw.Position })
	if err != nil {
		return fmt.Errorf("PutCard: %w", err)
	}

	doc := cardDoc{
		ID:            card.ID,
		Position:      pos,
		CardNumber:    card.CardNumber,
		CardHolder:    card.CardHolder,
		ExpiryDate:    card.ExpiryDate,
		CVV:           card.CVV,
		Type:          string(card.Type),
		Brand:         string(card.Brand),
		Balance:       card.Balance.String(),
		IsActive:      card.IsActive,
		AccountNumber: card.AccountNumber,
		Bank:          string(card.Bank),
	}
	return r.upsert(ctx, CardsCollection, card.ID, doc)
}

// ActivateCard implements repository.CardRepository with one UpdateMany that
// sets is_active to whether the document's _id equals id.
func (r *Repository) ActivateCard(ctx context.Context, id string) error {
	var doc cardDoc
	if err := r.findByID(ctx, CardsCollection, id, &doc); err != nil {
		return fmt.Errorf("ActivateCard %s: %w", id, err)
	}

	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "is_active", Value: bson.D{{Key: "$eq", Value: bson.A{"$_id", id}}}},
		}}},
	}
	if _, err := r.provider.Collection(CardsCollection).UpdateMany(ctx, bson.M{}, update); err != nil {
		return fmt.Errorf("ActivateCard %s: %w", id, err)
	}
	return nil
}

func (r *Repository) findByID(ctx context.Context, collection, id string, out interface{}) error {
	err := r.provider.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return repository.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("find %s in %s: %w", id, collection, err)
	}
	return nil
}

func (r *Repository) findAll(ctx context.Context, collection string, opts *options.FindOptions, out interface{}) error {
	var findOpts []*options.FindOptions
	if opts != nil {
		findOpts = append(findOpts, opts)
	}

	cursor, err := r.provider.Collection(collection).Find(ctx, bson.M{}, findOpts...)
	if err != nil {
		return fmt.Errorf("find in %s: %w", collection, err)
	}
	if err := cursor.All(ctx, out); err != nil {
		return fmt.Errorf("decode %s: %w", collection, err)
	}
	return nil
}

func (r *Repository) upsert(ctx context.Context, collection, id string, doc interface{}) error {
	_, err := r.provider.Collection(collection).ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert %s into %s: %w", id, collection, err)
	}
	return nil
}

// orderKey keeps the ordering key of a stored document, or allocates the
// next one when the document does not exist yet.
func orderKey[T any](ctx context.Context, r *Repository, collection, id string, key func(*T) int64) (int64, error) {
	var doc T
	err := r.findByID(ctx, collection, id, &doc)
	switch {
	case err == nil:
		return key(&doc), nil
	case errors.Is(err, repository.ErrNotFound):
		return r.seq.Add(1), nil
	default:
		return 0, err
	}
}

func (d userDoc) toDomain() (domain.User, error) {
	balance, err := decimal.NewFromString(d.Balance)
	if err != nil {
		return domain.User{}, fmt.Errorf("user %s balance: %w", d.ID, err)
	}
	return domain.User{
		ID:            d.ID,
		Name:          d.Name,
		CardNumber:    d.CardNumber,
		Balance:       balance,
		AccountType:   domain.AccountType(d.AccountType),
		AccountNumber: d.AccountNumber,
	}, nil
}

func (d transactionDoc) toDomain() (domain.Transaction, error) {
	amount, err := decimal.NewFromString(d.Amount)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("transaction %s amount: %w", d.ID, err)
	}
	return domain.Transaction{
		ID:             d.ID,
		Direction:      domain.Direction(d.Direction),
		Category:       d.Category,
		Amount:         amount,
		Date:           d.Date.UTC(),
		Description:    d.Description,
		Receiver:       d.Receiver,
		TransferMethod: domain.TransferMethod(d.TransferMethod),
	}, nil
}

func (d cardDoc) toDomain() (domain.Card, error) {
	balance, err := decimal.NewFromString(d.Balance)
	if err != nil {
		return domain.Card{}, fmt.Errorf("card %s balance: %w", d.ID, err)
	}
	return domain.Card{
		ID:            d.ID,
		CardNumber:    d.CardNumber,
		CardHolder:    d.CardHolder,
		ExpiryDate:    d.ExpiryDate,
		CVV:           d.CVV,
		Type:          domain.CardType(d.Type),
		Brand:         domain.CardBrand(d.Brand),
		Balance:       balance,
		IsActive:      d.IsActive,
		AccountNumber: d.AccountNumber,
		Bank:          domain.Bank(d.Bank),
	}, nil
}

// Ensure Repository implements repository.Store.
var _ repository.Store = (*Repository)(nil)
