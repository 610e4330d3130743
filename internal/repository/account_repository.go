package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"snowball/config"
	"snowball/internal/models"
)

// MongoAccountRepository stores accounts in the "accounts" collection.
// Loaded accounts always carry their assets; deleting an account removes its
// assets first since Mongo has no cascade.
type MongoAccountRepository struct {
	accounts *mongo.Collection
	assets   *mongo.Collection
}

func NewMongoAccountRepository() *MongoAccountRepository {
	return &MongoAccountRepository{
		accounts: config.GetCollection("accounts"),
		assets:   config.GetCollection("assets"),
	}
}

func (r *MongoAccountRepository) Get(ctx context.Context, id primitive.ObjectID) (*models.Account, error) {
	var account models.Account
	err := r.accounts.FindOne(ctx, bson.M{"_id": id}).Decode(&account)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadAssets(ctx, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *MongoAccountRepository) ListAll(ctx context.Context) ([]models.Account, error) {
	return r.list(ctx, bson.M{})
}

func (r *MongoAccountRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Account, error) {
	return r.list(ctx, bson.M{"user_id": userID})
}

func (r *MongoAccountRepository) list(ctx context.Context, filter bson.M) ([]models.Account, error) {
	cur, err := r.accounts.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var accounts []models.Account
	if err := cur.All(ctx, &accounts); err != nil {
		return nil, err
	}
	for i := range accounts {
		if err := r.loadAssets(ctx, &accounts[i]); err != nil {
			return nil, err
		}
	}
	return accounts, nil
}

// Save inserts the account when it has no id yet, otherwise updates its own
// fields. Assets are persisted through the asset repository.
func (r *MongoAccountRepository) Save(ctx context.Context, account *models.Account) (*models.Account, error) {
	if account.ID.IsZero() {
		account.ID = primitive.NewObjectID()
		if _, err := r.accounts.InsertOne(ctx, account); err != nil {
			return nil, err
		}
		return account, nil
	}

	update := bson.M{"$set": bson.M{
		"name":    account.Name,
		"cash":    account.Cash,
		"user_id": account.UserID,
	}}
	if _, err := r.accounts.UpdateOne(ctx, bson.M{"_id": account.ID}, update); err != nil {
		return nil, err
	}
	return account, nil
}

func (r *MongoAccountRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, err := r.assets.DeleteMany(ctx, bson.M{"account_id": id}); err != nil {
		return err
	}
	_, err := r.accounts.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *MongoAccountRepository) loadAssets(ctx context.Context, account *models.Account) error {
	cur, err := r.assets.Find(ctx, bson.M{"account_id": account.ID})
	if err != nil {
		return err
	}
	defer cur.Close(ctx)
	return cur.All(ctx, &account.Assets)
}
