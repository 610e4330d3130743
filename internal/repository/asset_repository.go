package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"snowball/config"
	"snowball/internal/models"
)

// MongoAssetRepository stores assets in the "assets" collection.
type MongoAssetRepository struct {
	assets *mongo.Collection
}

func NewMongoAssetRepository() *MongoAssetRepository {
	return &MongoAssetRepository{assets: config.GetCollection("assets")}
}

func (r *MongoAssetRepository) Get(ctx context.Context, id primitive.ObjectID) (*models.Asset, error) {
	var asset models.Asset
	err := r.assets.FindOne(ctx, bson.M{"_id": id}).Decode(&asset)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

func (r *MongoAssetRepository) Save(ctx context.Context, asset *models.Asset) (*models.Asset, error) {
	if asset.ID.IsZero() {
		asset.ID = primitive.NewObjectID()
		if _, err := r.assets.InsertOne(ctx, asset); err != nil {
			return nil, err
		}
		return asset, nil
	}

	update := bson.M{"$set": bson.M{
		"name":          asset.Name,
		"code":          asset.Code,
		"category":      asset.Category,
		"target_weight": asset.TargetWeight,
		"current_price": asset.CurrentPrice,
		"avg_price":     asset.AvgPrice,
		"quantity":      asset.Quantity,
	}}
	if _, err := r.assets.UpdateOne(ctx, bson.M{"_id": asset.ID}, update); err != nil {
		return nil, err
	}
	return asset, nil
}

func (r *MongoAssetRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.assets.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *MongoAssetRepository) ListByAccount(ctx context.Context, accountID primitive.ObjectID) ([]models.Asset, error) {
	cur, err := r.assets.Find(ctx, bson.M{"account_id": accountID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var assets []models.Asset
	if err := cur.All(ctx, &assets); err != nil {
		return nil, err
	}
	return assets, nil
}
