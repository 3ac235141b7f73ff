package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vhvplatform/go-campaign-service/internal/service"
	"github.com/vhvplatform/go-campaign-service/internal/shared/config"
	"github.com/vhvplatform/go-campaign-service/internal/shared/logger"
	"github.com/vhvplatform/go-campaign-service/internal/shared/mongodb"
)

const emailField = "email"

// RecipientRepository reads campaign recipients from the user collection.
// Each lookup opens its own client and disconnects it before returning.
type RecipientRepository struct {
	uri        string
	database   string
	collection string
	log        *logger.Logger
}

// NewRecipientRepository creates a new recipient repository
func NewRecipientRepository(cfg config.MongoDBConfig, log *logger.Logger) *RecipientRepository {
	return &RecipientRepository{
		uri:        cfg.URI,
		database:   cfg.Database,
		collection: cfg.Collection,
		log:        log,
	}
}

// FindRecipients returns one record per matching document, in cursor order.
// Documents without a string email field yield a record with an empty address.
func (r *RecipientRepository) FindRecipients(ctx context.Context, filter service.RecipientFilter) ([]service.RecipientRecord, error) {
	client, err := mongodb.NewMongoClient(ctx, r.uri, r.database)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := client.Disconnect(context.WithoutCancel(ctx)); err != nil {
			r.log.Warn("Failed to disconnect from MongoDB", "error", err)
		}
	}()

	query := buildRecipientFilter(filter)
	r.log.Debug("Querying recipients", "collection", r.collection, "query", query)

	opts := options.Find().SetProjection(bson.D{{Key: emailField, Value: 1}, {Key: "_id", Value: 0}})
	cursor, err := client.Collection(r.collection).Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("find recipients: %w", err)
	}
	defer cursor.Close(ctx)

	var records []service.RecipientRecord
	for cursor.Next(ctx) {
		records = append(records, service.RecipientRecord{Email: extractAddress(cursor.Current)})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate recipients: %w", err)
	}

	r.log.Info("Found recipients", "count", len(records), "year", filter.Year, "cycle", filter.Cycle, "status", filter.Status)
	return records, nil
}

// buildRecipientFilter matches year and cycle exactly. Status is only
// constrained when set.
func buildRecipientFilter(f service.RecipientFilter) bson.D {
	query := bson.D{
		{Key: "year", Value: f.Year},
		{Key: "cycle", Value: f.Cycle},
	}
	if f.Status != "" {
		query = append(query, bson.E{Key: "status", Value: f.Status})
	}
	return query
}

func extractAddress(doc bson.Raw) string {
	addr, ok := doc.Lookup(emailField).StringValueOK()
	if !ok {
		return ""
	}
	return addr
}
