package db

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the index contracts the query layer relies on.
// CreateMany is idempotent, so this runs on every startup.
func EnsureIndexes(ctx context.Context, dbName string) error {
	users := GetCollection(dbName, "users")
	books := GetCollection(dbName, "books")
	userBooks := GetCollection(dbName, "user_books")
	libraries := GetCollection(dbName, "libraries")
	libraryBooks := GetCollection(dbName, "library_books")

	_, err := users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("users_email_idx"),
		},
	})
	if err != nil {
		return err
	}

	_, err = books.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "isbn_13", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("books_isbn13_idx"),
		},
		{
			Keys:    bson.D{{Key: "isbn_10", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true).SetName("books_isbn10_idx"),
		},
		{
			Keys:    bson.D{{Key: "title", Value: 1}},
			Options: options.Index().SetName("books_title_idx"),
		},
	})
	if err != nil {
		return err
	}

	_, err = userBooks.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "book_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("ub_user_book_unique_idx"),
		},
		{
			// Pagination: cursor walks (user_id, updated_at desc, _id desc).
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "updated_at", Value: -1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("ub_user_updated_idx"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "genres", Value: 1}},
			Options: options.Index().SetName("ub_user_genres_idx"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "read_status", Value: 1}},
			Options: options.Index().SetName("ub_user_readstatus_idx"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "rating", Value: -1}},
			Options: options.Index().SetName("ub_user_rating_idx"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "search_blob", Value: 1}},
			Options: options.Index().SetName("ub_user_searchblob_idx"),
		},
	})
	if err != nil {
		return err
	}

	_, err = libraries.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("libs_slug_unique_idx"),
		},
		{
			// One default library per user; only enforced on is_default=true rows.
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "is_default", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"is_default": true}).
				SetName("libs_user_default_unique_idx"),
		},
		{
			Keys:    bson.D{{Key: "slug", Value: 1}, {Key: "is_public", Value: 1}},
			Options: options.Index().SetName("libs_slug_public_idx"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "updated_at", Value: -1}},
			Options: options.Index().SetName("libs_user_updated_idx"),
		},
	})
	if err != nil {
		return err
	}

	_, err = libraryBooks.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "library_id", Value: 1}, {Key: "user_book_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("lb_library_userbook_unique_idx"),
		},
		{
			Keys:    bson.D{{Key: "library_id", Value: 1}, {Key: "added_at", Value: -1}},
			Options: options.Index().SetName("lb_library_addedat_idx"),
		},
		{
			Keys:    bson.D{{Key: "user_book_id", Value: 1}},
			Options: options.Index().SetName("lb_userbook_idx"),
		},
	})
	return err
}
