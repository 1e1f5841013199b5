// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup and migrations
//	├── documents/       # Document collections (find, insert, update, delete, distinct)
//	└── runs/            # Conversion run history
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type over the shared *gorm.DB:
//
//	db, err := database.NewDatabase("./docconv.db")
//
//	docs := documents.NewRepository(db.DB)
//	history := runs.NewRepository(db.DB)
//
//	hotel, err := docs.Get(ctx, "hotels", "2a3cd942bf99b273e5cd4832")
//	id, _ := hotel.ID()
//	reviews, err := docs.Children(ctx, "reviews", id.String())
//
// # Interface Implementations
//
//   - documents.Repository: implements http.DocumentStore and exporters.CollectionWriter
//   - runs.Repository: implements audit.RunStore and http.RunStore
//
// # Documents
//
// A document is stored as its JSON rendering in a text column, one row per
// document, with the collection name, the document id and the insertion
// position alongside it. Queries reach into the body with SQLite's
// json_extract, so the store needs no schema per collection.
package database
