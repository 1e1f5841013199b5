package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/docconv/internal/database/documents"
	"github.com/mrlokans/docconv/internal/document"
)

const maxDocumentBody = 1 << 20

// DocumentsController exposes the stored collections.
type DocumentsController struct {
	store DocumentStore
}

func NewDocumentsController(store DocumentStore) *DocumentsController {
	return &DocumentsController{store: store}
}

// ListCollections handles GET /api/collections
func (dc *DocumentsController) ListCollections(c *gin.Context) {
	infos, err := dc.store.Collections(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "list collections")
		return
	}
	c.JSON(http.StatusOK, gin.H{"collections": infos})
}

// Find handles GET /api/collections/:collection/documents
func (dc *DocumentsController) Find(c *gin.Context) {
	collection := c.Param("collection")

	filter, opts, err := parseFindQuery(c.Request.URL.Query())
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	docs, err := dc.store.Find(ctx, collection, filter, opts)
	if err != nil {
		dc.respondStoreError(c, err, "find documents")
		return
	}
	total, err := dc.store.Count(ctx, collection, filter)
	if err != nil {
		dc.respondStoreError(c, err, "count documents")
		return
	}
	if docs == nil {
		docs = []document.Document{}
	}

	respondDocuments(c, http.StatusOK, newPage(docs, total, opts.Limit, opts.Skip))
}

// Get handles GET /api/collections/:collection/documents/:id
func (dc *DocumentsController) Get(c *gin.Context) {
	doc, err := dc.store.Get(c.Request.Context(), c.Param("collection"), c.Param("id"))
	if err != nil {
		dc.respondStoreError(c, err, "get document")
		return
	}
	respondDocuments(c, http.StatusOK, doc)
}

// Insert handles POST /api/collections/:collection/documents
func (dc *DocumentsController) Insert(c *gin.Context) {
	doc, ok := bindDocument(c)
	if !ok {
		return
	}

	stored, err := dc.store.InsertOne(c.Request.Context(), c.Param("collection"), doc)
	if err != nil {
		dc.respondStoreError(c, err, "insert document")
		return
	}
	respondDocuments(c, http.StatusCreated, stored)
}

// Update handles PATCH /api/collections/:collection/documents/:id
// Top-level fields of the body replace or extend the stored document.
func (dc *DocumentsController) Update(c *gin.Context) {
	set, ok := bindDocument(c)
	if !ok {
		return
	}

	updated, err := dc.store.UpdateOne(c.Request.Context(), c.Param("collection"), c.Param("id"), set)
	if err != nil {
		dc.respondStoreError(c, err, "update document")
		return
	}
	respondDocuments(c, http.StatusOK, updated)
}

// Delete handles DELETE /api/collections/:collection/documents/:id
func (dc *DocumentsController) Delete(c *gin.Context) {
	if err := dc.store.DeleteOne(c.Request.Context(), c.Param("collection"), c.Param("id")); err != nil {
		dc.respondStoreError(c, err, "delete document")
		return
	}
	c.Status(http.StatusNoContent)
}

// Distinct handles GET /api/collections/:collection/distinct?field=
func (dc *DocumentsController) Distinct(c *gin.Context) {
	field := c.Query("field")
	if field == "" {
		respondBadRequest(c, "field is required")
		return
	}

	values, err := dc.store.Distinct(c.Request.Context(), c.Param("collection"), field)
	if err != nil {
		dc.respondStoreError(c, err, "distinct values")
		return
	}
	respondDocuments(c, http.StatusOK, document.New("field", field, "values", values))
}

func (dc *DocumentsController) respondStoreError(c *gin.Context, err error, context string) {
	switch {
	case errors.Is(err, documents.ErrNotFound):
		respondNotFound(c, "document")
	case errors.Is(err, documents.ErrDuplicateID):
		respondError(c, http.StatusConflict, err.Error())
	case errors.Is(err, documents.ErrInvalidPath),
		errors.Is(err, documents.ErrImmutableID),
		errors.Is(err, documents.ErrMissingID):
		respondBadRequest(c, err.Error())
	default:
		respondInternalError(c, err, context)
	}
}

// bindDocument decodes the request body as a single JSON object, keeping
// field order. Responds with 400 and returns false otherwise.
func bindDocument(c *gin.Context) (document.Document, bool) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxDocumentBody+1))
	if err != nil {
		respondBadRequest(c, "failed to read body")
		return nil, false
	}
	if len(body) > maxDocumentBody {
		respondError(c, http.StatusRequestEntityTooLarge, "document too large")
		return nil, false
	}

	var doc document.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		respondBadRequest(c, "body must be a JSON object: "+err.Error())
		return nil, false
	}
	return doc, true
}
