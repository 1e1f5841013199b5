package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/docconv/internal/database"
	"github.com/mrlokans/docconv/internal/database/documents"
	"github.com/mrlokans/docconv/internal/document"
)

const (
	arenaID = "aaaaaaaaaaaaaaaaaaaaaaaa"
	plazaID = "bbbbbbbbbbbbbbbbbbbbbbbb"
)

func setupDocumentsRouter(t *testing.T) *gin.Engine {
	t.Helper()

	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := documents.NewRepository(db.DB)
	ctx := context.Background()

	require.NoError(t, repo.ReplaceCollection(ctx, "hotels", "", []document.Document{
		document.New("_id", document.Ref(arenaID), "name", "Hotel Arena", "average_score", 7.7),
		document.New("_id", document.Ref(plazaID), "name", "Grand Plaza & Spa", "average_score", 8.4),
	}))
	require.NoError(t, repo.ReplaceCollection(ctx, "reviews", "hotel_id", []document.Document{
		document.New("_id", document.Ref("r1"), "hotel_id", document.Ref(arenaID), "reviewer_score", 2.9,
			"reviewer", document.New("nationality", " Russia ")),
		document.New("_id", document.Ref("r2"), "hotel_id", document.Ref(plazaID), "reviewer_score", 9.2,
			"reviewer", document.New("nationality", " United Kingdom ")),
		document.New("_id", document.Ref("r3"), "hotel_id", document.Ref(arenaID), "reviewer_score", 7.5,
			"reviewer", document.New("nationality", " Russia ")),
	}))

	return NewRouter(RouterConfig{Database: db, Documents: repo})
}

func doRequest(router *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type docPage struct {
	Data    []map[string]any `json:"data"`
	Total   int64            `json:"total"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
	HasMore bool             `json:"has_more"`
}

func decodePage(t *testing.T, w *httptest.ResponseRecorder) docPage {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var page docPage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	return page
}

func oid(doc map[string]any) string {
	id, _ := doc["_id"].(map[string]any)
	s, _ := id["$oid"].(string)
	return s
}

func pageIDs(page docPage) []string {
	ids := make([]string, 0, len(page.Data))
	for _, d := range page.Data {
		ids = append(ids, oid(d))
	}
	return ids
}

func TestDocumentsController_ListCollections(t *testing.T) {
	router := setupDocumentsRouter(t)

	w := doRequest(router, "GET", "/api/collections", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Collections []struct {
			Name      string `json:"name"`
			RefField  string `json:"ref_field"`
			Documents int64  `json:"documents"`
		} `json:"collections"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Collections, 2)
	assert.Equal(t, "hotels", resp.Collections[0].Name)
	assert.Equal(t, int64(2), resp.Collections[0].Documents)
	assert.Equal(t, "reviews", resp.Collections[1].Name)
	assert.Equal(t, int64(3), resp.Collections[1].Documents)
}

func TestDocumentsController_Find(t *testing.T) {
	router := setupDocumentsRouter(t)

	tests := []struct {
		name  string
		query string
		want  []string
		total int64
	}{
		{"all in insertion order", "", []string{"r1", "r2", "r3"}, 3},
		{"by reference", "?ref.hotel_id=" + arenaID, []string{"r1", "r3"}, 2},
		{"nested text", "?eq.reviewer.nationality=+Russia+", []string{"r1", "r3"}, 2},
		{"numeric range", "?min.reviewer_score=3&max.reviewer_score=9", []string{"r3"}, 1},
		{"search", "?q=kingdom&in=reviewer.nationality", []string{"r2"}, 1},
		{"sorted", "?sort=-reviewer_score", []string{"r2", "r3", "r1"}, 3},
		{"paged", "?limit=1&skip=1", []string{"r2"}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := decodePage(t, doRequest(router, "GET", "/api/collections/reviews/documents"+tt.query, ""))
			assert.Equal(t, tt.want, pageIDs(page))
			assert.Equal(t, tt.total, page.Total)
		})
	}
}

func TestDocumentsController_Find_PreservesFieldOrder(t *testing.T) {
	router := setupDocumentsRouter(t)

	w := doRequest(router, "GET", "/api/collections/hotels/documents?eq.name=Grand+Plaza+%26+Spa", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"data":[{"_id":{"$oid":"`+plazaID+`"},"name":"Grand Plaza & Spa","average_score":8.4}]`)
}

func TestDocumentsController_Find_BadQuery(t *testing.T) {
	router := setupDocumentsRouter(t)

	assert.Equal(t, http.StatusBadRequest, doRequest(router, "GET", "/api/collections/reviews/documents?min.reviewer_score=x", "").Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(router, "GET", `/api/collections/reviews/documents?sort=a"b`, "").Code)
}

func TestDocumentsController_Find_UnknownCollection(t *testing.T) {
	router := setupDocumentsRouter(t)

	page := decodePage(t, doRequest(router, "GET", "/api/collections/nope/documents", ""))
	assert.Empty(t, page.Data)
	assert.NotNil(t, page.Data)
	assert.Equal(t, int64(0), page.Total)
}

func TestDocumentsController_Get(t *testing.T) {
	router := setupDocumentsRouter(t)

	w := doRequest(router, "GET", "/api/collections/hotels/documents/"+arenaID, "")
	require.Equal(t, http.StatusOK, w.Code)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "Hotel Arena", doc["name"])

	w = doRequest(router, "GET", "/api/collections/hotels/documents/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDocumentsController_Insert(t *testing.T) {
	router := setupDocumentsRouter(t)

	w := doRequest(router, "POST", "/api/collections/reviews/documents",
		`{"hotel_id":{"$oid":"`+plazaID+`"},"reviewer_score":6.0}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var doc map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Len(t, oid(doc), 24)
	assert.True(t, strings.HasPrefix(w.Body.String(), `{"_id":{"$oid":`))

	page := decodePage(t, doRequest(router, "GET", "/api/collections/reviews/documents?ref.hotel_id="+plazaID, ""))
	assert.Equal(t, []string{"r2", oid(doc)}, pageIDs(page))
}

func TestDocumentsController_Insert_Errors(t *testing.T) {
	router := setupDocumentsRouter(t)

	w := doRequest(router, "POST", "/api/collections/reviews/documents", `{"_id":{"$oid":"r1"}}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doRequest(router, "POST", "/api/collections/reviews/documents", `[1,2]`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, "POST", "/api/collections/reviews/documents", `{"a":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDocumentsController_Update(t *testing.T) {
	router := setupDocumentsRouter(t)

	w := doRequest(router, "PATCH", "/api/collections/hotels/documents/"+arenaID, `{"average_score":8.0,"stars":4}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, `{"_id":{"$oid":"`+arenaID+`"},"name":"Hotel Arena","average_score":8,"stars":4}`, w.Body.String())

	w = doRequest(router, "PATCH", "/api/collections/hotels/documents/"+arenaID, `{"_id":{"$oid":"x"}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, "PATCH", "/api/collections/hotels/documents/missing", `{"a":1}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDocumentsController_Delete(t *testing.T) {
	router := setupDocumentsRouter(t)

	w := doRequest(router, "DELETE", "/api/collections/reviews/documents/r2", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(router, "DELETE", "/api/collections/reviews/documents/r2", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	page := decodePage(t, doRequest(router, "GET", "/api/collections/reviews/documents", ""))
	assert.Equal(t, []string{"r1", "r3"}, pageIDs(page))
}

func TestDocumentsController_Distinct(t *testing.T) {
	router := setupDocumentsRouter(t)

	w := doRequest(router, "GET", "/api/collections/reviews/distinct?field=reviewer.nationality", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `{"field":"reviewer.nationality","values":[" Russia "," United Kingdom "]}`, w.Body.String())

	w = doRequest(router, "GET", "/api/collections/reviews/distinct?field=hotel_id", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `{"field":"hotel_id","values":[{"$oid":"`+arenaID+`"},{"$oid":"`+plazaID+`"}]}`, w.Body.String())

	w = doRequest(router, "GET", "/api/collections/reviews/distinct", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
