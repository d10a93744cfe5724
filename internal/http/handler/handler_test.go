package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"mongorest/internal/manager"
	"mongorest/internal/model"
	"mongorest/internal/service"
	serviceMocks "mongorest/internal/service/mocks"
)

type mockPinger struct {
	mock.Mock
}

func (m *mockPinger) Ping(ctx context.Context, rp *readpref.ReadPref) error {
	args := m.Called(ctx, rp)
	return args.Error(0)
}

func TestHealthCheck(t *testing.T) {
	pinger := new(mockPinger)
	app := fiber.New()
	app.Get("/health", HealthCheck(pinger))

	t.Run("healthy", func(t *testing.T) {
		pinger.On("Ping", mock.Anything, mock.Anything).Return(nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		pinger.On("Ping", mock.Anything, mock.Anything).Return(errors.New("no reachable servers")).Once()

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "SERVICE_UNAVAILABLE", body.Error.Code)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListResources(t *testing.T) {
	mockSvc := new(serviceMocks.MockResourceService)
	app := fiber.New()
	app.Get("/api/:collection", ListResources(mockSvc))

	t.Run("success", func(t *testing.T) {
		res := &manager.ListResult{
			Data: []model.Resource{{"id": "abc", "name": "bob"}},
			Page: model.Page{Size: 2, TotalElements: 11, TotalPages: 6, Number: 2},
			Links: model.PageLinks{
				First: &model.PageRef{Page: 0, Size: 2},
				Prev:  &model.PageRef{Page: 1, Size: 2},
				Next:  &model.PageRef{Page: 3, Size: 2},
				Last:  &model.PageRef{Page: 5, Size: 2},
			},
		}
		mockSvc.On("List", mock.Anything, "users", model.Resource{
			"page": "2",
			"size": "2",
			"sort": "name,asc",
		}).Return(res, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/users?page=2&size=2&sort=name,asc", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body listResponse
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Contains(t, body.Embedded, "users")
		assert.Len(t, body.Embedded["users"], 1)
		assert.Equal(t, int64(11), body.Page.TotalElements)
		assert.Equal(t, int64(2), body.Page.Number)
		assert.Equal(t, "/api/users?page=3&size=2&sort=name%2Casc", body.Links["next"].Href)
		assert.Equal(t, "/api/users?page=1&size=2&sort=name%2Casc", body.Links["prev"].Href)
		assert.Equal(t, "/api/users?page=0&size=2&sort=name%2Casc", body.Links["first"].Href)
		assert.Equal(t, "/api/users?page=5&size=2&sort=name%2Casc", body.Links["last"].Href)
		mockSvc.AssertExpectations(t)
	})

	t.Run("embeds documents under the collection name", func(t *testing.T) {
		res := &manager.ListResult{
			Data: []model.Resource{{"id": "o1"}},
			Page: model.Page{Size: 10, TotalElements: 1, TotalPages: 1, Number: 0},
		}
		mockSvc.On("List", mock.Anything, "orders", mock.Anything).Return(res, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body listResponse
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Contains(t, body.Embedded, "orders")
		assert.Len(t, body.Embedded["orders"], 1)
		mockSvc.AssertExpectations(t)
	})

	t.Run("first page has no prev or first link", func(t *testing.T) {
		res := &manager.ListResult{
			Data: []model.Resource{},
			Page: model.Page{Size: 10, TotalElements: 3, TotalPages: 1, Number: 0},
		}
		mockSvc.On("List", mock.Anything, "users", mock.Anything).Return(res, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body listResponse
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Empty(t, body.Links)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid paging args", func(t *testing.T) {
		err := fmt.Errorf("%w: not a valid size value: %q", manager.ErrBadListArg, "lots")
		mockSvc.On("List", mock.Anything, "users", mock.Anything).Return(nil, err).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/users?size=lots", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "INVALID_QUERY", body.Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("unknown collection", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, "secrets", mock.Anything).Return(nil, service.ErrUnknownCollection).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/secrets", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "UNKNOWN_COLLECTION", body.Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, "users", mock.Anything).Return(nil, errors.New("connection reset")).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestListAllResources(t *testing.T) {
	mockSvc := new(serviceMocks.MockResourceService)
	app := fiber.New()
	app.Get("/api/:collection/all", ListAllResources(mockSvc))

	t.Run("success", func(t *testing.T) {
		res := &service.ResourceAllResult{
			Items: []model.Resource{{"id": "a"}, {"id": "b"}},
			Count: 2,
		}
		mockSvc.On("ListAll", mock.Anything, "users", model.Resource{"status": "active"}).Return(res, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/users/all?status=active", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body service.ResourceAllResult
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Len(t, body.Items, 2)
		assert.Equal(t, int64(2), body.Count)
		mockSvc.AssertExpectations(t)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("ListAll", mock.Anything, "users", mock.Anything).Return(nil, errors.New("boom")).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/users/all", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestCreateResource(t *testing.T) {
	mockSvc := new(serviceMocks.MockResourceService)
	app := fiber.New()
	app.Post("/api/:collection", CreateResource(mockSvc))

	t.Run("success", func(t *testing.T) {
		created := model.Resource{"id": "65f1a0", "name": "bob"}
		mockSvc.On("Create", mock.Anything, "users", model.Resource{"name": "bob"}).Return(created, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/users", bytes.NewBufferString(`{"name":"bob"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var body model.Resource
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "65f1a0", body["id"])
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/users", bytes.NewBufferString(`{not json`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "INVALID_BODY", body.Error.Code)
	})

	t.Run("empty body", func(t *testing.T) {
		mockSvc.On("Create", mock.Anything, "users", model.Resource{}).Return(nil, service.ErrValuesRequired).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/users", bytes.NewBufferString(`{}`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "VALUES_REQUIRED", body.Error.Code)
		mockSvc.AssertExpectations(t)
	})
}

func TestGetResource(t *testing.T) {
	mockSvc := new(serviceMocks.MockResourceService)
	app := fiber.New()
	app.Get("/api/:collection/:id", GetResource(mockSvc))

	t.Run("success", func(t *testing.T) {
		doc := model.Resource{"id": "65f1a0", "name": "bob"}
		mockSvc.On("Get", mock.Anything, "users", "65f1a0").Return(doc, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/users/65f1a0", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body model.Resource
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "bob", body["name"])
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		mockSvc.On("Get", mock.Anything, "users", "missing").Return(nil, service.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/users/missing", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "NOT_FOUND", body.Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("Get", mock.Anything, "users", "65f1a0").Return(nil, errors.New("boom")).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/users/65f1a0", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestUpdateResource(t *testing.T) {
	mockSvc := new(serviceMocks.MockResourceService)
	app := fiber.New()
	app.Patch("/api/:collection/:id", UpdateResource(mockSvc))

	t.Run("success", func(t *testing.T) {
		updated := model.Resource{"id": "65f1a0", "name": "robert"}
		mockSvc.On("Update", mock.Anything, "users", "65f1a0", model.Resource{"name": "robert"}).Return(updated, nil).Once()

		req := httptest.NewRequest(http.MethodPatch, "/api/users/65f1a0", bytes.NewBufferString(`{"name":"robert"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body model.Resource
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "robert", body["name"])
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		mockSvc.On("Update", mock.Anything, "users", "missing", mock.Anything).Return(nil, service.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodPatch, "/api/users/missing", bytes.NewBufferString(`{"name":"x"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPatch, "/api/users/65f1a0", bytes.NewBufferString(`nope`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestDeleteResource(t *testing.T) {
	mockSvc := new(serviceMocks.MockResourceService)
	app := fiber.New()
	app.Delete("/api/:collection/:id", DeleteResource(mockSvc))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("Delete", mock.Anything, "users", "65f1a0").Return(nil).Once()

		req := httptest.NewRequest(http.MethodDelete, "/api/users/65f1a0", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		mockSvc.On("Delete", mock.Anything, "users", "missing").Return(service.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodDelete, "/api/users/missing", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "NOT_FOUND", body.Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("Delete", mock.Anything, "users", "65f1a0").Return(errors.New("boom")).Once()

		req := httptest.NewRequest(http.MethodDelete, "/api/users/65f1a0", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestExportResource(t *testing.T) {
	mockSvc := new(serviceMocks.MockResourceService)
	app := fiber.New()
	app.Post("/api/:collection/export", ExportResource(mockSvc))

	t.Run("success", func(t *testing.T) {
		export := &model.Export{
			Collection: "users",
			Key:        "exports/users/xyz.ndjson",
			Documents:  42,
			URL:        "https://minio.local/presigned",
		}
		mockSvc.On("Export", mock.Anything, "users", model.Resource{"status": "active"}).Return(export, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/users/export", bytes.NewBufferString(`{"status":"active"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusAccepted, resp.StatusCode)

		var body model.Export
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "exports/users/xyz.ndjson", body.Key)
		assert.Equal(t, 42, body.Documents)
		mockSvc.AssertExpectations(t)
	})

	t.Run("no body exports everything", func(t *testing.T) {
		export := &model.Export{Collection: "users"}
		mockSvc.On("Export", mock.Anything, "users", model.Resource{}).Return(export, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/users/export", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusAccepted, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("storage not configured", func(t *testing.T) {
		mockSvc.On("Export", mock.Anything, "users", mock.Anything).Return(nil, service.ErrExportDisabled).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/users/export", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "EXPORT_DISABLED", body.Error.Code)
		mockSvc.AssertExpectations(t)
	})
}

func TestRouting(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(),
	})

	mockSvc := new(serviceMocks.MockResourceService)
	RegisterRoutes(app, new(mockPinger), mockSvc)

	t.Run("not found route", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/non-existent", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NOT_FOUND", res.Error.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "METHOD_NOT_ALLOWED", res.Error.Code)
	})
}
