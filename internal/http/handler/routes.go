package handler

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"mongorest/internal/model"
	"mongorest/internal/service"
)

// Pinger is the connectivity probe the health endpoint runs.
// *mongo.Client satisfies it.
type Pinger interface {
	Ping(ctx context.Context, rp *readpref.ReadPref) error
}

// link is a HAL-style hypermedia reference.
type link struct {
	Href string `json:"href"`
}

// listResponse is the paginated listing body: the page of documents
// embedded under the collection name, Spring-Data page metadata, and
// navigation links.
type listResponse struct {
	Embedded map[string][]model.Resource `json:"_embedded"`
	Page     model.Page                  `json:"page"`
	Links    map[string]link             `json:"_links"`
}

// pageHref renders a navigation ref as a URL on the listing path,
// carrying the sort argument through when one was requested.
func pageHref(basePath, sort string, ref *model.PageRef) string {
	q := url.Values{}
	q.Set("page", fmt.Sprintf("%d", ref.Page))
	q.Set("size", fmt.Sprintf("%d", ref.Size))
	if sort != "" {
		q.Set("sort", sort)
	}
	return basePath + "?" + q.Encode()
}

func pageLinks(basePath, sort string, links model.PageLinks) map[string]link {
	out := make(map[string]link, 4)
	if links.First != nil {
		out["first"] = link{Href: pageHref(basePath, sort, links.First)}
	}
	if links.Prev != nil {
		out["prev"] = link{Href: pageHref(basePath, sort, links.Prev)}
	}
	if links.Next != nil {
		out["next"] = link{Href: pageHref(basePath, sort, links.Next)}
	}
	if links.Last != nil {
		out["last"] = link{Href: pageHref(basePath, sort, links.Last)}
	}
	return out
}

// queryFilters copies the request's query args into a filters map. Page,
// size and sort ride along and are popped again downstream.
func queryFilters(c *fiber.Ctx) model.Resource {
	filters := model.Resource{}
	for k, v := range c.Queries() {
		filters[k] = v
	}
	return filters
}

// HealthCheck reports whether MongoDB is reachable.
func HealthCheck(p Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := p.Ping(ctx, readpref.Primary()); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a bare liveness check, independent of dependencies.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// ListResources returns one page of a collection with paging metadata
// and navigation links.
func ListResources(svc service.ResourceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		collection := c.Params("collection")
		sort := c.Query("sort")

		res, err := svc.List(c.UserContext(), collection, queryFilters(c))
		if err != nil {
			return writeServiceError(c, err)
		}

		items := res.Data
		if items == nil {
			items = []model.Resource{}
		}
		return c.JSON(listResponse{
			Embedded: map[string][]model.Resource{collection: items},
			Page:     res.Page,
			Links:    pageLinks(c.Path(), sort, res.Links),
		})
	}
}

// ListAllResources returns every matching document without pagination.
func ListAllResources(svc service.ResourceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		collection := c.Params("collection")

		res, err := svc.ListAll(c.UserContext(), collection, queryFilters(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		if res.Items == nil {
			res.Items = []model.Resource{}
		}
		return c.JSON(res)
	}
}

// CreateResource stores the JSON body as a new document.
func CreateResource(svc service.ResourceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		collection := c.Params("collection")

		values := model.Resource{}
		if err := c.BodyParser(&values); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "request body must be a JSON object")
		}

		doc, err := svc.Create(c.UserContext(), collection, values)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	}
}

// GetResource returns a single document by id.
func GetResource(svc service.ResourceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		doc, err := svc.Get(c.UserContext(), c.Params("collection"), c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

// UpdateResource applies the JSON body as a partial update and returns
// the updated document.
func UpdateResource(svc service.ResourceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		updates := model.Resource{}
		if err := c.BodyParser(&updates); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "request body must be a JSON object")
		}

		doc, err := svc.Update(c.UserContext(), c.Params("collection"), c.Params("id"), updates)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

// DeleteResource removes a document by id.
func DeleteResource(svc service.ResourceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Delete(c.UserContext(), c.Params("collection"), c.Params("id")); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ExportResource snapshots the filtered collection into object storage
// and returns a presigned download link. Filters come from the optional
// JSON body.
func ExportResource(svc service.ResourceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		collection := c.Params("collection")

		filters := model.Resource{}
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&filters); err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "request body must be a JSON object")
			}
		}

		export, err := svc.Export(c.UserContext(), collection, filters)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusAccepted).JSON(export)
	}
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, p Pinger, svc service.ResourceService) {
	// Serve OpenAPI spec and Swagger UI
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
		return c.Type("html").SendString(html)
	})

	app.Get("/health", HealthCheck(p))
	app.Get("/healthz", LivenessProbe())

	api := app.Group("/api/:collection")
	api.Get("/", ListResources(svc))
	api.Get("/all", ListAllResources(svc))
	api.Post("/export", ExportResource(svc))
	api.Post("/", CreateResource(svc))
	api.Get("/:id", GetResource(svc))
	api.Patch("/:id", UpdateResource(svc))
	api.Delete("/:id", DeleteResource(svc))
}
