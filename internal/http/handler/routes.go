package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"workbench/internal/service"
)

const docsPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>Workbench API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/swagger/doc.json',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`

// Docs serves a Swagger UI page backed by the generated /swagger/doc.json.
func Docs() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Type("html").SendString(docsPage)
	}
}

// Metrics exposes the gatherer in the Prometheus text format.
func Metrics(g prometheus.Gatherer) fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers stay thin; the services hold the logic.
func RegisterRoutes(app *fiber.App, db *sql.DB, store Pinger, datasets service.DatasetService, analyses service.AnalysisService, gatherer prometheus.Gatherer) {
	app.Get("/docs", Docs())
	app.Get("/health", HealthCheck(db, store))
	app.Get("/healthz", LivenessProbe())
	if gatherer != nil {
		app.Get("/metrics", Metrics(gatherer))
	}

	app.Get("/datasets", ListDatasets(datasets))
	app.Post("/datasets", UploadDataset(datasets))
	app.Get("/datasets/:id", GetDataset(datasets))
	app.Get("/datasets/:id/download", DownloadDataset(datasets))
	app.Delete("/datasets/:id", DeleteDataset(datasets))

	app.Get("/analyses", ListAnalyses(analyses))
	app.Post("/analyses/correlation", RunCorrelation(analyses))
	app.Post("/analyses/covariates", RunCovariates(analyses))
	app.Post("/analyses/missing", RunMissing(analyses))
	app.Get("/analyses/:id", GetAnalysis(analyses))
	app.Get("/analyses/:id/report", AnalysisReport(analyses))
}
