package handler

import (
	"github.com/gofiber/fiber/v2"

	"workbench/internal/service"
)

// RunCorrelation godoc
// @Summary Correlate features with clinical scales
// @Tags analyses
// @Accept json
// @Produce json
// @Param request body service.CorrelationRequest true "datasets and scale settings"
// @Success 201 {object} service.CorrelationResult
// @Router /analyses/correlation [post]
func RunCorrelation(svc service.AnalysisService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req service.CorrelationRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		res, err := svc.Correlate(c.UserContext(), req)
		if err != nil {
			return writeServiceError(c, err, "dataset not found")
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

// RunCovariates godoc
// @Summary Regress covariates out of features
// @Tags analyses
// @Accept json
// @Produce json
// @Param request body service.CovariateRequest true "feature and covariate datasets"
// @Success 201 {object} service.CovariateResult
// @Router /analyses/covariates [post]
func RunCovariates(svc service.AnalysisService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req service.CovariateRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		res, err := svc.ControlCovariates(c.UserContext(), req)
		if err != nil {
			return writeServiceError(c, err, "dataset not found")
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

// RunMissing godoc
// @Summary Report and plot missing values of a dataset
// @Tags analyses
// @Accept json
// @Produce json
// @Param request body service.MissingRequest true "dataset and figure settings"
// @Success 201 {object} service.MissingResult
// @Router /analyses/missing [post]
func RunMissing(svc service.AnalysisService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req service.MissingRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		res, err := svc.ExploreMissing(c.UserContext(), req)
		if err != nil {
			return writeServiceError(c, err, "dataset not found")
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

// ListAnalyses godoc
// @Summary List analysis runs
// @Tags analyses
// @Produce json
// @Param kind query string false "correlation, covariates or missing"
// @Param limit query int false "page size" default(10)
// @Param offset query int false "page offset" default(0)
// @Success 200 {object} service.AnalysisListResult
// @Router /analyses [get]
func ListAnalyses(svc service.AnalysisService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, offset, code, msg := pagination(c)
		if code != "" {
			return writeError(c, fiber.StatusBadRequest, code, msg)
		}
		res, err := svc.List(c.UserContext(), c.Query("kind"), limit, offset)
		if err != nil {
			return writeServiceError(c, err, "analysis not found")
		}
		return c.JSON(res)
	}
}

// GetAnalysis godoc
// @Summary Get an analysis run
// @Tags analyses
// @Produce json
// @Param id path string true "analysis id"
// @Success 200 {object} model.Analysis
// @Router /analyses/{id} [get]
func GetAnalysis(svc service.AnalysisService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := idParam(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		a, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err, "analysis not found")
		}
		return c.JSON(a)
	}
}

// AnalysisReport godoc
// @Summary Get a pre-signed URL for the report of an analysis
// @Tags analyses
// @Produce json
// @Param id path string true "analysis id"
// @Success 200 {object} map[string]string
// @Router /analyses/{id}/report [get]
func AnalysisReport(svc service.AnalysisService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := idParam(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		u, err := svc.ReportURL(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err, "analysis not found")
		}
		return c.JSON(fiber.Map{"url": u})
	}
}
