package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"workbench/internal/service"
)

// pagination reads limit and offset query parameters. On failure it returns
// the error code and message to answer with.
func pagination(c *fiber.Ctx) (limit, offset int, code, message string) {
	limit, err := strconv.Atoi(c.Query("limit", "10"))
	if err != nil {
		return 0, 0, "INVALID_LIMIT", "invalid limit"
	}
	offset, err = strconv.Atoi(c.Query("offset", "0"))
	if err != nil {
		return 0, 0, "INVALID_OFFSET", "invalid offset"
	}
	return limit, offset, "", ""
}

// idParam returns the :id route parameter when it is a UUID.
func idParam(c *fiber.Ctx) (string, bool) {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

// ListDatasets godoc
// @Summary List datasets
// @Tags datasets
// @Produce json
// @Param limit query int false "page size" default(10)
// @Param offset query int false "page offset" default(0)
// @Success 200 {object} service.DatasetListResult
// @Router /datasets [get]
func ListDatasets(svc service.DatasetService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, offset, code, msg := pagination(c)
		if code != "" {
			return writeError(c, fiber.StatusBadRequest, code, msg)
		}
		res, err := svc.List(c.UserContext(), limit, offset)
		if err != nil {
			return writeServiceError(c, err, "dataset not found")
		}
		return c.JSON(res)
	}
}

// UploadDataset godoc
// @Summary Upload a CSV dataset
// @Tags datasets
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV file, first column is the row index"
// @Param name formData string false "dataset name"
// @Success 201 {object} model.Dataset
// @Router /datasets [post]
func UploadDataset(svc service.DatasetService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		ds, err := svc.Upload(c.UserContext(), f, fh.Filename, ct, fh.Size, c.FormValue("name"))
		if err != nil {
			return writeServiceError(c, err, "dataset not found")
		}
		return c.Status(fiber.StatusCreated).JSON(ds)
	}
}

// GetDataset godoc
// @Summary Get dataset metadata
// @Tags datasets
// @Produce json
// @Param id path string true "dataset id"
// @Success 200 {object} model.Dataset
// @Router /datasets/{id} [get]
func GetDataset(svc service.DatasetService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := idParam(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		ds, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err, "dataset not found")
		}
		return c.JSON(ds)
	}
}

// DownloadDataset godoc
// @Summary Get a pre-signed download URL for the dataset CSV
// @Tags datasets
// @Produce json
// @Param id path string true "dataset id"
// @Success 200 {object} map[string]string
// @Router /datasets/{id}/download [get]
func DownloadDataset(svc service.DatasetService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := idParam(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		u, err := svc.DownloadURL(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err, "dataset not found")
		}
		return c.JSON(fiber.Map{"url": u})
	}
}

// DeleteDataset godoc
// @Summary Delete a dataset
// @Tags datasets
// @Param id path string true "dataset id"
// @Success 204
// @Router /datasets/{id} [delete]
func DeleteDataset(svc service.DatasetService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := idParam(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.Delete(c.UserContext(), id); err != nil {
			return writeServiceError(c, err, "dataset not found")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
