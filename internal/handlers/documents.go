package handlers

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"maildesk/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
)

// maxDocumentSize caps uploaded knowledge documents at 2 MB
const maxDocumentSize = 2 << 20

// documentIndexer chunks and indexes a document into the vector store
type documentIndexer interface {
	IndexDocument(ctx context.Context, filename, department, text string) (int, error)
}

// UploadDocumentHandler ingests a knowledge document for a department
// @Summary Upload a knowledge document
// @Description Accepts a text or markdown file, chunks it and indexes it for retrieval
// @Tags knowledge
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Document file (.txt or .md)"
// @Param department formData string true "Owning department"
// @Success 200 {object} models.UploadResponse
// @Failure 400 {object} models.UploadResponse
// @Failure 500 {object} models.UploadResponse
// @Router /api/documents [post]
func UploadDocumentHandler(indexer documentIndexer, db *sqlx.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		department := strings.TrimSpace(c.FormValue("department"))
		if department == "" {
			return c.JSON(http.StatusBadRequest, models.UploadResponse{
				Success: false,
				Error:   "department is required",
			})
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.UploadResponse{
				Success: false,
				Error:   "file is required",
			})
		}
		ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
		if ext != ".txt" && ext != ".md" {
			return c.JSON(http.StatusBadRequest, models.UploadResponse{
				Success: false,
				Error:   "only .txt and .md documents are supported",
			})
		}

		file, err := fileHeader.Open()
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.UploadResponse{
				Success: false,
				Error:   err.Error(),
			})
		}
		defer file.Close()

		content, err := io.ReadAll(io.LimitReader(file, maxDocumentSize))
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.UploadResponse{
				Success: false,
				Error:   err.Error(),
			})
		}

		ctx := c.Request().Context()
		chunks, err := indexer.IndexDocument(ctx, fileHeader.Filename, department, string(content))
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.UploadResponse{
				Success: false,
				Error:   err.Error(),
			})
		}

		if db != nil {
			query := db.Rebind(`INSERT INTO knowledge_docs (filename, department, chunk_count) VALUES (?, ?, ?)`)
			if _, err := db.ExecContext(ctx, query, fileHeader.Filename, department, chunks); err != nil {
				return c.JSON(http.StatusInternalServerError, models.UploadResponse{
					Success: false,
					Error:   err.Error(),
				})
			}
		}

		return c.JSON(http.StatusOK, models.UploadResponse{
			Success: true,
			Chunks:  chunks,
		})
	}
}
