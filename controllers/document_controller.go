package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/roadrunner/api-go/services"
	"go.uber.org/zap"
)

type DocumentService interface {
	Upload(ctx context.Context, userID uint, in services.DocumentInput, file *services.Upload) (*services.DocumentView, error)
	List(ctx context.Context, userID uint) ([]services.DocumentView, error)
	ByTrip(ctx context.Context, userID, tripID uint) ([]services.DocumentView, error)
	Get(ctx context.Context, userID, docID uint) (*services.DocumentView, error)
	Rename(ctx context.Context, userID, docID uint, name string) (*services.DocumentView, error)
	Delete(ctx context.Context, userID, docID uint) error
}

type DocumentController struct {
	Documents DocumentService
	Log       *zap.Logger
}

func (dc *DocumentController) ListDocuments(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	docs, err := dc.Documents.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, dc.Log, err)
		return
	}
	c.JSON(http.StatusOK, docs)
}

// UploadDocument takes a multipart form with trip_id, name and file.
func (dc *DocumentController) UploadDocument(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var input services.DocumentInput
	if err := c.ShouldBind(&input); err != nil {
		respondBindError(c, err)
		return
	}
	upload, file, err := formFile(c, "file", mediaDocument)
	if err != nil {
		respondError(c, dc.Log, err)
		return
	}
	defer file.Close()

	doc, err := dc.Documents.Upload(c.Request.Context(), userID, input, upload)
	if err != nil {
		respondError(c, dc.Log, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

func (dc *DocumentController) ByTrip(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	tripID, ok := tripIDQuery(c)
	if !ok {
		return
	}
	docs, err := dc.Documents.ByTrip(c.Request.Context(), userID, tripID)
	if err != nil {
		respondError(c, dc.Log, err)
		return
	}
	c.JSON(http.StatusOK, docs)
}

func (dc *DocumentController) GetDocument(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	docID, ok := idParam(c, "id")
	if !ok {
		return
	}
	doc, err := dc.Documents.Get(c.Request.Context(), userID, docID)
	if err != nil {
		respondError(c, dc.Log, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (dc *DocumentController) RenameDocument(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	docID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input struct {
		Name string `json:"name"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			respondBindError(c, err)
			return
		}
	}

	doc, err := dc.Documents.Rename(c.Request.Context(), userID, docID, input.Name)
	if err != nil {
		respondError(c, dc.Log, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// DeleteDocument removes the row and its stored file together.
func (dc *DocumentController) DeleteDocument(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	docID, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := dc.Documents.Delete(c.Request.Context(), userID, docID); err != nil {
		respondError(c, dc.Log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
