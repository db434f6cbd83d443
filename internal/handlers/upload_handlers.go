package handlers

import (
	"net/http"

	"gelateria_backend/internal/extraction"
	"gelateria_backend/internal/storage"
	"gelateria_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// UploadHandler stores photos and runs invoice extraction.
type UploadHandler struct {
	uploader  storage.Uploader
	extractor extraction.Extractor
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(uploader storage.Uploader, extractor extraction.Extractor) *UploadHandler {
	return &UploadHandler{uploader: uploader, extractor: extractor}
}

// allowed photo folders, keyed by the kind route parameter.
var uploadFolders = map[string]string{
	"labels":    "lot-labels",
	"documents": "price-documents",
	"photos":    "ingredient-photos",
}

// UploadPhoto stores an image and returns its public URL. The URL is saved
// onto the owning record by a separate update call.
func (h *UploadHandler) UploadPhoto(c *gin.Context) {
	folder, ok := uploadFolders[c.Param("kind")]
	if !ok {
		utils.RespondValidationFailed(c, "unknown upload kind")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.RespondValidationFailed(c, "a file form field is required")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		utils.LogError(err, "UploadPhoto: opening uploaded file")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to read uploaded file.", "Internal error"))
		return
	}
	defer file.Close()

	url, err := h.uploader.Upload(c.Request.Context(), folder, fileHeader.Filename, file)
	if err != nil {
		utils.LogError(err, "UploadPhoto: uploading to storage")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to store file.", "Internal error"))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url})
}

// extractInvoiceRequest points at an already-uploaded document image.
type extractInvoiceRequest struct {
	ImageURL string `json:"image_url" binding:"required,url"`
}

// ExtractInvoice reads a supplier invoice photo and returns the structured
// purchase lines as a proposal. Nothing is written to the catalog here; the
// operator reviews the proposal and submits price records explicitly.
func (h *UploadHandler) ExtractInvoice(c *gin.Context) {
	var req extractInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	result, err := h.extractor.ExtractInvoice(c.Request.Context(), req.ImageURL)
	if err != nil {
		utils.LogError(err, "ExtractInvoice: extraction failed")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadGateway, utils.ErrCodeExtractionFailed, "Could not read the document.", err.Error()))
		return
	}
	c.JSON(http.StatusOK, result)
}
