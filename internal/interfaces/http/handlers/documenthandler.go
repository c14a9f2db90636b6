package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"dinnerd/internal/infrastructure/auth"
	"dinnerd/internal/infrastructure/persistence/models"
	"dinnerd/internal/infrastructure/repository"
	"dinnerd/internal/interfaces/dto"
	"dinnerd/internal/shared/constants"
	apperrors "dinnerd/internal/shared/errors"
	"dinnerd/internal/shared/logger"
	"dinnerd/internal/shared/utils"
)

// maxDocumentSize bounds uploaded content at 16 MiB, the longblob threshold
// the service is willing to hold in memory per request.
const maxDocumentSize = 16 << 20

type DocumentHandler struct {
	documents repository.DocumentRepository
	people    repository.PersonRepository
	logger    logger.Interface
}

func NewDocumentHandler(
	documents repository.DocumentRepository,
	people repository.PersonRepository,
	log logger.Interface,
) *DocumentHandler {
	return &DocumentHandler{
		documents: documents,
		people:    people,
		logger:    log,
	}
}

// List returns document metadata only; content stays in the database.
func (h *DocumentHandler) List(c *gin.Context) {
	filter := repository.DocumentFilter{}

	var err error
	if filter.MinCreated, err = utils.QueryInt64(c, "min-created"); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	if filter.MaxCreated, err = utils.QueryInt64(c, "max-created"); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	if filter.MinModified, err = utils.QueryInt64(c, "min-modified"); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	if filter.MaxModified, err = utils.QueryInt64(c, "max-modified"); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	if filter.MinSize, err = utils.QueryInt64(c, "min-size"); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	if filter.MaxSize, err = utils.QueryInt64(c, "max-size"); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	filter.Hash = utils.QueryString(c, "hash")
	filter.TypeFragment = utils.QueryString(c, "type")
	filter.DescFragment = utils.QueryString(c, "description")

	paging, err := utils.ParsePaging(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	filter.Offset = paging.Offset
	filter.Limit = paging.Limit

	documents, err := h.documents.Query(c.Request.Context(), filter)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	views := make([]dto.DocumentView, 0, len(documents))
	for i := range documents {
		views = append(views, dto.NewDocumentView(&documents[i]))
	}
	utils.OKResponse(c, views)
}

// Get negotiates the representation: application/json yields metadata, any
// other acceptable type the raw content with the hash as ETag. A request
// accepting neither is answered 406.
func (h *DocumentHandler) Get(c *gin.Context) {
	id, err := utils.ParseIDParam(c, "id")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	accept := c.GetHeader("Accept")
	if wantsJSON(accept) {
		document, err := h.documents.GetMeta(c.Request.Context(), id)
		if err != nil {
			utils.ErrorResponseWithError(c, err)
			return
		}
		if document == nil {
			utils.ErrorResponseWithError(c, apperrors.NewNotFoundError("document not found"))
			return
		}
		utils.OKResponse(c, dto.NewDocumentView(document))
		return
	}

	document, err := h.documents.GetByID(c.Request.Context(), id)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	if document == nil {
		utils.ErrorResponseWithError(c, apperrors.NewNotFoundError("document not found"))
		return
	}

	if !accepts(accept, document.Type) {
		utils.ErrorResponse(c, http.StatusNotAcceptable, "no acceptable representation")
		return
	}

	c.Header("ETag", `"`+document.Hash+`"`)
	c.Data(http.StatusOK, document.Type, document.Content)
}

// Create stores raw content. Structured bodies belong in the entity
// resources, so JSON and XML payloads are rejected with 415. Uploading
// content that already exists returns the stored document unchanged.
func (h *DocumentHandler) Create(c *gin.Context) {
	if _, err := requester(c.Request.Context(), c, h.people); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	contentType := c.ContentType()
	if isStructuredType(contentType) {
		utils.ErrorResponse(c, http.StatusUnsupportedMediaType, "structured content belongs in entity resources")
		return
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	content, err := io.ReadAll(io.LimitReader(c.Request.Body, maxDocumentSize+1))
	if err != nil {
		utils.ErrorResponseWithError(c, apperrors.NewValidationError("failed to read request body"))
		return
	}
	if len(content) == 0 {
		utils.ErrorResponseWithError(c, apperrors.NewValidationError("document content must not be empty"))
		return
	}
	if len(content) > maxDocumentSize {
		utils.ErrorResponse(c, http.StatusRequestEntityTooLarge, "document exceeds the size limit")
		return
	}

	hash := auth.Sha2HexBytes(content)
	existing, err := h.documents.GetByHash(c.Request.Context(), hash)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	if existing != nil {
		utils.OKResponse(c, dto.NewDocumentView(existing))
		return
	}

	document := &models.DocumentModel{
		Type:    contentType,
		Content: content,
	}
	if description := c.GetHeader(constants.HeaderContentDesc); description != "" {
		document.Description = &description
	}

	if err := h.documents.Create(c.Request.Context(), document); err != nil {
		if apperrors.IsDuplicateError(err) {
			utils.ErrorResponseWithError(c, apperrors.NewConflictError("document already exists"))
			return
		}
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.CreatedResponse(c, dto.NewDocumentView(document))
}

// Delete removes a document. Administrators only; the seeded default avatar
// and documents still referenced as avatars or illustrations are protected.
func (h *DocumentHandler) Delete(c *gin.Context) {
	id, err := utils.ParseIDParam(c, "id")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	actor, err := requester(c.Request.Context(), c, h.people)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	if actor.Group != models.GroupAdmin {
		utils.ErrorResponseWithError(c, apperrors.NewForbiddenError("administrator access required"))
		return
	}
	if id <= constants.DefaultAvatarID {
		utils.ErrorResponseWithError(c, apperrors.NewForbiddenError("the default avatar cannot be removed"))
		return
	}

	document, err := h.documents.GetMeta(c.Request.Context(), id)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	if document == nil {
		utils.ErrorResponseWithError(c, apperrors.NewNotFoundError("document not found"))
		return
	}

	references, err := h.documents.ReferenceCount(c.Request.Context(), id)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	if references > 0 {
		utils.ErrorResponseWithError(c, apperrors.NewConflictError("document is still referenced"))
		return
	}

	if err := h.documents.Delete(c.Request.Context(), id); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.NoContentResponse(c)
}

func wantsJSON(accept string) bool {
	for _, part := range strings.Split(accept, ",") {
		mediaType, _, _ := strings.Cut(strings.TrimSpace(part), ";")
		if strings.TrimSpace(mediaType) == "application/json" {
			return true
		}
	}
	return false
}

// accepts reports whether the Accept header admits the given content type.
// An absent header accepts anything.
func accepts(accept, contentType string) bool {
	if accept == "" {
		return true
	}
	mainType, _, _ := strings.Cut(contentType, "/")
	for _, part := range strings.Split(accept, ",") {
		mediaType, _, _ := strings.Cut(strings.TrimSpace(part), ";")
		mediaType = strings.TrimSpace(mediaType)
		switch {
		case mediaType == "*/*":
			return true
		case mediaType == contentType:
			return true
		case strings.HasSuffix(mediaType, "/*") && strings.TrimSuffix(mediaType, "/*") == mainType:
			return true
		}
	}
	return false
}

func isStructuredType(contentType string) bool {
	switch {
	case strings.Contains(contentType, "json"):
		return true
	case strings.Contains(contentType, "xml"):
		return true
	}
	return false
}
