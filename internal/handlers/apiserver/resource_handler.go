package apiserver

import (
	"fmt"
	"net/http"
	"strconv"

	"forum-go/internal/config"
	"forum-go/internal/middleware"
	"forum-go/internal/services"
)

const (
	defaultMaxMemory = 32 << 20 // max memory for the non-file parts of multipart forms
)

// ResourceHandler bundles the group resource HTTP handlers. Uploads arrive
// as multipart forms; the file goes to the storage service and the metadata
// to the resource service.
type ResourceHandler struct {
	resourceService services.ResourceService
	cfg             config.StorageConfig
}

// NewResourceHandler creates a new ResourceHandler instance.
func NewResourceHandler(resourceService services.ResourceService, cfg config.StorageConfig) *ResourceHandler {
	return &ResourceHandler{
		resourceService: resourceService,
		cfg:             cfg,
	}
}

// UploadResourceHandler handles uploading a file into a group. The multipart
// form carries the file under "file", plus optional "title" and
// "discussionId" fields.
func (h *ResourceHandler) UploadResourceHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	groupID, err := pathID(r, "groupID")
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	maxUploadSize := h.cfg.MaxFileSizeMB << 20
	if maxUploadSize <= 0 {
		maxUploadSize = defaultMaxMemory
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(defaultMaxMemory); err != nil {
		if err.Error() == "http: request body too large" {
			writeJSONError(w, fmt.Sprintf("file too large, limit is %d MB", maxUploadSize>>20), http.StatusRequestEntityTooLarge)
		} else {
			writeJSONError(w, fmt.Sprintf("failed to parse form: %v", err), http.StatusBadRequest)
		}
		return
	}

	file, handler, err := r.FormFile("file")
	if err != nil {
		if err == http.ErrMissingFile {
			writeJSONError(w, "missing 'file' field", http.StatusBadRequest)
		} else {
			writeJSONError(w, fmt.Sprintf("failed to read file: %v", err), http.StatusBadRequest)
		}
		return
	}
	defer file.Close()

	if handler.Size > maxUploadSize {
		writeJSONError(w, fmt.Sprintf("file too large, limit is %d MB", maxUploadSize>>20), http.StatusRequestEntityTooLarge)
		return
	}

	title := r.FormValue("title")
	var discussionID *uint
	if raw := r.FormValue("discussionId"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			writeJSONError(w, "invalid discussionId format", http.StatusBadRequest)
			return
		}
		id := uint(parsed)
		discussionID = &id
	}

	mimeType := handler.Header.Get("Content-Type")
	resource, err := h.resourceService.UploadResource(r.Context(), userID, groupID, discussionID, title, file, handler.Size, handler.Filename, mimeType)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, resource)
}

// ListResourcesHandler lists a group's resources. Members only.
func (h *ResourceHandler) ListResourcesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	groupID, err := pathID(r, "groupID")
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	limit, offset := paginationParams(r, 50, 100)

	resources, err := h.resourceService.ListResources(r.Context(), userID, groupID, limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, resources)
}

// DeleteResourceHandler removes a resource. Uploader or group admin only.
func (h *ResourceHandler) DeleteResourceHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	resourceID, err := pathID(r, "resourceID")
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.resourceService.DeleteResource(r.Context(), userID, resourceID); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "resource deleted"})
}
