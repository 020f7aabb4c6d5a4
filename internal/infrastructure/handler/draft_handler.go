package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	appservice "github.com/ThomasKLA10/expense-app/internal/application/service"
	"github.com/ThomasKLA10/expense-app/internal/domain/entity"
	"github.com/ThomasKLA10/expense-app/internal/infrastructure/logger"
	"github.com/ThomasKLA10/expense-app/internal/infrastructure/middleware"
	"github.com/gorilla/mux"
)

// maxUploadBytes bounds receipt uploads and drops.
const maxUploadBytes = 32 << 20

// DraftHandler handles HTTP requests for expense report drafts
type DraftHandler struct {
	service *appservice.DraftService
	logger  logger.Logger
}

// NewDraftHandler creates a new draft handler
func NewDraftHandler(service *appservice.DraftService, log logger.Logger) *DraftHandler {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &DraftHandler{
		service: service,
		logger:  log,
	}
}

// CreateDraft opens a new draft
func (h *DraftHandler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id := h.service.CreateDraft(r.Context())

	h.logger.Info("Draft opened", map[string]interface{}{
		"request_id": requestID,
		"draft_id":   id,
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(CreateDraftResponse{ID: id})
}

// GetDraft returns the draft snapshot
func (h *DraftHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	draftID := mux.Vars(r)["id"]

	view, err := h.service.Snapshot(draftID)
	if err != nil {
		h.respondError(w, err, requestID)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(draftResponseFromView(view))
}

// UpdateDraft sets report-level fields (category, comment, travel details)
func (h *DraftHandler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	draftID := mux.Vars(r)["id"]

	var req UpdateDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendErrorResponse(w, h.logger, "Invalid request body",
			"The request body could not be parsed as valid JSON", http.StatusBadRequest, requestID)
		return
	}

	if req.Category != nil {
		if err := h.service.SetCategory(r.Context(), draftID, *req.Category); err != nil {
			h.respondError(w, err, requestID)
			return
		}
	}
	if req.Comment != nil {
		if err := h.service.SetComment(r.Context(), draftID, *req.Comment); err != nil {
			h.respondError(w, err, requestID)
			return
		}
	}
	if req.Travel != nil {
		travel := entity.TravelDetails{
			Purpose:   req.Travel.Purpose,
			From:      req.Travel.From,
			To:        req.Travel.To,
			Departure: req.Travel.Departure,
			Return:    req.Travel.Return,
		}
		if err := h.service.SetTravel(r.Context(), draftID, travel); err != nil {
			h.respondError(w, err, requestID)
			return
		}
	}

	h.writeSnapshot(w, draftID, requestID)
}

// AddLine appends an empty expense line
func (h *DraftHandler) AddLine(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	draftID := mux.Vars(r)["id"]

	lineID, err := h.service.AddLine(r.Context(), draftID)
	if err != nil {
		h.respondError(w, err, requestID)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(AddLineResponse{ID: lineID})
}

// UpdateLine edits one line's fields and triggers the recompute path
func (h *DraftHandler) UpdateLine(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	vars := mux.Vars(r)

	var req UpdateLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendErrorResponse(w, h.logger, "Invalid request body",
			"The request body could not be parsed as valid JSON", http.StatusBadRequest, requestID)
		return
	}

	changes := appservice.LineChanges{
		Date:        req.Date,
		Description: req.Description,
		Amount:      req.Amount,
		Currency:    req.Currency,
	}

	if err := h.service.UpdateLine(r.Context(), vars["id"], vars["lineID"], changes); err != nil {
		h.respondError(w, err, requestID)
		return
	}

	h.writeSnapshot(w, vars["id"], requestID)
}

// DeleteLine removes a line and its attachment
func (h *DraftHandler) DeleteLine(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	vars := mux.Vars(r)

	if err := h.service.DeleteLine(r.Context(), vars["id"], vars["lineID"]); err != nil {
		h.respondError(w, err, requestID)
		return
	}

	h.writeSnapshot(w, vars["id"], requestID)
}

// UploadReceipt attaches a receipt file to a line and runs OCR ingestion
func (h *DraftHandler) UploadReceipt(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	vars := mux.Vars(r)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		sendErrorResponse(w, h.logger, "Invalid upload",
			"Expected a multipart form with a 'file' part", http.StatusBadRequest, requestID)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		sendErrorResponse(w, h.logger, "Invalid upload",
			"Expected a multipart form with a 'file' part", http.StatusBadRequest, requestID)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		sendErrorResponse(w, h.logger, "Invalid upload",
			"The uploaded file could not be read", http.StatusBadRequest, requestID)
		return
	}

	if !appservice.AllowedReceiptFile(header.Filename) {
		sendErrorResponse(w, h.logger, "Unsupported file type",
			"Receipts must be pdf, png, jpg, jpeg, or gif", http.StatusBadRequest, requestID)
		return
	}

	err = h.service.IngestReceipt(r.Context(), vars["id"], vars["lineID"],
		header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		h.respondError(w, err, requestID)
		return
	}

	h.writeSnapshot(w, vars["id"], requestID)
}

// DropFiles creates one line per dropped file, in drop order
func (h *DraftHandler) DropFiles(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	draftID := mux.Vars(r)["id"]

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		sendErrorResponse(w, h.logger, "Invalid upload",
			"Expected a multipart form with 'files[]' parts", http.StatusBadRequest, requestID)
		return
	}

	var files []appservice.DroppedFile
	for _, header := range r.MultipartForm.File["files[]"] {
		file, err := header.Open()
		if err != nil {
			sendErrorResponse(w, h.logger, "Invalid upload",
				"A dropped file could not be read", http.StatusBadRequest, requestID)
			return
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			sendErrorResponse(w, h.logger, "Invalid upload",
				"A dropped file could not be read", http.StatusBadRequest, requestID)
			return
		}
		files = append(files, appservice.DroppedFile{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	lineIDs, err := h.service.IngestDroppedFiles(r.Context(), draftID, files)
	if err != nil {
		h.respondError(w, err, requestID)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(DropResponse{LineIDs: lineIDs})
}

// Submit validates and submits the draft
func (h *DraftHandler) Submit(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	draftID := mux.Vars(r)["id"]

	outcome, err := h.service.Submit(r.Context(), draftID)
	if err != nil {
		var validationErr *appservice.ValidationError
		switch {
		case errors.As(err, &validationErr):
			sendErrorResponse(w, h.logger, validationErr.Message, "", http.StatusBadRequest, requestID)
		case errors.Is(err, appservice.ErrSubmissionInFlight):
			sendErrorResponse(w, h.logger, "Submission already in progress", "", http.StatusConflict, requestID)
		case errors.Is(err, appservice.ErrDraftNotFound):
			sendErrorResponse(w, h.logger, "Draft not found",
				"The requested draft could not be found", http.StatusNotFound, requestID)
		default:
			h.logger.Error("Submission transport error", map[string]interface{}{
				"request_id": requestID,
				"draft_id":   draftID,
				"error":      err.Error(),
			})
			sendErrorResponse(w, h.logger, "Unable to submit the form",
				"Please check your inputs and try again", http.StatusBadGateway, requestID)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SubmitResponse{
		Success:  outcome.Success,
		Redirect: outcome.Redirect,
		Error:    outcome.Error,
		ReportID: outcome.ReportID,
	})
}

// RegisterRoutes registers the draft handler routes
func (h *DraftHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/drafts", h.CreateDraft).Methods("POST")
	router.HandleFunc("/drafts/{id}", h.GetDraft).Methods("GET")
	router.HandleFunc("/drafts/{id}", h.UpdateDraft).Methods("PATCH")
	router.HandleFunc("/drafts/{id}/lines", h.AddLine).Methods("POST")
	router.HandleFunc("/drafts/{id}/lines/{lineID}", h.UpdateLine).Methods("PATCH")
	router.HandleFunc("/drafts/{id}/lines/{lineID}", h.DeleteLine).Methods("DELETE")
	router.HandleFunc("/drafts/{id}/lines/{lineID}/receipt", h.UploadReceipt).Methods("POST")
	router.HandleFunc("/drafts/{id}/files", h.DropFiles).Methods("POST")
	router.HandleFunc("/drafts/{id}/submit", h.Submit).Methods("POST")

	h.logger.Info("Draft routes registered", map[string]interface{}{
		"routes": []string{
			"POST /drafts",
			"GET /drafts/{id}",
			"PATCH /drafts/{id}",
			"POST /drafts/{id}/lines",
			"PATCH /drafts/{id}/lines/{lineID}",
			"DELETE /drafts/{id}/lines/{lineID}",
			"POST /drafts/{id}/lines/{lineID}/receipt",
			"POST /drafts/{id}/files",
			"POST /drafts/{id}/submit",
		},
	})
}

// writeSnapshot responds with the draft's post-change state.
func (h *DraftHandler) writeSnapshot(w http.ResponseWriter, draftID, requestID string) {
	view, err := h.service.Snapshot(draftID)
	if err != nil {
		h.respondError(w, err, requestID)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(draftResponseFromView(view))
}

// respondError maps service errors to HTTP responses.
func (h *DraftHandler) respondError(w http.ResponseWriter, err error, requestID string) {
	switch {
	case errors.Is(err, appservice.ErrDraftNotFound):
		sendErrorResponse(w, h.logger, "Draft not found",
			"The requested draft could not be found", http.StatusNotFound, requestID)
	case errors.Is(err, appservice.ErrLineNotFound):
		sendErrorResponse(w, h.logger, "Expense line not found",
			"The requested expense line could not be found", http.StatusNotFound, requestID)
	default:
		sendErrorResponse(w, h.logger, "Invalid request", err.Error(), http.StatusBadRequest, requestID)
	}
}

func draftResponseFromView(view *appservice.DraftView) DraftResponse {
	resp := DraftResponse{
		ID:       view.ID,
		Category: view.Category,
		Comment:  view.Comment,
		Lines:    make([]LineResponse, 0, len(view.Lines)),
		Total:    view.Total,
	}

	if view.Category == entity.CategoryTravel {
		resp.Travel = &TravelDetails{
			Purpose:   view.Travel.Purpose,
			From:      view.Travel.From,
			To:        view.Travel.To,
			Departure: view.Travel.Departure,
			Return:    view.Travel.Return,
		}
	}

	for _, line := range view.Lines {
		resp.Lines = append(resp.Lines, LineResponse{
			ID:          line.ID,
			Date:        line.Date,
			Description: line.Description,
			Amount:      line.Amount,
			Currency:    string(line.Currency),
			RateLine:    line.RateLine,
			CalcLine:    line.CalcLine,
			ReceiptName: line.ReceiptName,
		})
	}

	return resp
}

// sendErrorResponse sends a standardized error response
func sendErrorResponse(w http.ResponseWriter, log logger.Logger, message, description string, statusCode int, requestID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	resp := ErrorResponse{
		Error:       message,
		Status:      statusCode,
		Description: description,
		RequestID:   requestID,
	}

	log.Debug("Sending error response", map[string]interface{}{
		"request_id":  requestID,
		"status_code": statusCode,
		"message":     message,
	})

	json.NewEncoder(w).Encode(resp)
}
