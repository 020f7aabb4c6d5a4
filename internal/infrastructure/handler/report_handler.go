package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/ThomasKLA10/expense-app/internal/domain/entity"
	"github.com/ThomasKLA10/expense-app/internal/domain/repository"
	"github.com/ThomasKLA10/expense-app/internal/infrastructure/logger"
	"github.com/ThomasKLA10/expense-app/internal/infrastructure/middleware"
	"github.com/gorilla/mux"
)

// ReportHandler handles HTTP requests for archived reports
type ReportHandler struct {
	repo   repository.ReportRepository
	logger logger.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(repo repository.ReportRepository, log logger.Logger) *ReportHandler {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &ReportHandler{
		repo:   repo,
		logger: log,
	}
}

// GetReport retrieves an archived report by ID
func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	id := mux.Vars(r)["id"]

	report, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			sendErrorResponse(w, h.logger, "Report not found",
				"The requested report could not be found", http.StatusNotFound, requestID)
			return
		}

		h.logger.Error("Failed to retrieve report", map[string]interface{}{
			"request_id": requestID,
			"id":         id,
			"error":      err.Error(),
		})
		sendErrorResponse(w, h.logger, "Internal server error",
			"An unexpected error occurred while retrieving the report",
			http.StatusInternalServerError, requestID)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(reportResponseFromEntity(report))
}

func reportResponseFromEntity(report *entity.Report) ReportResponse {
	resp := ReportResponse{
		ID:          report.ID,
		Category:    report.Category,
		Comment:     report.Comment,
		Lines:       make([]ReportLineResponse, 0, len(report.Lines)),
		TotalEUR:    report.TotalEUR.StringFixed(2),
		Status:      report.Status,
		SubmittedAt: report.SubmittedAt.UTC().Format(time.RFC3339),
	}

	if report.Travel != nil {
		resp.Travel = &TravelDetails{
			Purpose:   report.Travel.Purpose,
			From:      report.Travel.From,
			To:        report.Travel.To,
			Departure: report.Travel.Departure,
			Return:    report.Travel.Return,
		}
	}

	for _, line := range report.Lines {
		resp.Lines = append(resp.Lines, ReportLineResponse{
			Date:           line.Date,
			Description:    line.Description,
			AmountEUR:      line.AmountEUR.StringFixed(2),
			Currency:       string(line.Currency),
			OriginalAmount: line.OriginalAmount.StringFixed(2),
			ReceiptName:    line.ReceiptName,
		})
	}

	return resp
}

// RegisterRoutes registers the report handler routes
func (h *ReportHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/reports/{id}", h.GetReport).Methods("GET")

	h.logger.Info("Report routes registered", map[string]interface{}{
		"routes": []string{
			"GET /reports/{id}",
		},
	})
}
