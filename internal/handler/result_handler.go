package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/exproctor/internal/middleware"
	"github.com/stemsi/exproctor/internal/model"
	"github.com/stemsi/exproctor/internal/response"
	"github.com/stemsi/exproctor/internal/service"
	"github.com/stemsi/exproctor/internal/validator"
)

// ResultHandler handles submission, proctoring logs and result views.
type ResultHandler struct {
	resultService *service.ResultService
}

// NewResultHandler creates a new ResultHandler.
func NewResultHandler(resultService *service.ResultService) *ResultHandler {
	return &ResultHandler{resultService: resultService}
}

// Submit godoc
// POST /api/v1/results/submit
// Scores and stores the caller's answers. A second submission is rejected.
func (h *ResultHandler) Submit(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.SubmitExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res, err := h.resultService.Submit(c.Request.Context(), req.ExamID, claims.UserID, req.Answers)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"result_id":   res.ID,
		"score":       res.Score,
		"total_marks": res.TotalMarks,
	})
}

// ProctoringLog godoc
// POST /api/v1/results/proctoring-log
// Appends a proctoring event to the caller's result and relays it to the
// exam's proctors.
func (h *ResultHandler) ProctoringLog(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.ProctoringLogRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	err := h.resultService.AppendProctoringEvent(c.Request.Context(), model.ProctoringEvent{
		ExamID:      req.ExamID,
		StudentID:   claims.UserID,
		StudentName: claims.Name,
		Event:       req.Event,
	})
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"logged": true})
}

// ResultsForExam godoc
// GET /api/v1/results/exam/:exam_id
// Lists every result of an exam for the teacher who created it.
func (h *ResultHandler) ResultsForExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, ok := examIDParam(c)
	if !ok {
		return
	}

	results, err := h.resultService.ResultsForExam(c.Request.Context(), examID, claims.UserID)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"results": results})
}

// MyResult godoc
// GET /api/v1/results/me/:exam_id
// Returns the caller's own result for an exam.
func (h *ResultHandler) MyResult(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, ok := examIDParam(c)
	if !ok {
		return
	}

	res, err := h.resultService.ResultForStudent(c.Request.Context(), examID, claims.UserID)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": res})
}
