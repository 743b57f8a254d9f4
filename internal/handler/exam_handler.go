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

// ExamHandler handles exam authoring and the student exam endpoints.
type ExamHandler struct {
	examService *service.ExamService
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService *service.ExamService) *ExamHandler {
	return &ExamHandler{examService: examService}
}

// CreateExam godoc
// POST /api/v1/exams
// Creates an exam from questions of the teacher's subject.
func (h *ExamHandler) CreateExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.CreateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.CreateExam(c.Request.Context(), claims.UserID, claims.Subject, req)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"exam": exam})
}

// QuestionBank godoc
// GET /api/v1/exams/questions
// Lists the question bank of the calling teacher's subject.
func (h *ExamHandler) QuestionBank(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	questions, err := h.examService.QuestionBank(c.Request.Context(), claims.Subject)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// ListMyExams godoc
// GET /api/v1/exams
// Lists the exams created by the calling teacher.
func (h *ExamHandler) ListMyExams(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	exams, err := h.examService.ListByTeacher(c.Request.Context(), claims.UserID)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exams": exams})
}

// ListAvailable godoc
// GET /api/v1/exams/student/all
// Lists the exams whose late-entry deadline has not passed.
func (h *ExamHandler) ListAvailable(c *gin.Context) {
	exams, err := h.examService.ListAvailableForStudent(c.Request.Context())
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exams": exams})
}

// StartExam godoc
// GET /api/v1/exams/start/:exam_id
// Returns the exam with its questions when the entry window is open.
func (h *ExamHandler) StartExam(c *gin.Context) {
	examID, ok := examIDParam(c)
	if !ok {
		return
	}

	payload, err := h.examService.GetExamForStudent(c.Request.Context(), examID)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exam": payload})
}
