package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/internal/models"
	appErrors "github.com/robindaddy-LI/EDU-SYSTEM-sub001/pkg/errors"
)

func TestTeacherHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &teacherServiceMock{teacher: &models.Teacher{ID: "t-1", FullName: "Ana Lima", Type: models.TeacherTypeFormal, Status: models.TeacherStatusActive}}
	h := NewTeacherHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/teachers", bytes.NewBufferString(`{"fullName":"Ana Lima","email":"ana@school.test"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Ana Lima", mockSvc.lastCreate.FullName)
	require.NotNil(t, mockSvc.lastCreate.Email)
	assert.Equal(t, "ana@school.test", *mockSvc.lastCreate.Email)
}

func TestTeacherHandlerCreateEmailTaken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewTeacherHandler(&teacherServiceMock{err: appErrors.Clone(appErrors.ErrConflict, "email already in use")})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/teachers", bytes.NewBufferString(`{"fullName":"Ana Lima","email":"ana@school.test"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Create(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestTeacherHandlerDeactivate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &teacherServiceMock{teacher: &models.Teacher{ID: "t-1", Status: models.TeacherStatusInactive}}
	h := NewTeacherHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodDelete, "/teachers/t-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "t-1"}}

	h.Deactivate(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "t-1", mockSvc.lastID)
	assert.Contains(t, w.Body.String(), `"status":"inactive"`)
}
