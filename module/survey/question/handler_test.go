package question

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.PUT("/api/survey/:surveyId/questions", UpdateSurveyQuestionsHandler)
	return r
}

func TestUpdateQuestions_ReplacesWholesale(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	Init(mockDB)

	mock.ExpectQuery("SELECT 1 FROM surveys WHERE id = ?").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	mock.ExpectBegin()
	// 先整表删除，再按请求顺序插入，question_order 从 0 开始
	mock.ExpectExec("DELETE FROM questions WHERE survey_id = ?").
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO questions").
		WithArgs(int64(7), "single", "最喜欢的颜色", "红;绿;蓝", 0).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO questions").
		WithArgs(int64(7), "multi", "常用的语言", "Go;Java", 1).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	body := `{"questions":[
		{"questionType":"single","questionDescription":"最喜欢的颜色","body":"红;绿;蓝"},
		{"questionType":"multi","questionDescription":"常用的语言","body":"Go;Java"}
	]}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/survey/7/questions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	newTestRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Questions updated successfully.")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateQuestions_NullListOnlyDeletes(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	Init(mockDB)

	mock.ExpectQuery("SELECT 1 FROM surveys WHERE id = ?").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM questions WHERE survey_id = ?").
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/survey/7/questions", strings.NewReader(`{"questions":null}`))
	req.Header.Set("Content-Type", "application/json")
	newTestRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateQuestions_SurveyMissing(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	Init(mockDB)

	mock.ExpectQuery("SELECT 1 FROM surveys WHERE id = ?").
		WithArgs(int64(404)).
		WillReturnError(sql.ErrNoRows)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/survey/404/questions", strings.NewReader(`{"questions":[]}`))
	req.Header.Set("Content-Type", "application/json")
	newTestRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateQuestions_BadSurveyID(t *testing.T) {
	mockDB, _, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	Init(mockDB)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/survey/abc/questions", strings.NewReader(`{"questions":[]}`))
	req.Header.Set("Content-Type", "application/json")
	newTestRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
