package survey

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Skaum103/form-flow-backend/module/access"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(username string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("username", username)
		c.Next()
	})
	r.POST("/api/survey/add", CreateSurveyHandler)
	r.GET("/api/survey/list", GetSurveysHandler)
	return r
}

func TestCreateSurvey_BlankNameRejected(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	Init(mockDB, access.NewResolver(mockDB))

	// 名称缺失和全空白都在用户查找之后被同一处校验拒绝
	for _, body := range []string{
		`{"surveyName":"   ","description":"d","accessSpec":""}`,
		`{"description":"d","accessSpec":""}`,
	} {
		mock.ExpectQuery("SELECT id FROM users WHERE username").
			WithArgs("alice").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("u_alice"))

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/survey/add", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		newTestRouter("alice").ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, "body=%s", body)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSurvey_PublicGrant(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	Init(mockDB, access.NewResolver(mockDB))

	mock.ExpectQuery("SELECT id FROM users WHERE username").
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("u_alice"))
	mock.ExpectExec("INSERT INTO surveys").
		WithArgs("调查A", "说明", "u_alice").
		WillReturnResult(sqlmock.NewResult(42, 1))
	// "-1" 公开共享在存储层落成哨兵行
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO access").
		WithArgs("-1", int64(42)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	body := `{"surveyName":"调查A","description":"说明","accessSpec":"-1"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/survey/add", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	newTestRouter("alice").ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"surveyId":42`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSurvey_UnresolvedUsersReported(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	Init(mockDB, access.NewResolver(mockDB))

	mock.ExpectQuery("SELECT id FROM users WHERE username").
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("u_alice"))
	mock.ExpectExec("INSERT INTO surveys").
		WithArgs("调查B", "", "u_alice").
		WillReturnResult(sqlmock.NewResult(43, 1))
	mock.ExpectQuery("SELECT id, username FROM users WHERE username IN").
		WithArgs("bob", "ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username"}).AddRow("u_bob", "bob"))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO access").
		WithArgs("u_bob", int64(43)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	body := `{"surveyName":"调查B","accessSpec":"bob,ghost"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/survey/add", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	newTestRouter("alice").ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"unresolved_users":["ghost"]`)
	assert.NoError(t, mock.ExpectationsWereMet())
}
