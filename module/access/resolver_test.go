package access

import (
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveGrants_Public(t *testing.T) {
	db, _, _ := sqlmock.New()
	defer db.Close()

	r := NewResolver(db)
	targets, unresolved, err := r.ResolveGrants("-1", "owner")
	require.NoError(t, err)
	assert.Empty(t, unresolved)
	require.Len(t, targets, 1)
	assert.Equal(t, GrantPublic, targets[0].Kind)
}

func TestResolveGrants_Empty(t *testing.T) {
	db, _, _ := sqlmock.New()
	defer db.Close()

	r := NewResolver(db)
	for _, spec := range []string{"", "   ", ","} {
		targets, unresolved, err := r.ResolveGrants(spec, "owner")
		require.NoError(t, err, "spec=%q", spec)
		assert.Empty(t, targets, "spec=%q", spec)
		assert.Empty(t, unresolved, "spec=%q", spec)
	}
}

func TestResolveGrants_Usernames(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "username"}).
		AddRow("u_alice", "alice").
		AddRow("u_bob", "bob")
	mock.ExpectQuery("SELECT id, username FROM users WHERE username IN").
		WithArgs("alice", "bob", "ghost").
		WillReturnRows(rows)

	r := NewResolver(db)
	targets, unresolved, err := r.ResolveGrants("alice, bob,ghost", "owner")
	require.NoError(t, err)

	// 解析不到的用户名必须可观测地返回，而不是静默丢弃
	assert.Equal(t, []string{"ghost"}, unresolved)
	require.Len(t, targets, 2)
	assert.Equal(t, GrantTarget{Kind: GrantUser, UserID: "u_alice"}, targets[0])
	assert.Equal(t, GrantTarget{Kind: GrantUser, UserID: "u_bob"}, targets[1])
}

func TestResolveGrants_OwnerSkipped(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	// 属主被跳过后，只有 alice 进入批量查询
	rows := sqlmock.NewRows([]string{"id", "username"}).AddRow("u_alice", "alice")
	mock.ExpectQuery("SELECT id, username FROM users WHERE username IN").
		WithArgs("alice").
		WillReturnRows(rows)

	r := NewResolver(db)
	targets, unresolved, err := r.ResolveGrants("owner,alice", "owner")
	require.NoError(t, err)
	assert.Empty(t, unresolved)
	require.Len(t, targets, 1)
	assert.Equal(t, "u_alice", targets[0].UserID)
}

func TestGrantAccess_PublicSentinelRow(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO access (user_id, survey_id) VALUES (?, ?)")).
		WithArgs("-1", int64(9)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	r := NewResolver(db)
	err := r.GrantAccess(9, []GrantTarget{{Kind: GrantPublic}})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccessibleSurveys(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM users WHERE username = ?")).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("u_alice"))

	owned := sqlmock.NewRows([]string{"id", "survey_name", "description", "owner_id"}).
		AddRow(1, "mine", "d1", "u_alice").
		AddRow(2, "also mine", nil, "u_alice")
	mock.ExpectQuery("FROM surveys WHERE owner_id").
		WithArgs("u_alice").
		WillReturnRows(owned)

	// 问卷 2 同时有显式授权行，结果必须按ID去重
	granted := sqlmock.NewRows([]string{"id", "survey_name", "description", "owner_id"}).
		AddRow(2, "also mine", nil, "u_alice").
		AddRow(5, "shared", "d5", "u_bob").
		AddRow(8, "public one", "d8", "u_carol")
	mock.ExpectQuery("JOIN access a ON a.survey_id = s.id").
		WithArgs("u_alice", "-1").
		WillReturnRows(granted)

	r := NewResolver(db)
	surveys, err := r.AccessibleSurveys("alice")
	require.NoError(t, err)

	ids := make([]int64, 0, len(surveys))
	for _, s := range surveys {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []int64{1, 2, 5, 8}, ids)
}

func TestAccessibleSurveys_UserGone(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	// 会话仍有效但用户行已删除：数据一致性问题按用户不存在上报
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM users WHERE username = ?")).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	r := NewResolver(db)
	_, err := r.AccessibleSurveys("ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
