package services

import (
	"context"
	"testing"

	"github.com/rnbmx/bmxshop/internal/common"
	"github.com/rnbmx/bmxshop/internal/logging"
	"github.com/rnbmx/bmxshop/internal/server/models"
	"github.com/rnbmx/bmxshop/internal/server/repositories/repotest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviews_CreateListDelete(t *testing.T) {
	db, mock := newSQLMockDB(t)
	m := repotest.NewManager()
	as := newAuthService(t, db, m)
	rs := NewReviewService(db, m, logging.Nop{})

	author := signUp(t, as, mock, sample)
	other := signUp(t, as, mock, SignUpInput{Email: "o@x.com", Password: "secret123", FirstName: "O", LastName: "P"})
	admin := signUp(t, as, mock, SignUpInput{Email: "adm@x.com", Password: "secret123", FirstName: "Ad", LastName: "Min", Roles: []string{"admin"}})
	p := m.AddProduct(models.Product{Name: "Pegs", Category: "Componenti"})

	rv, err := rs.Create(context.Background(), principalOf(author), p.ID, ReviewInput{Rating: 5, Title: "Great", Comment: "Solid pegs"})
	require.NoError(t, err)
	assert.Equal(t, "A B", rv.AuthorName)

	list, err := rs.ForProduct(context.Background(), p.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.ErrorIs(t, rs.Delete(context.Background(), principalOf(other), rv.ID), common.ErrAccessDenied)
	require.ErrorIs(t, rs.Delete(context.Background(), nil, rv.ID), common.ErrorUnauthorized)
	require.NoError(t, rs.Delete(context.Background(), principalOf(admin), rv.ID))
	require.ErrorIs(t, rs.Delete(context.Background(), principalOf(author), rv.ID), common.ErrorNotFound)
}

func TestReviews_CreateRejections(t *testing.T) {
	db, mock := newSQLMockDB(t)
	m := repotest.NewManager()
	as := newAuthService(t, db, m)
	rs := NewReviewService(db, m, logging.Nop{})
	u := signUp(t, as, mock, sample)
	p := m.AddProduct(models.Product{Name: "Grips", Category: "Componenti"})

	for _, rating := range []int{0, 6} {
		_, err := rs.Create(context.Background(), principalOf(u), p.ID, ReviewInput{Rating: rating, Title: "t", Comment: "c"})
		var ve *common.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Contains(t, ve.Fields, "rating")
	}

	_, err := rs.Create(context.Background(), principalOf(u), p.ID, ReviewInput{Rating: 3})
	var ve *common.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "title")
	assert.Contains(t, ve.Fields, "comment")

	_, err = rs.Create(context.Background(), principalOf(u), 777, ReviewInput{Rating: 3, Title: "t", Comment: "c"})
	require.ErrorIs(t, err, common.ErrorNotFound)

	_, err = rs.Create(context.Background(), nil, p.ID, ReviewInput{Rating: 3, Title: "t", Comment: "c"})
	require.ErrorIs(t, err, common.ErrorUnauthorized)
}
