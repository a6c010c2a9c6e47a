package importer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"storefront/internal/domain"
)

type stubProductRepo struct {
	items []domain.Product
}

func (s *stubProductRepo) Upsert(_ context.Context, p domain.Product) (*domain.Product, error) {
	s.items = append(s.items, p)
	return &p, nil
}

func TestCSVImporter_Run(t *testing.T) {
	csvData := `id,key,title,description,price,quantity,madeToOrder,active
00000000-0000-0000-0000-000000000001,mug,Mug,Ceramic,1299,5,,
,,,,,,,
,portrait,Portrait,Painted on request,25000,0,true,
,retired,Old Shirt,,999,3,false,false`

	repo := &stubProductRepo{}
	imp := NewCSVImporter(strings.NewReader(csvData), repo, zaptest.NewLogger(t))

	count, err := imp.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	require.Len(t, repo.items, 3)

	mug := repo.items[0]
	assert.Equal(t, "00000000-0000-0000-0000-000000000001", mug.ID)
	assert.Equal(t, int64(1299), mug.PriceCents)
	assert.Equal(t, 5, mug.Quantity)
	assert.False(t, mug.MadeToOrder)
	assert.True(t, mug.Active)

	assert.True(t, repo.items[1].MadeToOrder)
	assert.Zero(t, repo.items[1].Quantity)
	assert.False(t, repo.items[2].Active)
}

func TestCSVImporter_RejectsBadRows(t *testing.T) {
	cases := map[string]string{
		"no title":     "key,title,price\nmug,,100",
		"bad price":    "key,title,price\nmug,Mug,ten",
		"negative qty": "key,title,price,quantity\nmug,Mug,100,-1",
		"bad flag":     "key,title,price,active\nmug,Mug,100,maybe",
		"short id":     "id,key,title,price\n123,mug,Mug,100",
		"no key":       "title,price\nMug,100",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			repo := &stubProductRepo{}
			_, err := NewCSVImporter(strings.NewReader(data), repo, nil).Run(context.Background())
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvalidInput), "got %v", err)
			assert.Empty(t, repo.items)
		})
	}
}

func TestCSVImporter_KeepsRowsBeforeFailure(t *testing.T) {
	data := "key,title,price\nmug,Mug,100\nshirt,Shirt,oops"
	repo := &stubProductRepo{}
	count, err := NewCSVImporter(strings.NewReader(data), repo, nil).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
	assert.Equal(t, 1, count)
	assert.Len(t, repo.items, 1)
}
