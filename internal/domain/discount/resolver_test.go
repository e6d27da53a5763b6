package discount

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	byCode  map[string]*Discount
	typesBy map[string][]string
}

func (m *mockRepo) FindByCode(_ context.Context, code string) (*Discount, error) {
	d, ok := m.byCode[code]
	if !ok {
		return nil, ErrNotFound
	}
	return d, nil
}

func (m *mockRepo) TypeNamesFor(_ context.Context, discountID string) ([]string, error) {
	return m.typesBy[discountID], nil
}

var testNow = time.Date(2026, time.June, 15, 10, 30, 0, 0, time.UTC)

func newTestResolver(repo *mockRepo) *Resolver {
	r := NewResolver(repo)
	r.now = func() time.Time { return testNow }
	return r
}

func futureDate() time.Time {
	return testNow.AddDate(0, 1, 0)
}

func TestResolve_UnknownCodeIsInvalid(t *testing.T) {
	r := newTestResolver(&mockRepo{byCode: map[string]*Discount{}})

	res, err := r.Resolve(context.Background(), []string{"ADULT"}, []string{"NOPE"})
	require.NoError(t, err)

	assert.Equal(t, []string{"NOPE"}, res.Invalid)
	assert.Empty(t, res.Applied)
	assert.NotContains(t, res.Percentages, "NOPE")
}

func TestResolve_ExpiredCodeIsInvalid(t *testing.T) {
	repo := &mockRepo{
		byCode: map[string]*Discount{
			"OLD": {ID: "d1", Code: "OLD", Percentage: 10, ExpiryDate: testNow.AddDate(0, 0, -1)},
		},
		typesBy: map[string][]string{"d1": {"ADULT"}},
	}
	r := newTestResolver(repo)

	res, err := r.Resolve(context.Background(), []string{"ADULT"}, []string{"OLD"})
	require.NoError(t, err)

	assert.Equal(t, []string{"OLD"}, res.Invalid)
}

func TestResolve_ExpiryOnSameDayIsInvalid(t *testing.T) {
	// A code stops working on its expiry day, not the day after.
	repo := &mockRepo{
		byCode: map[string]*Discount{
			"TODAY": {ID: "d1", Code: "TODAY", Percentage: 10, ExpiryDate: testNow},
		},
		typesBy: map[string][]string{"d1": {"ADULT"}},
	}
	r := newTestResolver(repo)

	res, err := r.Resolve(context.Background(), []string{"ADULT"}, []string{"TODAY"})
	require.NoError(t, err)

	assert.Equal(t, []string{"TODAY"}, res.Invalid)
}

func TestResolve_ValidButNoCartOverlapIsInapplicable(t *testing.T) {
	repo := &mockRepo{
		byCode: map[string]*Discount{
			"VIPONLY": {ID: "d1", Code: "VIPONLY", Percentage: 50, ExpiryDate: futureDate()},
		},
		typesBy: map[string][]string{"d1": {"VIP"}},
	}
	r := newTestResolver(repo)

	res, err := r.Resolve(context.Background(), []string{"ADULT", "CHILD"}, []string{"VIPONLY"})
	require.NoError(t, err)

	assert.Equal(t, []string{"VIPONLY"}, res.Inapplicable)
	assert.Empty(t, res.Applied)
	// The rate is still reported so a client can display it.
	assert.Equal(t, 50, res.Percentages["VIPONLY"])
}

func TestResolve_AppliedCoversMatchingTypesOnly(t *testing.T) {
	repo := &mockRepo{
		byCode: map[string]*Discount{
			"KIDS20": {ID: "d1", Code: "KIDS20", Percentage: 20, ExpiryDate: futureDate()},
		},
		typesBy: map[string][]string{"d1": {"CHILD", "SENIOR"}},
	}
	r := newTestResolver(repo)

	res, err := r.Resolve(context.Background(), []string{"ADULT", "CHILD"}, []string{"KIDS20"})
	require.NoError(t, err)

	assert.Equal(t, []string{"CHILD"}, res.Applied["KIDS20"])
	assert.Equal(t, 20, res.BestPercentFor("CHILD"))
	assert.Equal(t, 0, res.BestPercentFor("ADULT"))
}

func TestResolve_BestPercentWinsPerType(t *testing.T) {
	repo := &mockRepo{
		byCode: map[string]*Discount{
			"TEN":    {ID: "d1", Code: "TEN", Percentage: 10, ExpiryDate: futureDate()},
			"TWENTY": {ID: "d2", Code: "TWENTY", Percentage: 20, ExpiryDate: futureDate()},
		},
		typesBy: map[string][]string{
			"d1": {"ADULT"},
			"d2": {"ADULT"},
		},
	}
	r := newTestResolver(repo)

	res, err := r.Resolve(context.Background(), []string{"ADULT"}, []string{"TEN", "TWENTY"})
	require.NoError(t, err)

	assert.Len(t, res.Applied, 2)
	assert.Equal(t, 20, res.BestPercentFor("ADULT"))
}

func TestResolve_BlankCodesIgnored(t *testing.T) {
	r := newTestResolver(&mockRepo{byCode: map[string]*Discount{}})

	res, err := r.Resolve(context.Background(), []string{"ADULT"}, []string{"", "   ", "\t"})
	require.NoError(t, err)

	assert.Empty(t, res.Invalid)
	assert.Empty(t, res.Inapplicable)
	assert.Empty(t, res.Applied)
}

func TestResolve_TrimsWhitespace(t *testing.T) {
	repo := &mockRepo{
		byCode: map[string]*Discount{
			"SAVE10": {ID: "d1", Code: "SAVE10", Percentage: 10, ExpiryDate: futureDate()},
		},
		typesBy: map[string][]string{"d1": {"ADULT"}},
	}
	r := newTestResolver(repo)

	res, err := r.Resolve(context.Background(), []string{"ADULT"}, []string{"  SAVE10  "})
	require.NoError(t, err)

	assert.Contains(t, res.Applied, "SAVE10")
}

func TestResolve_MixedClassification(t *testing.T) {
	repo := &mockRepo{
		byCode: map[string]*Discount{
			"GOOD":    {ID: "d1", Code: "GOOD", Percentage: 15, ExpiryDate: futureDate()},
			"ELSEWHR": {ID: "d2", Code: "ELSEWHR", Percentage: 30, ExpiryDate: futureDate()},
		},
		typesBy: map[string][]string{
			"d1": {"ADULT"},
			"d2": {"VIP"},
		},
	}
	r := newTestResolver(repo)

	res, err := r.Resolve(context.Background(), []string{"ADULT"}, []string{"GOOD", "ELSEWHR", "BOGUS"})
	require.NoError(t, err)

	assert.Contains(t, res.Applied, "GOOD")
	assert.Equal(t, []string{"ELSEWHR"}, res.Inapplicable)
	assert.Equal(t, []string{"BOGUS"}, res.Invalid)
	assert.ElementsMatch(t, []string{"ELSEWHR", "BOGUS"}, res.Changed())
}

func TestChanged_NilWhenAllUsable(t *testing.T) {
	repo := &mockRepo{
		byCode: map[string]*Discount{
			"GOOD": {ID: "d1", Code: "GOOD", Percentage: 15, ExpiryDate: futureDate()},
		},
		typesBy: map[string][]string{"d1": {"ADULT"}},
	}
	r := newTestResolver(repo)

	res, err := r.Resolve(context.Background(), []string{"ADULT"}, []string{"GOOD"})
	require.NoError(t, err)

	assert.Nil(t, res.Changed())
}
