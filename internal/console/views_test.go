package console

import (
	"slices"
	"testing"
	"time"

	"adspace/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

var base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func inquiry(id, first, last string, status domain.InquiryStatus, age time.Duration) domain.Inquiry {
	return domain.Inquiry{
		ID:        id,
		FirstName: first,
		LastName:  last,
		Email:     first + "@example.com",
		Message:   "Billboards near the highway",
		Status:    status,
		CreatedAt: base.Add(-age),
	}
}

func sample() []domain.Inquiry {
	return []domain.Inquiry{
		inquiry("1", "zoe", "Park", domain.StatusUnread, 3*time.Hour),
		inquiry("2", "Émile", "Roy", domain.StatusRead, time.Hour),
		inquiry("3", "adam", "Khan", domain.StatusUnread, 2*time.Hour),
		inquiry("4", "Meera", "Iyer", domain.StatusRead, 4*time.Hour),
	}
}

func ids(items []domain.Inquiry) []string {
	out := make([]string, len(items))
	for i, inq := range items {
		out[i] = inq.ID
	}
	return out
}

func TestFilterPartitionsInquiries(t *testing.T) {
	items := sample()
	read := FilterInquiries(items, FilterRead)
	unread := FilterInquiries(items, FilterUnread)
	all := FilterInquiries(items, FilterAll)

	assert.ElementsMatch(t, []string{"2", "4"}, ids(read))
	assert.ElementsMatch(t, []string{"1", "3"}, ids(unread))
	assert.Len(t, all, len(items))
	assert.ElementsMatch(t, ids(all), append(ids(read), ids(unread)...))
}

func TestParseFilterAndSort(t *testing.T) {
	f, err := ParseFilter(" Unread ")
	require.NoError(t, err)
	assert.Equal(t, FilterUnread, f)

	f, err = ParseFilter("")
	require.NoError(t, err)
	assert.Equal(t, FilterAll, f)

	_, err = ParseFilter("archived")
	assert.Error(t, err)

	o, err := ParseSort("NAME")
	require.NoError(t, err)
	assert.Equal(t, SortName, o)

	o, err = ParseSort("")
	require.NoError(t, err)
	assert.Equal(t, SortLatest, o)

	_, err = ParseSort("random")
	assert.Error(t, err)
}

func TestSortLatestAndOldestAreReverses(t *testing.T) {
	latest := ids(Sort(sample(), SortLatest, language.English))
	oldest := ids(Sort(sample(), SortOldest, language.English))

	assert.Equal(t, []string{"2", "3", "1", "4"}, latest)
	slices.Reverse(oldest)
	assert.Equal(t, latest, oldest)
}

func TestSortByNameUsesCollation(t *testing.T) {
	sorted := Sort(sample(), SortName, language.English)
	assert.Equal(t, []string{"3", "2", "4", "1"}, ids(sorted))
}

func TestSortByNameFollowsLanguage(t *testing.T) {
	items := []domain.Inquiry{
		inquiry("o", "Östen", "Berg", domain.StatusUnread, time.Hour),
		inquiry("z", "Zara", "Ali", domain.StatusUnread, time.Hour),
	}

	assert.Equal(t, []string{"o", "z"}, ids(Sort(items, SortName, language.English)))
	assert.Equal(t, []string{"z", "o"}, ids(Sort(items, SortName, language.Swedish)))
}

func TestSortDoesNotMutateInput(t *testing.T) {
	items := sample()
	_ = Sort(items, SortName, language.English)
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(items))
}

func TestSearchIgnoresCase(t *testing.T) {
	items := sample()
	items[3].Message = "Looking for METRO station panels"

	assert.Equal(t, []string{"1"}, ids(Search(items, "ZOE PARK")))
	assert.Equal(t, []string{"3"}, ids(Search(items, "Adam@Example")))
	assert.Equal(t, []string{"4"}, ids(Search(items, "metro")))
	assert.Empty(t, Search(items, "nobody"))
	assert.Len(t, Search(items, "   "), len(items))
}

func TestViewApply(t *testing.T) {
	v := View{Filter: FilterUnread, Query: "example.com", Sort: SortOldest, Lang: language.English}
	assert.Equal(t, []string{"1", "3"}, ids(v.Apply(sample())))

	assert.Equal(t, []string{"2", "3", "1", "4"}, ids(View{}.Apply(sample())))
}
