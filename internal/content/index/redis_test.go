package index

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/redis/rueidis/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/johnallens/content-platform/internal/content"
	"github.com/johnallens/content-platform/internal/content/query"
)

func awardDoc(id string) *content.Document {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	return &content.Document{
		ID: id,
		Fields: content.Fields{
			"title":        "Fashion Innovation Scholarship",
			"description":  "Annual award",
			"amount":       5000.0,
			"deadline":     "2025-06-01T00:00:00Z",
			"requirements": []string{"Portfolio"},
			"tags":         []string{"design"},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestEnsureIndexArgs(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			if cmd[0] != "FT.CREATE" || cmd[1] != "idx:awards" {
				return false
			}
			joined := ""
			for _, a := range cmd {
				joined += a + " "
			}
			return contains(joined, "ON HASH PREFIX 1 content:awards:") &&
				contains(joined, "title TEXT WEIGHT 5") &&
				contains(joined, "amount NUMERIC SORTABLE") &&
				contains(joined, "tags TAG SEPARATOR ,")
		})).
		Return(mock.Result(mock.RedisString("OK")))

	x := NewRedisIndex(c, content.AwardListing())
	require.NoError(t, x.EnsureIndex(context.Background()))
}

func TestEnsureIndexAlreadyExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool { return cmd[0] == "FT.CREATE" })).
		Return(mock.Result(mock.RedisError("Index already exists")))

	x := NewRedisIndex(c, content.AwardListing())
	require.NoError(t, x.EnsureIndex(context.Background()))
}

func TestUpsertWritesHash(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			if cmd[0] != "HSET" || cmd[1] != "content:awards:a1" {
				return false
			}
			fields := map[string]string{}
			for i := 2; i+1 < len(cmd); i += 2 {
				fields[cmd[i]] = cmd[i+1]
			}
			// deadline flattens to unix seconds for the NUMERIC field
			return fields["title"] == "Fashion Innovation Scholarship" &&
				fields["amount"] == "5000" &&
				fields["tags"] == "design" &&
				fields["deadline"] == "1748736000" &&
				fields[docField] != ""
		})).
		Return(mock.Result(mock.RedisInt64(8)))

	x := NewRedisIndex(c, content.AwardListing())
	require.NoError(t, x.Upsert(context.Background(), awardDoc("a1")))
}

func TestUpsertBackendError(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool { return cmd[0] == "HSET" })).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	x := NewRedisIndex(c, content.AwardListing())
	err := x.Upsert(context.Background(), awardDoc("a1"))
	require.ErrorIs(t, err, content.ErrBackendUnavailable)
}

func TestDeleteRemovesKey(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("DEL", "content:awards:a1")).
		Return(mock.Result(mock.RedisInt64(1)))

	x := NewRedisIndex(c, content.AwardListing())
	require.NoError(t, x.Delete(context.Background(), "a1"))
}

func TestSearchParsesResults(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	doc := awardDoc("a1")
	snapshot, err := json.Marshal(doc)
	require.NoError(t, err)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			if cmd[0] != "FT.SEARCH" || cmd[1] != "idx:awards" {
				return false
			}
			joined := ""
			for _, a := range cmd {
				joined += a + " "
			}
			return contains(joined, "SORTBY deadline ASC") &&
				contains(joined, "LIMIT 0 10")
		})).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(7),
			mock.RedisString("content:awards:a1"),
			mock.RedisArray(
				mock.RedisString(docField),
				mock.RedisString(string(snapshot)),
			),
		)))

	x := NewRedisIndex(c, content.AwardListing())
	docs, total, err := x.Search(context.Background(), query.IndexQuery{
		Text: "scholarship",
		Sort: &content.SortSpec{Field: "deadline", Ascending: true},
	}, 0, 10)
	require.NoError(t, err)
	require.EqualValues(t, 7, total)
	require.Len(t, docs, 1)
	require.Equal(t, "a1", docs[0].ID)
	amount, ok := docs[0].Fields.Num("amount")
	require.True(t, ok)
	require.Equal(t, 5000.0, amount)
}

func TestSearchBackendError(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool { return cmd[0] == "FT.SEARCH" })).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	x := NewRedisIndex(c, content.AwardListing())
	_, _, err := x.Search(context.Background(), query.IndexQuery{Text: "x"}, 0, 10)
	require.ErrorIs(t, err, content.ErrBackendUnavailable)
}

func contains(s, sub string) bool { return strings.Contains(s, sub) }
