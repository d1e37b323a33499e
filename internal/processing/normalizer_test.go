package processing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lumifin/news-digest/backend/internal/models"
	"github.com/lumifin/news-digest/backend/internal/processing"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "collapse whitespace", input: "foo\n\nbar\t baz", want: "foo bar baz"},
		{name: "control chars", input: "央行\x00降息\x1f了", want: "央行 降息 了"},
		{name: "html entities", input: "A&amp;B &nbsp; 股份", want: "A&B 股份"},
		{name: "keeps punctuation", input: "重磅！央行宣布降息。", want: "重磅！央行宣布降息。"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, processing.CleanText(tt.input))
		})
	}
}

func TestCanonicalKeyIgnoresCaseAndPunctuation(t *testing.T) {
	a := processing.CanonicalKey("Fed Cuts Rates!", "Markets rally, again.")
	b := processing.CanonicalKey("fed cuts rates", "markets   rally again")
	require.Equal(t, a, b)

	c := processing.CanonicalKey("fed holds rates", "markets rally again")
	require.NotEqual(t, a, c)
}

func TestCanonicalKeyUsesPrefixOnly(t *testing.T) {
	long := make([]rune, 0, 300)
	for i := 0; i < 300; i++ {
		long = append(long, '财')
	}
	base := string(long)

	a := processing.CanonicalKey("标题", base+"甲")
	b := processing.CanonicalKey("标题", base+"乙")
	require.Equal(t, a, b, "divergence past the key prefix must not change the key")
}

func TestNormalize(t *testing.T) {
	ts := time.Date(2026, 8, 27, 9, 30, 0, 0, time.UTC)
	raw := models.RawNewsItem{
		Title:       "  央行宣布降息\n",
		Content:     "中国人民银行今日宣布下调存款准备金率。",
		Source:      "sina",
		PublishTime: ts,
		URL:         "https://finance.sina.com.cn/news/1",
	}

	rec, err := processing.Normalize(raw)
	require.NoError(t, err)
	require.Equal(t, "央行宣布降息", rec.Title)
	require.Equal(t, []string{"sina"}, rec.Sources)
	require.Equal(t, ts, rec.PublishTime)
	require.Equal(t, models.CategoryGeneral, rec.Category)
	require.Empty(t, rec.StockCodes)
	require.Empty(t, rec.Keywords)
	require.NotEmpty(t, rec.CanonicalKey)
}

func TestNormalizeMalformed(t *testing.T) {
	_, err := processing.Normalize(models.RawNewsItem{Title: " \t ", Content: "正文"})
	require.ErrorIs(t, err, processing.ErrMalformedInput)

	_, err = processing.Normalize(models.RawNewsItem{Title: "标题", Content: "\x00\x01"})
	require.ErrorIs(t, err, processing.ErrMalformedInput)
}
