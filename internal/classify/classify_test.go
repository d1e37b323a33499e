package classify_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lumifin/news-digest/backend/internal/classify"
	"github.com/lumifin/news-digest/backend/internal/models"
	"github.com/lumifin/news-digest/backend/internal/refdata"
)

func tables() *refdata.Tables {
	return &refdata.Tables{
		PolicyKeywords:    []string{"央行", "政策", "监管"},
		ImportantKeywords: []string{"重大", "暴跌", "暴涨"},
		Industries: []refdata.Industry{
			{Name: "金融", Keywords: []string{"银行", "证券"}},
			{Name: "科技", Keywords: []string{"芯片", "人工智能"}},
		},
	}
}

func TestClassifyCascade(t *testing.T) {
	c := classify.New(tables())

	tests := []struct {
		name     string
		rec      models.NewsRecord
		category models.Category
		industry string
	}{
		{
			name:     "policy",
			rec:      models.NewsRecord{Title: "央行宣布降准", Content: "释放流动性。"},
			category: models.CategoryPolicy,
		},
		{
			name:     "important keyword",
			rec:      models.NewsRecord{Title: "某股暴跌", Content: "盘中跳水。"},
			category: models.CategoryImportant,
		},
		{
			name:     "industry",
			rec:      models.NewsRecord{Title: "芯片产能扩张", Content: "晶圆厂满载。"},
			category: models.CategoryIndustry,
			industry: "科技",
		},
		{
			name:     "general fallback",
			rec:      models.NewsRecord{Title: "市场平稳", Content: "无明显波动。"},
			category: models.CategoryGeneral,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Apply(tt.rec)
			require.Equal(t, tt.category, got.Category)
			require.Equal(t, tt.industry, got.Industry)
		})
	}
}

func TestPolicyBeatsIndustry(t *testing.T) {
	c := classify.New(tables())

	// Matches both a policy keyword and an industry keyword; policy wins.
	got := c.Apply(models.NewsRecord{Title: "央行降息", Content: "银行股普涨。"})
	require.Equal(t, models.CategoryPolicy, got.Category)
	require.Empty(t, got.Industry)
}

func TestImportantBeatsIndustry(t *testing.T) {
	c := classify.New(tables())

	got := c.Apply(models.NewsRecord{Title: "重大利好", Content: "证券板块异动。"})
	require.Equal(t, models.CategoryImportant, got.Category)
}

func TestStockCodeCountTriggersImportant(t *testing.T) {
	c := classify.New(tables())

	// No importance keyword, but four distinct referenced codes.
	got := c.Apply(models.NewsRecord{
		Title:   "多家公司发布公告",
		Content: "相关公司盘后披露。",
		StockCodes: map[string]string{
			"甲公司": "600001",
			"乙公司": "600002",
			"丙公司": "600003",
			"丁公司": "600004",
		},
	})
	require.Equal(t, models.CategoryImportant, got.Category)
}

func TestIndustryTableOrderTieBreak(t *testing.T) {
	c := classify.New(tables())

	// Matches both 金融 and 科技 keywords; the table's first entry wins.
	got := c.Apply(models.NewsRecord{Title: "银行加码芯片信贷", Content: "支持产业升级。"})
	require.Equal(t, models.CategoryIndustry, got.Category)
	require.Equal(t, "金融", got.Industry)
}

func TestEmptyTablesDegradeToGeneral(t *testing.T) {
	c := classify.New(&refdata.Tables{})

	got := c.Apply(models.NewsRecord{Title: "央行降息", Content: "银行股普涨。"})
	require.Equal(t, models.CategoryGeneral, got.Category)
}
