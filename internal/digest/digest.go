// Package digest groups classified news records into the daily report model
// consumed by renderers.
package digest

import (
	"sort"
	"time"

	"github.com/lumifin/news-digest/backend/internal/models"
)

// Build partitions records by category into the DailyReport. Industry buckets
// appear in first-seen order; every group is sorted publish-time descending,
// stable for equal timestamps. An empty batch yields an empty report.
func Build(records []models.NewsRecord, reportDate time.Time) models.DailyReport {
	report := models.DailyReport{
		ReportDate:     reportDate,
		NewsCount:      len(records),
		NewsByIndustry: make(map[string][]models.NewsRecord),
	}

	for _, rec := range records {
		switch rec.Category {
		case models.CategoryPolicy:
			report.PolicyNews = append(report.PolicyNews, rec)
		case models.CategoryImportant:
			report.ImportantNews = append(report.ImportantNews, rec)
		case models.CategoryIndustry:
			if _, ok := report.NewsByIndustry[rec.Industry]; !ok {
				report.IndustryOrder = append(report.IndustryOrder, rec.Industry)
			}
			report.NewsByIndustry[rec.Industry] = append(report.NewsByIndustry[rec.Industry], rec)
		default:
			report.GeneralNews = append(report.GeneralNews, rec)
		}
	}

	sortByTimeDesc(report.PolicyNews)
	sortByTimeDesc(report.ImportantNews)
	for _, industry := range report.IndustryOrder {
		sortByTimeDesc(report.NewsByIndustry[industry])
	}
	sortByTimeDesc(report.GeneralNews)

	return report
}

// Records flattens a report back into its record set, in partition order.
// Build(Records(r), r.ReportDate) reproduces r.
func Records(report models.DailyReport) []models.NewsRecord {
	out := make([]models.NewsRecord, 0, report.NewsCount)
	out = append(out, report.PolicyNews...)
	out = append(out, report.ImportantNews...)
	for _, industry := range report.IndustryOrder {
		out = append(out, report.NewsByIndustry[industry]...)
	}
	out = append(out, report.GeneralNews...)
	return out
}

func sortByTimeDesc(records []models.NewsRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].PublishTime.After(records[j].PublishTime)
	})
}
