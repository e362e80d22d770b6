package analytics

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Export writes every report into a single xlsx workbook, one sheet per
// report, and streams it to w.
func (s *Service) Export(w io.Writer) error {
	signups, err := s.Signups()
	if err != nil {
		return fmt.Errorf("signups report: %w", err)
	}
	popular, err := s.PopularTopics()
	if err != nil {
		return fmt.Errorf("popular topics report: %w", err)
	}
	completion, err := s.CourseCompletion()
	if err != nil {
		return fmt.Errorf("course completion report: %w", err)
	}
	retention, err := s.Retention()
	if err != nil {
		return fmt.Errorf("retention report: %w", err)
	}
	engagement, err := s.Engagement()
	if err != nil {
		return fmt.Errorf("engagement report: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := writeSheet(f, "Signups", [][]any{{"Week", "Signups"}}, pairRows(signups.Labels, signups.Counts)); err != nil {
		return err
	}

	popularRows := make([][]any, 0, len(popular))
	for _, p := range popular {
		popularRows = append(popularRows, []any{p.Title, p.TopicID, p.Views})
	}
	if err := writeSheet(f, "Popular Topics", [][]any{{"Topic", "ID", "Views"}}, popularRows); err != nil {
		return err
	}

	completionRows := make([][]any, 0, len(completion))
	for _, c := range completion {
		completionRows = append(completionRows, []any{c.Title, c.TotalTopics, c.CompletedUsers, c.CompletionRate})
	}
	if err := writeSheet(f, "Course Completion", [][]any{{"Course", "Topics", "Completed Users", "Rate %"}}, completionRows); err != nil {
		return err
	}

	retentionRows := [][]any{
		{"Day 1", retention.Day1},
		{"Day 7", retention.Day7},
		{"Day 30", retention.Day30},
		{"Total Users", retention.TotalUsers},
	}
	if err := writeSheet(f, "Retention", [][]any{{"Window", "Value"}}, retentionRows); err != nil {
		return err
	}

	engagementRows := make([][]any, 0, engagementSpan)
	for i := range engagement.Daily {
		engagementRows = append(engagementRows, []any{
			engagement.DailyLabels[i], engagement.Daily[i],
			engagement.WeeklyLabels[i], engagement.Weekly[i],
			engagement.MonthlyLabels[i], engagement.Monthly[i],
		})
	}
	header := [][]any{{"Day", "Views", "Week", "Views", "Month", "Views"}}
	if err := writeSheet(f, "Engagement", header, engagementRows); err != nil {
		return err
	}

	// The default sheet excelize creates is replaced by our first one.
	f.DeleteSheet("Sheet1")
	if idx, err := f.GetSheetIndex("Signups"); err == nil {
		f.SetActiveSheet(idx)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, name string, header, rows [][]any) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("creating sheet %s: %w", name, err)
	}
	all := append(header, rows...)
	for i, row := range all {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return fmt.Errorf("writing sheet %s: %w", name, err)
		}
	}
	return nil
}

func pairRows(labels []string, counts []int) [][]any {
	rows := make([][]any, 0, len(labels))
	for i := range labels {
		rows = append(rows, []any{labels[i], counts[i]})
	}
	return rows
}
