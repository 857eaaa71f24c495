// Package report renders admin views as spreadsheets.
package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/pai-tracker/internal/admin"
)

// LeaderboardSheet is the name of the leaderboard worksheet.
const LeaderboardSheet = "Leaderboard"

// ContentType is the media type of the workbooks written here.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var leaderboardHeader = []any{"Rank", "Name", "Email", "Completed", "Total Questions", "Percent"}

// WriteLeaderboard writes entries, in the given order, as an XLSX workbook.
func WriteLeaderboard(w io.Writer, entries []admin.Entry) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", LeaderboardSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	if err := f.SetSheetRow(LeaderboardSheet, "A1", &leaderboardHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	if err := f.SetCellStyle(LeaderboardSheet, "A1", "F1", bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, e := range entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{i + 1, e.Name, e.Email, e.Completed, e.TotalQuestions, e.TotalPercent}
		if err := f.SetSheetRow(LeaderboardSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(LeaderboardSheet, "B", "C", 28); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetPanes(LeaderboardSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
