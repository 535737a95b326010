package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"hackforge/hackathon-portal/hackathon-portal-backend/internal/entities"
)

const sheetName = "Selection"

// WriteRegistrationsExcel serializes a registration selection as an
// xlsx workbook with a styled, frozen header row
func WriteRegistrationsExcel(w io.Writer, regs []entities.Registration, teamNames map[uuid.UUID]string) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	if err := writeHeader(f, registrationColumns); err != nil {
		return err
	}
	for i, reg := range regs {
		team := ""
		if reg.TeamID != nil {
			team = teamNames[*reg.TeamID]
		}
		row := []interface{}{
			reg.ID.String(),
			reg.Name,
			reg.Email,
			string(reg.Status),
			team,
			strings.Join(reg.SkillList(), ";"),
			reg.CreatedAt,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	return f.Write(w)
}

// WriteTeamsExcel serializes a team selection as an xlsx workbook
func WriteTeamsExcel(w io.Writer, teams []entities.Team) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	if err := writeHeader(f, teamColumns); err != nil {
		return err
	}
	for i, team := range teams {
		row := []interface{}{
			team.ID.String(),
			team.Name,
			string(team.Status),
			len(team.Members),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	return f.Write(w)
}

func writeHeader(f *excelize.File, columns []string) error {
	header := make([]interface{}, len(columns))
	for i, col := range columns {
		header[i] = col
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"4472C4"}},
	})
	if err == nil {
		endCell, _ := excelize.CoordinatesToCellName(len(columns), 1)
		_ = f.SetCellStyle(sheetName, "A1", endCell, style)
	}
	return f.SetPanes(sheetName, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	})
}
