package clients

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"crmagent/internal/campaign"
	"crmagent/internal/services"
)

type column int

const (
	colID column = iota
	colName
	colSector
	colSpend
	colRisk
	colChannel
)

var headerAliases = map[string]column{
	"id":             colID,
	"id_cliente":     colID,
	"client_id":      colID,
	"name":           colName,
	"nombre":         colName,
	"sector":         colSector,
	"average_spend":  colSpend,
	"gasto_promedio": colSpend,
	"risk":           colRisk,
	"riesgo":         colRisk,
	"social_channel": colChannel,
	"red_social":     colChannel,
}

var requiredColumns = []struct {
	col  column
	name string
}{
	{colID, "id"},
	{colName, "name"},
	{colSector, "sector"},
	{colSpend, "average_spend"},
	{colRisk, "risk"},
	{colChannel, "social_channel"},
}

// ParseCSV reads client records from CSV with a header row. Column order is
// free; unknown columns are ignored.
func ParseCSV(r io.Reader) ([]campaign.ClientRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: client csv is empty", services.ErrValidation)
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	index := make(map[column]int, len(requiredColumns))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if col, ok := headerAliases[key]; ok {
			if _, seen := index[col]; !seen {
				index[col] = i
			}
		}
	}
	var missing []string
	for _, rc := range requiredColumns {
		if _, ok := index[rc.col]; !ok {
			missing = append(missing, rc.name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: client csv missing columns: %s", services.ErrValidation, strings.Join(missing, ", "))
	}

	var records []campaign.ClientRecord
	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		if blankRow(row) {
			continue
		}
		record, err := recordFromRow(row, index)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		records = append(records, record)
	}
	return records, nil
}

func recordFromRow(row []string, index map[column]int) (campaign.ClientRecord, error) {
	field := func(c column) string {
		i := index[c]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	return buildRecord(field(colID), field(colName), field(colSector), field(colSpend), field(colRisk), field(colChannel))
}

func buildRecord(id, name, sector, spend, risk, channel string) (campaign.ClientRecord, error) {
	amount, err := strconv.ParseFloat(strings.TrimSpace(spend), 64)
	if err != nil {
		return campaign.ClientRecord{}, fmt.Errorf("%w: client %q: average spend %q is not a number", services.ErrValidation, id, spend)
	}
	level, err := campaign.ParseRiskLevel(risk)
	if err != nil {
		return campaign.ClientRecord{}, fmt.Errorf("client %q: %w", id, err)
	}
	return campaign.ClientRecord{
		ID:            strings.TrimSpace(id),
		Name:          strings.TrimSpace(name),
		Sector:        strings.TrimSpace(sector),
		AverageSpend:  amount,
		Risk:          level,
		SocialChannel: strings.TrimSpace(channel),
	}, nil
}

func blankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
