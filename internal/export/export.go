package export

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"crmagent/internal/campaign"
	"crmagent/internal/services"
)

// Format is a supported export target.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatHTML Format = "html"
)

// Formats lists every supported format.
var Formats = []Format{FormatJSON, FormatCSV, FormatHTML}

// ParseFormat resolves a format tag. Unknown tags wrap services.ErrUnsupportedFormat.
func ParseFormat(tag string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "html":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("%w: %q (use json, csv or html)", services.ErrUnsupportedFormat, tag)
	}
}

// ContentType is the MIME type for HTTP responses.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatHTML:
		return "text/html; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

// Filename suggests a download name for a session export.
func (f Format) Filename(sessionID string) string {
	return fmt.Sprintf("campaigns_%s.%s", sessionID, f)
}

// Record is the exported shape of one result.
type Record struct {
	ClientID      string                 `json:"client_id"`
	Name          string                 `json:"name"`
	Sector        string                 `json:"sector"`
	Category      campaign.Category      `json:"category"`
	Campaign      campaign.CampaignBlock `json:"campaign"`
	SocialProfile campaign.SocialProfile `json:"social_profile"`
	Metrics       campaign.Metrics       `json:"metrics"`
	Timestamp     *time.Time             `json:"timestamp"`
}

// Records converts results to export records, preserving order.
func Records(results []campaign.RenderedResult) []Record {
	out := make([]Record, 0, len(results))
	for _, r := range results {
		out = append(out, Record{
			ClientID:      r.Payload.ClientID,
			Name:          r.Payload.Name,
			Sector:        r.Payload.Sector,
			Category:      r.Category,
			Campaign:      r.Payload.Campaign,
			SocialProfile: r.Payload.SocialProfile,
			Metrics:       r.Metrics,
			Timestamp:     r.Payload.Timestamp,
		})
	}
	return out
}

// Render produces the export payload for results in format f.
func Render(f Format, results []campaign.RenderedResult) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, f, results); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write streams the export to w.
func Write(w io.Writer, f Format, results []campaign.RenderedResult) error {
	records := Records(results)
	switch f {
	case FormatJSON:
		return writeJSON(w, records)
	case FormatCSV:
		return writeCSV(w, records)
	case FormatHTML:
		return writeHTML(w, records)
	default:
		return fmt.Errorf("%w: %q", services.ErrUnsupportedFormat, string(f))
	}
}

//go:embed records.schema.json
var recordsSchema string

var schemaLoader = gojsonschema.NewStringLoader(recordsSchema)

func writeJSON(w io.Writer, records []Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json export: %w", err)
	}
	if err := ValidateJSON(data); err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// ValidateJSON checks data against the export schema.
func ValidateJSON(data []byte) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("load export schema: %w", err)
	}
	if result.Valid() {
		return nil
	}
	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		problems = append(problems, fmt.Sprintf("%s: %s", field, desc.Description()))
	}
	return fmt.Errorf("%w: export does not match schema: %s", services.ErrValidation, strings.Join(problems, "; "))
}

// ParseJSON decodes a JSON export after validating it.
func ParseJSON(data []byte) ([]Record, error) {
	if err := ValidateJSON(data); err != nil {
		return nil, err
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode json export: %w", err)
	}
	return records, nil
}

// CSVHeader is the first row of a CSV export.
var CSVHeader = []string{"client_id", "name", "category", "campaign_id", "campaign_name", "channel", "cta", "click_through", "open_rate"}

func writeCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.ClientID,
			r.Name,
			string(r.Category),
			r.Campaign.ID,
			r.Campaign.Name,
			r.Campaign.Channel,
			r.Campaign.CTA,
			formatRate(r.Metrics.ClickThrough),
			formatRate(r.Metrics.OpenRate),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatRate(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

//go:embed summary.html.tmpl
var summaryTemplate string

var summaryPage = template.Must(template.New("summary").Funcs(template.FuncMap{
	"label":   func(c campaign.Category) string { return c.Label() },
	"percent": func(v float64) string { return strconv.FormatFloat(v*100, 'f', 1, 64) + "%" },
}).Parse(summaryTemplate))

func writeHTML(w io.Writer, records []Record) error {
	if err := summaryPage.Execute(w, records); err != nil {
		return fmt.Errorf("render html export: %w", err)
	}
	return nil
}
