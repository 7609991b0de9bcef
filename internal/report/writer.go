package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatText Format = "text"
	FormatYAML Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "text", "txt":
		return FormatText, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported report format %q", s)
	}
}

func (f Format) ContentType() string {
	switch f {
	case FormatText:
		return "text/plain; charset=utf-8"
	case FormatYAML:
		return "application/yaml"
	default:
		return "text/csv; charset=utf-8"
	}
}

func (f Format) Extension() string {
	if f == FormatText {
		return "txt"
	}
	return string(f)
}

func Write(w io.Writer, f Format, d Document) error {
	switch f {
	case FormatText:
		return WriteText(w, d)
	case FormatYAML:
		return WriteYAML(w, d)
	default:
		return WriteCSV(w, d)
	}
}

func header(d Document) []string {
	return []string{
		brand + " - " + brandLong,
		strings.ToUpper(d.Title),
		strings.ToUpper(d.Subtitle),
		"EMISIÓN OFICIAL: " + d.Issued.Format("02/01/2006 15:04:05"),
	}
}

// WriteCSV writes the header block, then each section's heading, column
// names and rows.
func WriteCSV(w io.Writer, d Document) error {
	cw := csv.NewWriter(w)
	for _, line := range header(d) {
		if err := cw.Write([]string{line}); err != nil {
			return err
		}
	}
	for _, s := range d.Sections {
		if s.Heading != "" {
			if err := cw.Write([]string{s.Heading}); err != nil {
				return err
			}
		}
		if err := cw.Write(s.Columns); err != nil {
			return err
		}
		if err := cw.WriteAll(s.Rows); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteText renders aligned columns for terminals and chat messages.
func WriteText(w io.Writer, d Document) error {
	for _, line := range header(d) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	for _, s := range d.Sections {
		fmt.Fprintln(w)
		if s.Heading != "" {
			fmt.Fprintln(w, s.Heading)
		}
		tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
		fmt.Fprintln(tw, strings.Join(s.Columns, "\t"))
		for _, row := range s.Rows {
			fmt.Fprintln(tw, strings.Join(row, "\t"))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func WriteYAML(w io.Writer, d Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return err
	}
	return enc.Close()
}
