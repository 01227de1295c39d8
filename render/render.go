// Package render formats portfolio tables for humans and machines.
package render

import (
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"strconv"
	"strings"
	"text/template"

	"github.com/Rhymond/go-money"
	"github.com/etnz/stockfolio"
	"github.com/etnz/stockfolio/date"
	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed templates/*.md
var templates embed.FS

// Formats lists the supported output formats.
var Formats = []string{"md", "json", "csv", "html"}

// Report is the data rendered by the markdown templates.
type Report struct {
	Title string
	On    date.Date
	Table stockfolio.Table
}

// Markdown renders the report as a markdown document.
func Markdown(w io.Writer, r Report) error {
	if r.Title == "" {
		r.Title = "Portfolio"
	}
	partials := map[string]string{
		"portfolio_holdings": "portfolio_holdings.md",
		"portfolio_totals":   "portfolio_totals.md",
	}
	return renderTemplate(w, "portfolio", "portfolio.md", partials, r)
}

// HTML converts a markdown document to HTML, tables included.
func HTML(w io.Writer, md []byte) error {
	return goldmark.New(goldmark.WithExtensions(extension.GFM)).Convert(md, w)
}

// Write renders the report in format, one of Formats.
func Write(w io.Writer, r Report, format string) error {
	switch format {
	case "md":
		return Markdown(w, r)
	case "html":
		var b strings.Builder
		if err := Markdown(&b, r); err != nil {
			return err
		}
		return HTML(w, []byte(b.String()))
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r.Table)
	case "csv":
		return r.Table.WriteCSV(w)
	default:
		return fmt.Errorf("unknown format %q, expected one of %s", format, strings.Join(Formats, ", "))
	}
}

var funcs = template.FuncMap{
	"money":   Money,
	"signed":  Signed,
	"percent": Percent,
}

// renderTemplate renders a main template that depends on several partials.
func renderTemplate(w io.Writer, templateName, mainFile string, partials map[string]string, data any) error {
	mainContent, err := fs.ReadFile(templates, "templates/"+mainFile)
	if err != nil {
		return fmt.Errorf("error reading main template %q: %w", mainFile, err)
	}
	tmpl, err := template.New(templateName).Funcs(funcs).Parse(string(mainContent))
	if err != nil {
		return fmt.Errorf("error parsing main template %q: %w", mainFile, err)
	}
	for name, file := range partials {
		content, err := fs.ReadFile(templates, "templates/"+file)
		if err != nil {
			return fmt.Errorf("error reading partial template %q: %w", file, err)
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Errorf("error parsing partial template %q for %q: %w", file, name, err)
		}
	}
	if err := tmpl.ExecuteTemplate(w, templateName, data); err != nil {
		return fmt.Errorf("error executing template %q: %w", templateName, err)
	}
	return nil
}

// Money formats amount in currency, e.g. "$1,500.00". Unknown currencies are
// formatted as a plain number with two decimals.
func Money(amount float64, currency string) string {
	cur := money.GetCurrency(strings.ToUpper(currency))
	if cur == nil {
		return strconv.FormatFloat(amount, 'f', 2, 64)
	}
	minor := decimal.NewFromFloat(amount).Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}

// Signed is like Money but positive amounts have a leading "+".
func Signed(amount float64, currency string) string {
	if amount > 0 {
		return "+" + Money(amount, currency)
	}
	return Money(amount, currency)
}

// Percent formats a percentage with a sign, e.g. "+50.00%".
func Percent(p float64) string { return fmt.Sprintf("%+.2f%%", p) }
