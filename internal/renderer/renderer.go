// =============================================================================
// Donation Receipt Generator - Document Renderer
// =============================================================================
//
// This module fills the receipt templates. A template is plain compiler source
// (LaTeX by default) with named placeholders:
//
//   <<DONOR_NAME>>, <<AMOUNT_FIGURES>>, <<ISSUE_DATE>>, ...
//
// RULES:
//   - Placeholder names are upper case letters, digits and underscores
//   - Every placeholder in a template must have a value, otherwise rendering
//     fails with a TemplateFieldError for that document only
//   - Values are escaped for LaTeX; DONATION_ROWS is a prepared table body
//
// INDIVIDUAL RECEIPT FIELDS:
//   DONOR_NAME, DONOR_LASTNAME, DONOR_FIRSTNAME, DONOR_STREET, DONOR_CITY,
//   DONOR_ADDRESS, AMOUNT_FIGURES, AMOUNT_WORDS, DONATION_DATE, DONATION_YEAR,
//   ISSUE_DATE
//
// COLLECTIVE RECEIPT FIELDS:
//   TOTAL_FIGURES, TOTAL_WORDS, RECORD_COUNT, PERIOD_START, PERIOD_END,
//   DONATION_YEAR, ISSUE_DATE, DONATION_ROWS, and the DONOR_* fields when
//   all donations come from one donor
//
// =============================================================================

package renderer

import (
	"embed"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ginjaninja78/donation-receipts/internal/types"
	"github.com/ginjaninja78/donation-receipts/internal/validation"
	"github.com/ginjaninja78/donation-receipts/pkg/utils"
)

//go:embed templates/*.tex
var builtinTemplates embed.FS

var placeholderPattern = regexp.MustCompile(`<<([A-Z][A-Z0-9_]*)>>`)

// =============================================================================
// TEMPLATES
// =============================================================================

// Template is a named template text.
type Template struct {
	// Name identifies the template in errors (file path or "builtin:...").
	Name string
	Text string
}

// Templates holds the two receipt templates.
type Templates struct {
	Individual Template
	Collective Template
}

// LoadTemplates reads the receipt templates. An empty path selects the
// built-in template of that kind.
func LoadTemplates(individualPath, collectivePath string) (Templates, error) {
	individual, err := loadTemplate(individualPath, "individual.tex")
	if err != nil {
		return Templates{}, err
	}
	collective, err := loadTemplate(collectivePath, "collective.tex")
	if err != nil {
		return Templates{}, err
	}
	return Templates{Individual: individual, Collective: collective}, nil
}

func loadTemplate(path, builtin string) (Template, error) {
	if path == "" {
		data, err := builtinTemplates.ReadFile("templates/" + builtin)
		if err != nil {
			return Template{}, fmt.Errorf("failed to read built-in template %s: %w", builtin, err)
		}
		return Template{Name: "builtin:" + builtin, Text: string(data)}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Template{}, fmt.Errorf("failed to read template: %w", err)
	}
	return Template{Name: path, Text: string(data)}, nil
}

// Placeholders lists the distinct placeholder names in order of appearance.
func (t Template) Placeholders() []string {
	seen := make(map[string]bool)
	var names []string
	for _, m := range placeholderPattern.FindAllStringSubmatch(t.Text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// Fill substitutes every placeholder with its value from fields.
//
// RETURNS:
//   - The filled text.
//   - *types.TemplateFieldError for the first placeholder without a value.
func (t Template) Fill(fields map[string]string) (string, error) {
	for _, name := range t.Placeholders() {
		if _, ok := fields[name]; !ok {
			return "", &types.TemplateFieldError{Template: t.Name, Placeholder: name}
		}
	}

	return placeholderPattern.ReplaceAllStringFunc(t.Text, func(match string) string {
		return fields[match[2:len(match)-2]]
	}), nil
}

// =============================================================================
// RENDERER
// =============================================================================

// Renderer produces documents from records and summaries. It remembers the
// output names it handed out so that every document of a run gets a unique
// file name.
type Renderer struct {
	templates Templates
	names     map[string]int
}

// New creates a Renderer for one run.
func New(templates Templates) *Renderer {
	return &Renderer{
		templates: templates,
		names:     make(map[string]int),
	}
}

// Individual renders the receipt for a single donation.
func (r *Renderer) Individual(record types.DonationRecord, issueDate time.Time) (types.RenderedDocument, error) {
	fields, err := IndividualFields(record, issueDate)
	if err != nil {
		return types.RenderedDocument{}, err
	}

	text, err := r.templates.Individual.Fill(fields)
	if err != nil {
		return types.RenderedDocument{}, err
	}

	base := fmt.Sprintf("%s_%s_%s",
		utils.SafeFileName(record.LastName),
		utils.SafeFileName(record.FirstName),
		record.Date.Format("02-01-2006"))

	return types.RenderedDocument{
		Kind:           types.KindIndividual,
		SourceText:     text,
		OutputBaseName: r.unique(base),
		Label:          fmt.Sprintf("%s (row %d)", record.DisplayName(), record.RowNumber),
	}, nil
}

// Collective renders a collective receipt. perDonor selects the per-donor
// naming used when every donor with several donations gets their own receipt.
func (r *Renderer) Collective(summary types.AggregateSummary, perDonor bool) (types.RenderedDocument, error) {
	fields, err := CollectiveFields(summary)
	if err != nil {
		return types.RenderedDocument{}, err
	}

	text, err := r.templates.Collective.Fill(fields)
	if err != nil {
		return types.RenderedDocument{}, err
	}

	var base, label string
	if perDonor && summary.Donor != nil {
		base = fmt.Sprintf("%s_%s_sammel",
			utils.SafeFileName(summary.Donor.LastName),
			utils.SafeFileName(summary.Donor.FirstName))
		label = fmt.Sprintf("%s (%d donations)", summary.Donor.DisplayName(), summary.RecordCount)
	} else {
		base = "Sammelbestaetigung_" + strings.ReplaceAll(donationYear(summary), "/", "-")
		label = fmt.Sprintf("collective receipt (%d donations)", summary.RecordCount)
	}

	return types.RenderedDocument{
		Kind:           types.KindCollective,
		SourceText:     text,
		OutputBaseName: r.unique(base),
		Label:          label,
	}, nil
}

// unique appends _2, _3, ... to names already used in this run.
func (r *Renderer) unique(base string) string {
	r.names[base]++
	if n := r.names[base]; n > 1 {
		return fmt.Sprintf("%s_%d", base, n)
	}
	return base
}

// =============================================================================
// FIELD MAPS
// =============================================================================

// IndividualFields returns the placeholder values of an individual receipt.
func IndividualFields(record types.DonationRecord, issueDate time.Time) (map[string]string, error) {
	words, err := AmountInWords(record.Amount)
	if err != nil {
		return nil, err
	}

	fields := donorFields(record)
	fields["AMOUNT_FIGURES"] = FormatAmount(record.Amount)
	fields["AMOUNT_WORDS"] = EscapeLaTeX(words)
	fields["DONATION_DATE"] = validation.FormatDate(record.Date)
	fields["DONATION_YEAR"] = strconv.Itoa(record.Date.Year())
	fields["ISSUE_DATE"] = validation.FormatDate(issueDate)
	return fields, nil
}

// CollectiveFields returns the placeholder values of a collective receipt.
func CollectiveFields(summary types.AggregateSummary) (map[string]string, error) {
	words, err := AmountInWords(summary.TotalAmount)
	if err != nil {
		return nil, err
	}

	fields := map[string]string{
		"TOTAL_FIGURES": FormatAmount(summary.TotalAmount),
		"TOTAL_WORDS":   EscapeLaTeX(words),
		"RECORD_COUNT":  strconv.Itoa(summary.RecordCount),
		"PERIOD_START":  validation.FormatDate(summary.FirstDate),
		"PERIOD_END":    validation.FormatDate(summary.LastDate),
		"DONATION_YEAR": donationYear(summary),
		"ISSUE_DATE":    validation.FormatDate(summary.IssueDate),
		"DONATION_ROWS": DonationRows(summary.Records),
	}

	if summary.Donor != nil {
		for k, v := range donorFields(*summary.Donor) {
			fields[k] = v
		}
	}

	return fields, nil
}

func donorFields(record types.DonationRecord) map[string]string {
	street := EscapeLaTeX(record.Street)
	city := EscapeLaTeX(record.PostalCityLine)

	return map[string]string{
		"DONOR_NAME":      EscapeLaTeX(record.DisplayName()),
		"DONOR_LASTNAME":  EscapeLaTeX(record.LastName),
		"DONOR_FIRSTNAME": EscapeLaTeX(record.FirstName),
		"DONOR_STREET":    street,
		"DONOR_CITY":      city,
		"DONOR_ADDRESS":   street + `\\` + "\n" + city,
	}
}

// DonationRows renders one table row per donation for the collective receipt:
//
//	01.01.2025 & Erika Mustermensch & Geldzuwendung & Nein & 50,00 Euro \\ \hline
func DonationRows(records []types.DonationRecord) string {
	rows := make([]string, len(records))
	for i, r := range records {
		rows[i] = fmt.Sprintf(`%s & %s & Geldzuwendung & Nein & %s Euro \\ \hline`,
			validation.FormatDate(r.Date),
			EscapeLaTeX(r.DisplayName()),
			FormatAmount(r.Amount))
	}
	return strings.Join(rows, "\n")
}

// donationYear is "2025", or "2024/2025" for summaries spanning several years.
func donationYear(summary types.AggregateSummary) string {
	first, last := summary.FirstDate.Year(), summary.LastDate.Year()
	if first == last {
		return strconv.Itoa(last)
	}
	return fmt.Sprintf("%d/%d", first, last)
}

// =============================================================================
// ESCAPING
// =============================================================================

var latexEscaper = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	`&`, `\&`,
	`%`, `\%`,
	`$`, `\$`,
	`#`, `\#`,
	`_`, `\_`,
	`{`, `\{`,
	`}`, `\}`,
	`~`, `\textasciitilde{}`,
	`^`, `\textasciicircum{}`,
	`"`, `\textquotedbl{}`,
)

// EscapeLaTeX makes user data safe to place in LaTeX source.
func EscapeLaTeX(s string) string {
	return latexEscaper.Replace(s)
}
