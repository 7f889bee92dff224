package validator

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/thoreinstein/docvalidate/internal/errors"
	"github.com/thoreinstein/docvalidate/internal/rule"
)

// Format specifies the output format for validation reports.
type Format string

const (
	// FormatText produces human-readable text output.
	FormatText Format = "text"
	// FormatJSON produces machine-readable JSON output.
	FormatJSON Format = "json"
)

// ParseFormat returns the Format named by s.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatText, FormatJSON:
		return Format(s), nil
	default:
		return "", errors.Newf("unknown output format %q (want text or json)", s)
	}
}

// Reporter formats and writes validation outcomes.
//
// Text output is streamed: one line per outcome as it arrives. JSON output is
// written as a single document by Finish.
type Reporter struct {
	out    io.Writer
	format Format
	root   string
}

// NewReporter creates a new Reporter.
func NewReporter(out io.Writer, format Format) *Reporter {
	return &Reporter{
		out:    out,
		format: format,
	}
}

// Header announces a discovery run under root.
func (r *Reporter) Header(root string) {
	r.root = root
	if r.format == FormatJSON {
		return
	}
	fmt.Fprintf(r.out, "Auto-discovering validations under %s\n", root)
}

// Report writes one outcome.
func (r *Reporter) Report(o Outcome) error {
	if r.format == FormatJSON {
		return nil
	}
	r.reportText(o)
	return nil
}

// Finish closes a run. Text output gets a closing line for discovery runs;
// JSON output is written in full.
func (r *Reporter) Finish(s *Summary) error {
	if s == nil {
		s = &Summary{}
	}
	switch r.format {
	case FormatJSON:
		return r.reportJSON(s)
	default:
		r.finishText(s)
		return nil
	}
}

func (r *Reporter) reportText(o Outcome) {
	if o.OK() {
		fmt.Fprintf(r.out, "%s %s\n", color.GreenString("✓"), o.Message)
	} else {
		fmt.Fprintf(r.out, "%s %s\n", color.RedString("✗"), o.Message)
	}

	for _, i := range o.Errors() {
		r.printIssue(i, color.FgRed)
	}
	for _, i := range o.Warnings() {
		r.printIssue(i, color.FgYellow)
	}
}

func (r *Reporter) finishText(s *Summary) {
	if r.root == "" && s.Root == "" {
		return
	}
	if s.OK() {
		fmt.Fprintln(r.out, color.GreenString("All validations passed!"))
		return
	}
	if s.Failed == 0 {
		// Stopped before any file failed, e.g. interrupted.
		fmt.Fprintf(r.out, "%s %v\n", color.RedString("Validation stopped:"), s.Err)
		return
	}
	fmt.Fprintf(r.out, "Validation failed: %s\n",
		color.RedString("%d of %d file(s)", s.Failed, s.Checked))
}

func (r *Reporter) printIssue(i Issue, c color.Attribute) {
	printer := color.New(c).SprintFunc()

	// Format:  • [field] message (context)

	var sb strings.Builder
	sb.WriteString("  • ")

	if i.Field != "" {
		sb.WriteString(printer(i.Field))
		sb.WriteString(": ")
	}

	sb.WriteString(i.Message)

	if len(i.Context) > 0 {
		var ctxParts []string
		for k, v := range i.Context {
			ctxParts = append(ctxParts, fmt.Sprintf("%s=%s", k, v))
		}
		// Sort for deterministic output
		sort.Strings(ctxParts)

		sb.WriteString(" ")
		sb.WriteString(color.New(color.FgHiBlack).Sprintf("(%s)", strings.Join(ctxParts, ", ")))
	}

	fmt.Fprintln(r.out, sb.String())
}

type jsonOutcome struct {
	Path    string    `json:"path"`
	Rule    rule.Rule `json:"rule"`
	Status  Status    `json:"status"`
	Kind    string    `json:"kind,omitempty"`
	Message string    `json:"message"`
	Schema  string    `json:"schema,omitempty"`
	Issues  []Issue   `json:"issues,omitempty"`
}

type jsonReport struct {
	Root     string        `json:"root,omitempty"`
	OK       bool          `json:"ok"`
	Checked  int           `json:"checked"`
	Passed   int           `json:"passed"`
	Failed   int           `json:"failed"`
	Skipped  int           `json:"skipped"`
	Error    string        `json:"error,omitempty"`
	Outcomes []jsonOutcome `json:"outcomes"`
}

// reportJSON writes the summary as one JSON document.
func (r *Reporter) reportJSON(s *Summary) error {
	if s.Root == "" {
		s.Root = r.root
	}
	data, err := MarshalReport(s)
	if err != nil {
		return err
	}
	_, err = r.out.Write(data)
	return errors.Wrap(err, "writing JSON report")
}

// MarshalReport renders s as an indented JSON report with a trailing newline.
func MarshalReport(s *Summary) ([]byte, error) {
	report := jsonReport{
		Root:     s.Root,
		OK:       s.OK(),
		Checked:  s.Checked,
		Passed:   s.Passed,
		Failed:   s.Failed,
		Skipped:  s.Skipped,
		Outcomes: make([]jsonOutcome, 0, len(s.Outcomes)),
	}
	if s.Err != nil {
		report.Error = s.Err.Error()
	}
	for _, o := range s.Outcomes {
		jo := jsonOutcome{
			Path:    o.Path,
			Rule:    o.Rule,
			Status:  o.Status,
			Message: o.Message,
			Schema:  o.Schema,
			Issues:  o.Issues,
		}
		if !o.OK() {
			jo.Kind = o.Kind.String()
		}
		report.Outcomes = append(report.Outcomes, jo)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "encoding JSON report")
	}
	return append(data, '\n'), nil
}
