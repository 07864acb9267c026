// Copyright FAL Driver Test Authors
// SPDX-License-Identifier: Apache-2.0

package conformance

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
)

// Result is the outcome of one scenario run.
type Result struct {
	Scenario string
	Status   Status
	// Messages holds assertion diagnostics, or the reason for StatusIncomplete.
	Messages []string
	// Err is the fault behind StatusError.
	Err error
	// TeardownErr is set when the test folder could not be removed.
	TeardownErr error
	Duration    time.Duration
}

// Detail returns a one-line description of what went wrong, if anything.
func (r Result) Detail() string {
	var parts []string
	if r.Err != nil {
		parts = append(parts, r.Err.Error())
	}
	parts = append(parts, r.Messages...)
	if r.TeardownErr != nil {
		parts = append(parts, "teardown: "+r.TeardownErr.Error())
	}
	return strings.Join(parts, "; ")
}

// Summary counts results per outcome.
type Summary struct {
	Total            int `json:"total"`
	Passed           int `json:"passed"`
	Failed           int `json:"failed"`
	Errors           int `json:"errors"`
	Incomplete       int `json:"incomplete"`
	TeardownFailures int `json:"teardown_failures"`
}

// Report aggregates the results of one suite run.
type Report struct {
	Storage  string
	Started  time.Time
	Duration time.Duration
	Results  []Result
	// Interrupted is set when the run context was canceled before every
	// selected scenario had run.
	Interrupted bool
}

// Summary counts the report's results.
func (r *Report) Summary() Summary {
	s := Summary{Total: len(r.Results)}
	for _, res := range r.Results {
		switch res.Status {
		case StatusPass:
			s.Passed++
		case StatusFail:
			s.Failed++
		case StatusError:
			s.Errors++
		case StatusIncomplete:
			s.Incomplete++
		}
		if res.TeardownErr != nil {
			s.TeardownFailures++
		}
	}
	return s
}

// OK reports whether the run completed and nothing failed, faulted or left
// the storage dirty. Incomplete scenarios do not make a report fail.
func (r *Report) OK() bool {
	s := r.Summary()
	return !r.Interrupted && s.Failed == 0 && s.Errors == 0 && s.TeardownFailures == 0
}

// WriteTable renders the report as a borderless table followed by a summary line.
func (r *Report) WriteTable(w io.Writer) error {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Scenario", "Status", "Duration", "Detail"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)

	for _, res := range r.Results {
		table.Append([]string{
			res.Scenario,
			strings.ToUpper(res.Status.String()),
			res.Duration.Round(time.Millisecond).String(),
			res.Detail(),
		})
	}
	table.Render()

	s := r.Summary()
	_, err := fmt.Fprintf(w, "\n%d scenarios: %d passed, %d failed, %d errors, %d incomplete, %d teardown failures\n",
		s.Total, s.Passed, s.Failed, s.Errors, s.Incomplete, s.TeardownFailures)
	if err == nil && r.Interrupted {
		_, err = fmt.Fprintln(w, "run interrupted before every scenario ran")
	}
	return err
}

type jsonResult struct {
	Scenario      string   `json:"scenario"`
	Status        Status   `json:"status"`
	Messages      []string `json:"messages,omitempty"`
	Error         string   `json:"error,omitempty"`
	TeardownError string   `json:"teardown_error,omitempty"`
	DurationMS    int64    `json:"duration_ms"`
}

type jsonReport struct {
	Storage     string       `json:"storage,omitempty"`
	Started     time.Time    `json:"started"`
	DurationMS  int64        `json:"duration_ms"`
	OK          bool         `json:"ok"`
	Interrupted bool         `json:"interrupted,omitempty"`
	Summary     Summary      `json:"summary"`
	Results     []jsonResult `json:"results"`
}

// WriteJSON renders the report as an indented JSON document.
func (r *Report) WriteJSON(w io.Writer) error {
	out := jsonReport{
		Storage:     r.Storage,
		Started:     r.Started,
		DurationMS:  r.Duration.Milliseconds(),
		OK:          r.OK(),
		Interrupted: r.Interrupted,
		Summary:     r.Summary(),
		Results:     make([]jsonResult, 0, len(r.Results)),
	}
	for _, res := range r.Results {
		jr := jsonResult{
			Scenario:   res.Scenario,
			Status:     res.Status,
			Messages:   res.Messages,
			DurationMS: res.Duration.Milliseconds(),
		}
		if res.Err != nil {
			jr.Error = res.Err.Error()
		}
		if res.TeardownErr != nil {
			jr.TeardownError = res.TeardownErr.Error()
		}
		out.Results = append(out.Results, jr)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}
