package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"imagedb"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printRecords(w io.Writer, records []imagedb.Record, asJSON bool) error {
	if asJSON {
		if records == nil {
			records = []imagedb.Record{}
		}
		return printJSON(w, records)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFILENAME\tCHECKSUM\tPATH")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", formatID(r.ID), r.FileName, checksumOrDash(r.Checksum), r.FilePath)
	}
	return tw.Flush()
}

// outcomeJSON is the JSON shape of a FileOutcome; errors become strings.
type outcomeJSON struct {
	Path   string          `json:"path"`
	Record *imagedb.Record `json:"record,omitempty"`
	Error  string          `json:"error,omitempty"`
}

func printOutcomes(w io.Writer, outcomes []imagedb.FileOutcome, asJSON bool) error {
	if asJSON {
		out := make([]outcomeJSON, 0, len(outcomes))
		for _, o := range outcomes {
			item := outcomeJSON{Path: o.Path}
			if o.OK() {
				rec := o.Record
				item.Record = &rec
			} else {
				item.Error = o.Err.Error()
			}
			out = append(out, item)
		}
		return printJSON(w, out)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STATUS\tID\tPATH\tDETAIL")
	for _, o := range outcomes {
		if o.OK() {
			fmt.Fprintf(tw, "added\t%s\t%s\t%s\n", formatID(o.Record.ID), o.Path, checksumOrDash(o.Record.Checksum))
		} else {
			fmt.Fprintf(tw, "failed\t-\t%s\t%v\n", o.Path, o.Err)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d added, %d failed\n", len(outcomes)-countFailed(outcomes), countFailed(outcomes))
	return err
}

func printReport(w io.Writer, r imagedb.ScanReport, asJSON bool) error {
	if asJSON {
		unreadable := make([]outcomeJSON, 0, len(r.Unreadable))
		for _, o := range r.Unreadable {
			unreadable = append(unreadable, outcomeJSON{Path: o.Path, Error: o.Err.Error()})
		}
		return printJSON(w, struct {
			Dataset    string           `json:"dataset"`
			Checked    int              `json:"checked"`
			Missing    []imagedb.Record `json:"missing"`
			Mismatched []imagedb.Record `json:"mismatched"`
			Unreadable []outcomeJSON    `json:"unreadable"`
		}{r.Dataset, r.Checked, nonNil(r.Missing), nonNil(r.Mismatched), unreadable})
	}

	fmt.Fprintf(w, "Dataset %s: %d records checked\n", r.Dataset, r.Checked)
	for _, rec := range r.Missing {
		fmt.Fprintf(w, "  missing     %s (id %d)\n", rec.FilePath, rec.ID)
	}
	for _, rec := range r.Mismatched {
		fmt.Fprintf(w, "  changed     %s (id %d)\n", rec.FilePath, rec.ID)
	}
	for _, o := range r.Unreadable {
		fmt.Fprintf(w, "  unreadable  %s: %v\n", o.Path, o.Err)
	}
	if r.Clean() {
		fmt.Fprintln(w, "  all files present")
	}
	return nil
}

func checksumOrDash(sum *string) string {
	if sum == nil {
		return "-"
	}
	return *sum
}

func nonNil(records []imagedb.Record) []imagedb.Record {
	if records == nil {
		return []imagedb.Record{}
	}
	return records
}
