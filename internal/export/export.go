package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"termcal/internal/events"
)

// Format is an export/import file format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

var ErrUnknownFormat = errors.New("unknown format (use csv or json)")

var csvHeader = []string{
	"id", "title", "description", "location", "calendar",
	"start", "end", "all_day", "reminder_minutes",
}

// ParseFormat resolves an explicit format name, falling back to the file extension
func ParseFormat(name, path string) (Format, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}
	switch Format(name) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSON, "":
		return FormatJSON, nil
	}
	return "", ErrUnknownFormat
}

// Write encodes events in the given format
func Write(w io.Writer, f Format, list []events.Event) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, list)
	case FormatJSON:
		return WriteJSON(w, list)
	}
	return ErrUnknownFormat
}

// Read decodes events in the given format
func Read(r io.Reader, f Format) ([]events.Event, error) {
	switch f {
	case FormatCSV:
		return ReadCSV(r)
	case FormatJSON:
		return ReadJSON(r)
	}
	return nil, ErrUnknownFormat
}

// WriteCSV writes a header row followed by one row per event; times are RFC3339
func WriteCSV(w io.Writer, list []events.Event) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, e := range list {
		row := []string{
			e.ID.String(),
			e.Title,
			e.Description,
			e.Location,
			e.Calendar,
			e.Start.Format(time.RFC3339),
			e.End.Format(time.RFC3339),
			strconv.FormatBool(e.AllDay),
			strconv.Itoa(e.ReminderMinutes),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses rows written by WriteCSV. Columns are matched by header
// name; rows without an ID get a fresh one.
func ReadCSV(r io.Reader) ([]events.Event, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, errors.New("csv: missing header row")
		}
		return nil, err
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"title", "start", "end"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("csv: missing required column %q", required)
		}
	}

	var out []events.Event
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// *csv.ParseError carries its own line number
			return nil, err
		}
		line, _ := cr.FieldPos(0)

		field := func(name string) string {
			if i, ok := cols[name]; ok && i < len(record) {
				return strings.TrimSpace(record[i])
			}
			return ""
		}

		e, err := eventFromFields(field)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func eventFromFields(field func(string) string) (events.Event, error) {
	var e events.Event
	var err error

	if id := field("id"); id != "" {
		if e.ID, err = uuid.Parse(id); err != nil {
			return e, fmt.Errorf("invalid id %q", id)
		}
	} else {
		e.ID = uuid.New()
	}

	e.Title = field("title")
	e.Description = field("description")
	e.Location = field("location")
	e.Calendar = field("calendar")

	if e.Start, err = time.Parse(time.RFC3339, field("start")); err != nil {
		return e, fmt.Errorf("invalid start time: %w", err)
	}
	if e.End, err = time.Parse(time.RFC3339, field("end")); err != nil {
		return e, fmt.Errorf("invalid end time: %w", err)
	}
	if v := field("all_day"); v != "" {
		if e.AllDay, err = strconv.ParseBool(v); err != nil {
			return e, fmt.Errorf("invalid all_day %q", v)
		}
	}
	if v := field("reminder_minutes"); v != "" {
		if e.ReminderMinutes, err = strconv.Atoi(v); err != nil {
			return e, fmt.Errorf("invalid reminder_minutes %q", v)
		}
	}

	if err := e.Validate(); err != nil {
		return e, err
	}
	return e, nil
}

// WriteJSON writes an indented JSON array
func WriteJSON(w io.Writer, list []events.Event) error {
	if list == nil {
		list = []events.Event{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(list)
}

// ReadJSON reads a JSON array of events, validating each one
func ReadJSON(r io.Reader) ([]events.Event, error) {
	var list []events.Event
	if err := json.NewDecoder(r).Decode(&list); err != nil {
		return nil, fmt.Errorf("json: %w", err)
	}
	for i := range list {
		if list[i].ID == uuid.Nil {
			list[i].ID = uuid.New()
		}
		if err := list[i].Validate(); err != nil {
			return nil, fmt.Errorf("json event %d: %w", i+1, err)
		}
	}
	return list, nil
}
