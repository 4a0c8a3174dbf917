// Copyright (c) 2025, Stasis Authors.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package serializer

import (
	"fmt"
	"reflect"
	"sort"
	"text/tabwriter"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/stasis-io/stasis/pkg/snapshot"
)

const defaultValueKey = "value"

// timeLayout used for table timestamps.
const timeLayout = "2006-01-02 15:04:05"

var (
	titler  = cases.Title(language.English)
	grouper = message.NewPrinter(language.English)
)

// serializeTable renders the known snapshot types as purpose-built
// tables and everything else as a flattened field/value listing.
func (w *Writer) serializeTable(v any) error {
	switch t := v.(type) {
	case []*snapshot.Record:
		return w.recordTable(t)
	case *snapshot.Record:
		return w.recordTable([]*snapshot.Record{t})
	case *snapshot.Stats:
		return w.statsTable(t)
	default:
		return w.flatTable(v)
	}
}

func (w *Writer) recordTable(records []*snapshot.Record) error {
	if len(records) == 0 {
		fmt.Fprintln(w.output, "no snapshots")
		return nil
	}

	tw := tabwriter.NewWriter(w.output, 0, 0, 2, ' ', 0)
	header(tw, "id", "target", "trigger", "status", "created", "size")
	for _, rec := range records {
		name := rec.TargetName
		if name == "" {
			name = rec.TargetID
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			rec.ID,
			name,
			rec.Trigger,
			rec.Status,
			rec.CreatedAt.Format(timeLayout),
			formatBytes(rec.SizeBytes),
		)
	}
	return tw.Flush()
}

func (w *Writer) statsTable(st *snapshot.Stats) error {
	tw := tabwriter.NewWriter(w.output, 0, 0, 2, ' ', 0)
	header(tw, "metric", "value")
	fmt.Fprintf(tw, "Total Snapshots\t%d\n", st.TotalSnapshots)
	fmt.Fprintf(tw, "Total Targets\t%d\n", st.TotalTargets)
	fmt.Fprintf(tw, "Total Size\t%s\n", formatBytes(st.TotalSizeBytes))

	statuses := make([]string, 0, len(st.ByStatus))
	for s := range st.ByStatus {
		statuses = append(statuses, s.String())
	}
	sort.Strings(statuses)
	for _, s := range statuses {
		fmt.Fprintf(tw, "%s\t%d\n", titler.String(s), st.ByStatus[snapshot.Status(s)])
	}
	return tw.Flush()
}

func (w *Writer) flatTable(v any) error {
	flat := make(map[string]any)
	flattenValue(flat, reflect.ValueOf(v), "")
	if len(flat) == 0 {
		fmt.Fprintln(w.output, "<empty>")
		return nil
	}

	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tw := tabwriter.NewWriter(w.output, 0, 0, 2, ' ', 0)
	header(tw, "field", "value")
	for _, key := range keys {
		fmt.Fprintf(tw, "%s\t%v\n", key, flat[key])
	}
	return tw.Flush()
}

// header writes an upper-cased header row.
func header(tw *tabwriter.Writer, cols ...string) {
	for i, col := range cols {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, titler.String(col))
	}
	fmt.Fprintln(tw)
}

// formatBytes renders a byte count with grouped digits ("1,048,576 B").
// Zero is rendered as a dash since most records without a size simply
// have no reported one.
func formatBytes(n int64) string {
	if n == 0 {
		return "-"
	}
	return grouper.Sprintf("%d B", n)
}

func flattenValue(out map[string]any, val reflect.Value, prefix string) {
	if !val.IsValid() {
		return
	}

	for val.Kind() == reflect.Pointer || val.Kind() == reflect.Interface {
		if val.IsNil() {
			if prefix != "" {
				out[prefix] = nil
			}
			return
		}
		val = val.Elem()
	}

	if t, ok := val.Interface().(time.Time); ok {
		out[prefix] = t.Format(timeLayout)
		return
	}

	//nolint:exhaustive // common cases handled explicitly, the rest are leaves
	switch val.Kind() {
	case reflect.Struct:
		typ := val.Type()
		for i := 0; i < val.NumField(); i++ {
			field := typ.Field(i)
			if !field.IsExported() {
				continue
			}
			key := joinKey(prefix, field.Name)
			flattenValue(out, val.Field(i), key)
		}
	case reflect.Map:
		for _, mapKey := range val.MapKeys() {
			key := joinKey(prefix, fmt.Sprintf("%v", mapKey.Interface()))
			flattenValue(out, val.MapIndex(mapKey), key)
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < val.Len(); i++ {
			key := joinKey(prefix, fmt.Sprintf("[%d]", i))
			flattenValue(out, val.Index(i), key)
		}
	default:
		if prefix == "" {
			prefix = defaultValueKey
		}
		out[prefix] = val.Interface()
	}
}

func joinKey(prefix, suffix string) string {
	if prefix == "" {
		return suffix
	}
	if suffix == "" {
		return prefix
	}
	return prefix + "." + suffix
}
