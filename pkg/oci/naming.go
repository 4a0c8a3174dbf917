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

package oci

import (
	"regexp"
	"strings"
	"time"

	"github.com/distribution/reference"

	apperrors "github.com/stasis-io/stasis/pkg/errors"
)

// DefaultTagPattern is the artifact tag naming pattern used when none is
// configured. Placeholders: {target}, {trigger}, {ts}, {id}.
const DefaultTagPattern = "stasis-{target}-{trigger}-{ts}"

// tsLayout is the timestamp format used in artifact tags. Colons are not
// valid tag characters, so it is a compact layout.
const tsLayout = "20060102-150405"

// invalidTagChars matches everything a tag may not contain.
var invalidTagChars = regexp.MustCompile(`[^\w.-]+`)

// TagPattern expands a configured naming pattern into valid provider-side
// artifact tags.
type TagPattern struct {
	pattern string
}

// NewTagPattern validates and returns a TagPattern. The literal text of
// the pattern (everything outside the placeholders) must consist of
// valid tag characters; substituted values are sanitized at expansion
// time instead.
func NewTagPattern(pattern string) (*TagPattern, error) {
	if pattern == "" {
		pattern = DefaultTagPattern
	}

	literal := strings.NewReplacer(
		"{target}", "", "{trigger}", "", "{ts}", "", "{id}", "",
	).Replace(pattern)
	if invalidTagChars.MatchString(literal) {
		return nil, apperrors.NewWithContext(apperrors.ErrCodeInvalid,
			"tag naming pattern contains invalid tag characters",
			map[string]any{"pattern": pattern})
	}

	tp := &TagPattern{pattern: pattern}

	// Probe with representative values so a broken pattern fails at
	// configuration time, not at capture time.
	probe := tp.Expand("target0", "manual", "id0", time.Unix(0, 0).UTC())
	if _, err := reference.ParseNormalizedNamed("localhost/probe:" + probe); err != nil {
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeInvalid,
			"tag naming pattern produces invalid tags", err,
			map[string]any{"pattern": pattern, "expanded": probe})
	}

	return tp, nil
}

// Expand substitutes the placeholders and sanitizes the result into a
// valid tag: invalid characters collapse to '-', leading separators are
// trimmed, and the length is capped at the 128-character tag limit.
func (tp *TagPattern) Expand(target, trigger, id string, ts time.Time) string {
	r := strings.NewReplacer(
		"{target}", target,
		"{trigger}", trigger,
		"{id}", id,
		"{ts}", ts.UTC().Format(tsLayout),
	)
	tag := invalidTagChars.ReplaceAllString(r.Replace(tp.pattern), "-")
	tag = strings.TrimLeft(tag, ".-")
	if tag == "" {
		tag = "snapshot"
	}
	if len(tag) > 128 {
		tag = tag[:128]
	}
	return tag
}

// String returns the raw pattern.
func (tp *TagPattern) String() string {
	return tp.pattern
}
