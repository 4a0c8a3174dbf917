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

package cli

import "testing"

func TestWatchCommandStructure(t *testing.T) {
	cmd := watchCmd()
	if cmd.Name != "watch" {
		t.Fatalf("got command name %q", cmd.Name)
	}

	for _, name := range []string{"kubeconfig", "namespace"} {
		found := false
		for _, f := range cmd.Flags {
			for _, n := range f.Names() {
				if n == name {
					found = true
				}
			}
		}
		if !found {
			t.Errorf("missing flag %q", name)
		}
	}
}
