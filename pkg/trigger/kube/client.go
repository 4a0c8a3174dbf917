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

package kube

import (
	"os"
	"path/filepath"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/util/homedir"

	apperrors "github.com/stasis-io/stasis/pkg/errors"
)

// BuildClient creates a Kubernetes client. An empty kubeconfig path
// falls back to KUBECONFIG, then ~/.kube/config, then the in-cluster
// service account.
func BuildClient(kubeconfig string) (kubernetes.Interface, error) {
	if kubeconfig == "" {
		kubeconfig = os.Getenv("KUBECONFIG")
		if kubeconfig == "" {
			candidate := filepath.Join(homedir.HomeDir(), ".kube", "config")
			if _, err := os.Stat(candidate); err == nil {
				kubeconfig = candidate
			}
		}
	}

	var config *rest.Config
	var err error
	if kubeconfig == "" {
		config, err = rest.InClusterConfig()
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeUnavailable,
				"no kubeconfig and no in-cluster config", err)
		}
	} else {
		config, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
		if err != nil {
			return nil, apperrors.WrapWithContext(apperrors.ErrCodeInvalid,
				"failed to build kube config", err,
				map[string]any{"kubeconfig": kubeconfig})
		}
	}

	client, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeUnavailable,
			"failed to create kubernetes client", err)
	}
	return client, nil
}
