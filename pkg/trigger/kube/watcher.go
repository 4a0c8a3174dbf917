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
	"context"
	"log/slog"
	"strings"
	"time"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/client-go/informers"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/cache"

	apperrors "github.com/stasis-io/stasis/pkg/errors"
	"github.com/stasis-io/stasis/pkg/snapshot"
)

// resyncInterval is the informer cache resync period.
const resyncInterval = 10 * time.Minute

// Sink receives translated lifecycle events. *trigger.Adapter satisfies
// this.
type Sink interface {
	Handle(ctx context.Context, targetID string, trigger snapshot.Trigger, event map[string]any)
}

// Watcher translates pod phase changes into snapshot trigger events:
// a pod entering Running fires run_start, Succeeded fires run_end, and
// Failed fires on_error.
type Watcher struct {
	sink    Sink
	factory informers.SharedInformerFactory
}

// NewWatcher builds a pod watcher over the given namespace; an empty
// namespace watches the whole cluster.
func NewWatcher(client kubernetes.Interface, sink Sink, namespace string) (*Watcher, error) {
	w := &Watcher{
		sink: sink,
		factory: informers.NewSharedInformerFactoryWithOptions(client, resyncInterval,
			informers.WithNamespace(namespace)),
	}

	informer := w.factory.Core().V1().Pods().Informer()
	_, err := informer.AddEventHandler(cache.ResourceEventHandlerFuncs{
		UpdateFunc: w.onUpdate,
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal,
			"failed to register pod event handler", err)
	}

	return w, nil
}

// Run starts the informers and blocks until the context is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	stopCh := make(chan struct{})
	defer close(stopCh)

	w.factory.Start(stopCh)
	for typ, synced := range w.factory.WaitForCacheSync(ctx.Done()) {
		if !synced {
			return apperrors.Newf(apperrors.ErrCodeUnavailable,
				"informer cache for %v did not sync", typ)
		}
	}

	slog.Info("pod watcher running")
	<-ctx.Done()
	return nil
}

func (w *Watcher) onUpdate(oldObj, newObj any) {
	oldPod, ok := oldObj.(*corev1.Pod)
	if !ok {
		return
	}
	pod, ok := newObj.(*corev1.Pod)
	if !ok {
		return
	}
	if oldPod.Status.Phase == pod.Status.Phase {
		return
	}
	w.handlePhaseChange(context.Background(), pod)
}

// handlePhaseChange maps the pod's new phase onto a trigger and forwards
// it to the sink.
func (w *Watcher) handlePhaseChange(ctx context.Context, pod *corev1.Pod) {
	var trig snapshot.Trigger
	switch pod.Status.Phase {
	case corev1.PodRunning:
		trig = snapshot.TriggerRunStart
	case corev1.PodSucceeded:
		trig = snapshot.TriggerRunEnd
	case corev1.PodFailed:
		trig = snapshot.TriggerOnError
	default:
		return
	}

	targetID := podTargetID(pod)
	if targetID == "" {
		slog.Debug("pod has no resolvable container id",
			slog.String("pod", pod.Namespace+"/"+pod.Name))
		return
	}

	w.sink.Handle(ctx, targetID, trig, map[string]any{
		"container_id": targetID,
		"run_id":       string(pod.UID),
		"pod":          pod.Namespace + "/" + pod.Name,
	})
}

// podTargetID extracts the first container runtime id, stripping the
// runtime scheme prefix (docker://, containerd://).
func podTargetID(pod *corev1.Pod) string {
	for _, cs := range pod.Status.ContainerStatuses {
		if cs.ContainerID == "" {
			continue
		}
		id := cs.ContainerID
		if idx := strings.Index(id, "://"); idx >= 0 {
			id = id[idx+3:]
		}
		return id
	}
	return ""
}
