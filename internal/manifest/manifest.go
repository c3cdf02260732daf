// Package manifest checks rendered Kubernetes manifests against the API
// types they claim to be.
package manifest

import (
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/yaml"
)

// InvalidManifestError reports a rendered manifest that does not decode
// into its API type.
type InvalidManifestError struct {
	Path string
	Kind string
	Err  error
}

func (e *InvalidManifestError) Error() string {
	return fmt.Sprintf("invalid %s manifest %s: %v", e.Kind, e.Path, e.Err)
}

func (e *InvalidManifestError) Unwrap() error {
	return e.Err
}

type expected struct {
	apiVersion string
	newObject  func() any
	typeMeta   func(any) metav1.TypeMeta
}

var kinds = map[string]expected{
	"Deployment": {
		apiVersion: "apps/v1",
		newObject:  func() any { return &appsv1.Deployment{} },
		typeMeta:   func(o any) metav1.TypeMeta { return o.(*appsv1.Deployment).TypeMeta },
	},
	"Service": {
		apiVersion: "v1",
		newObject:  func() any { return &corev1.Service{} },
		typeMeta:   func(o any) metav1.TypeMeta { return o.(*corev1.Service).TypeMeta },
	},
	"Namespace": {
		apiVersion: "v1",
		newObject:  func() any { return &corev1.Namespace{} },
		typeMeta:   func(o any) metav1.TypeMeta { return o.(*corev1.Namespace).TypeMeta },
	},
	"ConfigMap": {
		apiVersion: "v1",
		newObject:  func() any { return &corev1.ConfigMap{} },
		typeMeta:   func(o any) metav1.TypeMeta { return o.(*corev1.ConfigMap).TypeMeta },
	},
	"Ingress": {
		apiVersion: "networking.k8s.io/v1",
		newObject:  func() any { return &networkingv1.Ingress{} },
		typeMeta:   func(o any) metav1.TypeMeta { return o.(*networkingv1.Ingress).TypeMeta },
	},
}

// Supported reports whether Check knows kind.
func Supported(kind string) bool {
	_, ok := kinds[kind]
	return ok
}

// Check strictly decodes data as a kind object. Unknown fields, duplicate
// keys and a mismatched apiVersion or kind are errors.
func Check(path, kind string, data []byte) error {
	exp, ok := kinds[kind]
	if !ok {
		return &InvalidManifestError{Path: path, Kind: kind, Err: fmt.Errorf("unsupported kind")}
	}
	obj := exp.newObject()
	if err := yaml.UnmarshalStrict(data, obj); err != nil {
		return &InvalidManifestError{Path: path, Kind: kind, Err: err}
	}
	tm := exp.typeMeta(obj)
	if tm.APIVersion != exp.apiVersion || tm.Kind != kind {
		return &InvalidManifestError{
			Path: path,
			Kind: kind,
			Err:  fmt.Errorf("got %s %s, want %s %s", tm.APIVersion, tm.Kind, exp.apiVersion, kind),
		}
	}
	return nil
}

// Decode strictly decodes data into obj.
func Decode(data []byte, obj any) error {
	return yaml.UnmarshalStrict(data, obj)
}
