// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package metadata

import (
	"fmt"
	"reflect"
	"strings"

	"carvel.dev/kiln/pkg/orderedmap"
	"github.com/go-playground/validator/v10"
)

// PackageMetadata holds declared fields of a build descriptor.
// Optional fields are empty when absent.
type PackageMetadata struct {
	Name         string   `json:"name" validate:"required"`
	Version      string   `json:"version,omitempty"`
	URL          string   `json:"url,omitempty"`
	Description  string   `json:"description,omitempty"`
	Dependencies []string `json:"dependencies" validate:"dive,required"`
}

const (
	fieldName            = "name"
	fieldVersion         = "version"
	fieldURL             = "url"
	fieldDescription     = "description"
	fieldDependencies    = "dependencies"
	fieldInstallRequires = "install_requires"
)

// knownFields are the only fields read from a source
var knownFields = []string{fieldName, fieldVersion, fieldURL, fieldDescription, fieldDependencies, fieldInstallRequires}

// AsMap returns template facing view of metadata. Absent optional
// fields are absent keys; install_requires is an alias of dependencies.
func (m PackageMetadata) AsMap() *orderedmap.Map {
	result := orderedmap.NewMap()
	result.Set(fieldName, m.Name)

	for _, field := range []struct {
		Key string
		Val string
	}{
		{fieldVersion, m.Version},
		{fieldURL, m.URL},
		{fieldDescription, m.Description},
	} {
		if len(field.Val) > 0 {
			result.Set(field.Key, field.Val)
		}
	}

	deps := make([]interface{}, len(m.Dependencies))
	for i, dep := range m.Dependencies {
		deps[i] = dep
	}
	result.Set(fieldDependencies, deps)
	result.Set(fieldInstallRequires, append([]interface{}{}, deps...))

	return result
}

func newValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		return strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	})
	return validate
}

func validationErr(err error) error {
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok || len(validationErrs) == 0 {
		return err
	}

	var msgs []string
	for _, fieldErr := range validationErrs {
		switch fieldErr.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("Expected '%s' to be a non-empty string", fieldErr.Field()))
		default:
			msgs = append(msgs, fmt.Sprintf("Expected '%s' to satisfy '%s'", fieldErr.Field(), fieldErr.Tag()))
		}
	}
	return fmt.Errorf("%s", strings.Join(msgs, ", "))
}

// newPackageMetadata builds metadata from already decoded fields
// (ordered map with string keys); unknown fields are ignored
func newPackageMetadata(fields *orderedmap.Map) (PackageMetadata, error) {
	var result PackageMetadata
	var err error

	strFields := []struct {
		Key  string
		Dest *string
	}{
		{fieldName, &result.Name},
		{fieldVersion, &result.Version},
		{fieldURL, &result.URL},
		{fieldDescription, &result.Description},
	}

	for _, field := range strFields {
		val, found := fields.Get(field.Key)
		if !found || val == nil {
			continue
		}
		str, ok := val.(string)
		if !ok {
			return PackageMetadata{}, fmt.Errorf("Expected '%s' to be a string, but was %s", field.Key, typeName(val))
		}
		*field.Dest = strings.TrimSpace(str)
	}

	depsVal, hasDeps := fields.Get(fieldDependencies)
	installReqsVal, hasInstallReqs := fields.Get(fieldInstallRequires)
	depsKey := fieldDependencies

	switch {
	case hasDeps && hasInstallReqs:
		return PackageMetadata{}, fmt.Errorf("Expected only one of '%s' and '%s' to be specified", fieldDependencies, fieldInstallRequires)
	case hasInstallReqs:
		depsVal, depsKey = installReqsVal, fieldInstallRequires
	}

	result.Dependencies, err = stringList(depsKey, depsVal)
	if err != nil {
		return PackageMetadata{}, err
	}

	return result, nil
}

func stringList(key string, val interface{}) ([]string, error) {
	result := []string{}

	switch typedVal := val.(type) {
	case nil:
		return result, nil
	case []interface{}:
		for i, item := range typedVal {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("Expected '%s[%d]' to be a string, but was %s", key, i, typeName(item))
			}
			result = append(result, strings.TrimSpace(str))
		}
		return result, nil
	default:
		return nil, fmt.Errorf("Expected '%s' to be a list of strings, but was %s", key, typeName(val))
	}
}

func typeName(val interface{}) string {
	switch val.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "bool"
	case int, int64, uint64:
		return "int"
	case float64:
		return "float"
	case []interface{}:
		return "list"
	case *orderedmap.Map:
		return "map"
	default:
		return fmt.Sprintf("%T", val)
	}
}
