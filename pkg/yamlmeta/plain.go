// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package yamlmeta

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// yaml11Scalars are read as booleans by YAML 1.1 parsers
// which many packaging tools still use
var yaml11Scalars = map[string]struct{}{}

func init() {
	for _, str := range []string{"y", "yes", "n", "no", "on", "off"} {
		yaml11Scalars[str] = struct{}{}
		yaml11Scalars[strings.ToUpper(str)] = struct{}{}
		yaml11Scalars[strings.ToUpper(str[:1])+str[1:]] = struct{}{}
	}
}

// IsPlainSafe reports whether a string can be written as a plain (unquoted)
// scalar and read back as the same string, both at the top level and as a
// mapping value.
func IsPlainSafe(str string) bool {
	if len(str) == 0 || strings.ContainsAny(str, "\n\r\t") {
		return false
	}
	if strings.TrimSpace(str) != str {
		return false
	}
	if _, found := yaml11Scalars[str]; found {
		return false
	}

	var topLevel interface{}
	if err := yaml.Unmarshal([]byte(str), &topLevel); err != nil {
		return false
	}
	if typedVal, ok := topLevel.(string); !ok || typedVal != str {
		return false
	}

	var inMap map[string]interface{}
	if err := yaml.Unmarshal([]byte(fmt.Sprintf("k: %s\n", str)), &inMap); err != nil {
		return false
	}
	typedVal, ok := inMap["k"].(string)
	return ok && typedVal == str && len(inMap) == 1
}
