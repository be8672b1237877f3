// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package vcs

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	EnvTag    = "GIT_DESCRIBE_TAG"
	EnvNumber = "GIT_DESCRIBE_NUMBER"
	EnvHash   = "GIT_DESCRIBE_HASH"
)

type VersionInfo struct {
	Tag      string
	Distance int
	// Hash is abbreviated commit id (without "g" prefix); may be empty
	Hash string
}

// BuildString returns "<distance>_g<hash>" (or "<distance>" without hash)
func (i VersionInfo) BuildString() string {
	if len(i.Hash) == 0 {
		return strconv.Itoa(i.Distance)
	}
	return fmt.Sprintf("%d_g%s", i.Distance, i.Hash)
}

// ParseDescribe parses "<tag>-<distance>-g<hash>" from the right
// so that tags may contain dashes
func ParseDescribe(out string) (VersionInfo, error) {
	out = strings.TrimSpace(out)

	hashIdx := strings.LastIndex(out, "-")
	if hashIdx < 0 {
		return VersionInfo{}, &VersionError{Msg: fmt.Sprintf("Expected describe output '%s' to be in <tag>-<distance>-g<hash> format", out)}
	}
	distIdx := strings.LastIndex(out[:hashIdx], "-")
	if distIdx <= 0 {
		return VersionInfo{}, &VersionError{Msg: fmt.Sprintf("Expected describe output '%s' to be in <tag>-<distance>-g<hash> format", out)}
	}

	hash := out[hashIdx+1:]
	if !strings.HasPrefix(hash, "g") || len(hash) == 1 {
		return VersionInfo{}, &VersionError{Msg: fmt.Sprintf("Expected commit id in describe output '%s' to start with 'g'", out)}
	}

	distance, err := ParseDistance(out[distIdx+1 : hashIdx])
	if err != nil {
		return VersionInfo{}, err
	}

	return VersionInfo{Tag: out[:distIdx], Distance: distance, Hash: hash[1:]}, nil
}

// ParseDistance accepts only non-negative base 10 integers
func ParseDistance(str string) (int, error) {
	distance, err := strconv.Atoi(strings.TrimSpace(str))
	if err != nil || distance < 0 || strings.HasPrefix(strings.TrimSpace(str), "+") {
		return 0, &VersionError{Msg: fmt.Sprintf("Expected distance '%s' to be a non-negative integer", str)}
	}
	return distance, nil
}

// CheckEnvTag rejects empty tag supplied via environment
func CheckEnvTag(tag string) error {
	if len(tag) == 0 {
		return &VersionError{Msg: fmt.Sprintf("Expected %s to be non-empty", EnvTag)}
	}
	return nil
}

// FromEnv builds VersionInfo from GIT_DESCRIBE_* variables. Returned
// bool is false when tag or number is not set.
func FromEnv(environ map[string]string) (VersionInfo, bool, error) {
	tag, hasTag := environ[EnvTag]
	number, hasNumber := environ[EnvNumber]
	if !hasTag || !hasNumber {
		return VersionInfo{}, false, nil
	}

	if err := CheckEnvTag(tag); err != nil {
		return VersionInfo{}, true, err
	}

	distance, err := ParseDistance(number)
	if err != nil {
		return VersionInfo{}, true, err
	}

	return VersionInfo{Tag: tag, Distance: distance, Hash: environ[EnvHash]}, true, nil
}
