// Package validator implements the pluggable output contract described in
// the scheduler's attempt loop: an optional regex full-match check and an
// optional JSON-object required-keys check, composed so that either, both,
// or neither may be configured.
package validator

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sync"
)

// Validator decides whether an LLM output is acceptable. It is the single
// point of polymorphism the scheduler depends on; regex-only and
// schema-required contracts are just two configurations of Contract below.
type Validator interface {
	Validate(text string) bool
}

// ValidFunc adapts a bare func(string) bool, or a value whose only
// matching method is spelled Valid instead of Validate, into a Validator.
type ValidFunc func(text string) bool

// Validate calls the wrapped function.
func (f ValidFunc) Validate(text string) bool {
	return f(text)
}

var regexCache sync.Map // pattern string -> *regexp.Regexp

// compileAnchored compiles pattern wrapped so that MatchString behaves like
// Python's re.fullmatch: the whole string must match, not just a substring.
// Compiled patterns are cached by source text since a Contract is typically
// built once per task but regexes are frequently reused across tasks that
// share a contract.
func compileAnchored(pattern string) (*regexp.Regexp, error) {
	if cached, ok := regexCache.Load(pattern); ok {
		return cached.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(`\A(?:` + pattern + `)\z`)
	if err != nil {
		return nil, fmt.Errorf("validator: invalid regex %q: %w", pattern, err)
	}
	regexCache.Store(pattern, re)
	return re, nil
}

// Contract is the concrete Validator used by the coordinator's builder
// API. A zero-value Contract (no regex, no required keys) always accepts.
type Contract struct {
	Name     string
	regex    *regexp.Regexp
	required []string
}

// NewContract creates an empty contract. Use WithRegex and WithRequired to
// configure it; both return the receiver so calls can be chained the same
// way the coordinator's task builder chains With* calls.
func NewContract(name string) *Contract {
	return &Contract{Name: name}
}

// WithRegex compiles pattern and attaches it as the contract's full-match
// check. An invalid pattern returns an error rather than panicking, since
// regex source is ordinarily caller-supplied data, not a fixed literal.
func (c *Contract) WithRegex(pattern string) (*Contract, error) {
	re, err := compileAnchored(pattern)
	if err != nil {
		return nil, err
	}
	c.regex = re
	return c, nil
}

// MustWithRegex is WithRegex for call sites that only ever pass compile-time
// literal patterns and would rather panic on a typo than check an error.
func (c *Contract) MustWithRegex(pattern string) *Contract {
	out, err := c.WithRegex(pattern)
	if err != nil {
		panic(err)
	}
	return out
}

// WithRequired attaches a set of top-level JSON object keys that must be
// present for the output to validate.
func (c *Contract) WithRequired(keys ...string) *Contract {
	c.required = append(c.required, keys...)
	return c
}

// Validate implements Validator.
func (c *Contract) Validate(text string) bool {
	if c.regex != nil && !c.regex.MatchString(text) {
		return false
	}
	if len(c.required) == 0 {
		return true
	}
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return false
	}
	for _, key := range c.required {
		if _, ok := obj[key]; !ok {
			return false
		}
	}
	return true
}
