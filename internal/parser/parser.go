package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kaptinlin/jsonrepair"
)

const snippetLength = 200

var fencePattern = regexp.MustCompile("(?s)```(?:[a-zA-Z]+)?\\s*\\n?(.*?)```")

var validate = validator.New()

// ParseError reports generative output that could not be turned into a record.
type ParseError struct {
	Context string
	Snippet string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s response: %v (text: %q)", e.Context, e.Err, e.Snippet)
}

func (e *ParseError) Unwrap() error { return e.Err }

var (
	ErrNoJSON  = errors.New("no JSON object found")
	ErrInvalid = errors.New("response does not match schema")
)

type options struct {
	repair bool
}

type Option func(*options)

// WithRepair retries a malformed object through jsonrepair before failing.
func WithRepair() Option {
	return func(o *options) { o.repair = true }
}

// Parse extracts a JSON object from raw model output, decodes it into T and
// validates struct tags. context names the caller in error messages.
func Parse[T any](raw, context string, opts ...Option) (T, error) {
	var zero T
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	candidate, err := Extract(raw)
	if err != nil {
		return zero, &ParseError{Context: context, Snippet: snippet(raw), Err: err}
	}

	var out T
	if err := json.Unmarshal([]byte(candidate), &out); err != nil {
		if !o.repair {
			return zero, &ParseError{Context: context, Snippet: snippet(candidate), Err: err}
		}
		repaired, rerr := jsonrepair.JSONRepair(candidate)
		if rerr != nil {
			return zero, &ParseError{Context: context, Snippet: snippet(candidate), Err: err}
		}
		out = *new(T)
		if err := json.Unmarshal([]byte(repaired), &out); err != nil {
			return zero, &ParseError{Context: context, Snippet: snippet(candidate), Err: err}
		}
	}

	if isStruct(out) {
		if err := validate.Struct(out); err != nil {
			return zero, &ParseError{Context: context, Snippet: snippet(candidate), Err: fmt.Errorf("%w: %v", ErrInvalid, err)}
		}
	}
	return out, nil
}

// Extract returns the JSON text inside a markdown fence, or the trimmed text
// itself when it is a bare object.
func Extract(raw string) (string, error) {
	if m := fencePattern.FindStringSubmatch(raw); m != nil {
		inner := strings.TrimSpace(m[1])
		if inner != "" {
			return inner, nil
		}
	}
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") {
		return trimmed, nil
	}
	return "", ErrNoJSON
}

func snippet(s string) string {
	r := []rune(s)
	if len(r) > snippetLength {
		return string(r[:snippetLength])
	}
	return s
}

func isStruct(v any) bool {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t != nil && t.Kind() == reflect.Struct
}
