// Package cerr builds errors that carry structured field context
// without forcing callers through fmt verbs at every wrap site.
package cerr

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

type ErrorContext struct {
	fields []field
	err    error
}

type field struct {
	key   string
	value any
}

func Field(key string, value any) ErrorContext {
	return ErrorContext{}.Field(key, value)
}

func Wrap(err error) ErrorContext {
	return ErrorContext{err: err}
}

func Error(msg string) error {
	return ErrorContext{}.Error(msg)
}

func (c ErrorContext) Field(key string, value any) ErrorContext {
	newFields := make([]field, len(c.fields), len(c.fields)+1)
	copy(newFields, c.fields)

	return ErrorContext{
		fields: append(newFields, field{key: key, value: value}),
		err:    c.err,
	}
}

func (c ErrorContext) Fields(fields map[string]any) ErrorContext {
	ctx := c
	for key, value := range fields {
		ctx = ctx.Field(key, value)
	}

	return ctx
}

func (c ErrorContext) Wrap(err error) ErrorContext {
	return ErrorContext{
		fields: c.fields,
		err:    err,
	}
}

// Error finalizes the context into an error. Wrapping preserves any
// marks on the original error so classification still works upstream.
func (c ErrorContext) Error(msg string) error {
	var err error
	if c.err != nil {
		err = errors.Wrap(c.err, msg)
	} else {
		err = errors.New(msg)
	}

	for _, f := range c.fields {
		err = errors.WithDetail(err, fmt.Sprintf("%s: %+v", f.key, f.value))
	}

	return err
}
