// Package checkpoint decorates errors with the file and line they passed through,
// which gives something close to a stack trace when the error is printed.
// A checkpoint created with Wrap matches both of its errors with errors.Is and errors.As.
package checkpoint

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strings"
)

// From decorates err with the caller position.
// It returns nil for a nil err. io.EOF and io.ErrUnexpectedEOF are returned
// undecorated because callers compare them with ==.
func From(err error) error {
	if err == nil || isBareEOF(err) {
		return err
	}

	return newCheckpoint(nil, err)
}

// Wrap decorates cause with err and the caller position.
// This allows predefined sentinel errors to describe a failure
// without losing the underlying cause:
//
//	var ErrReadDirectory = errors.New("could not read the directory")
//
//	func list() error {
//		_, err := dev.ReadAt(buf, off)
//		return checkpoint.Wrap(err, ErrReadDirectory)
//	}
//
// errors.Is(list(), ErrReadDirectory) then reports true, and so does a check for
// whatever ReadAt returned.
// Wrap returns nil if cause is nil and returns io.EOF undecorated.
func Wrap(cause, err error) error {
	if cause == nil || cause == io.EOF {
		return cause
	}

	return newCheckpoint(err, cause)
}

type checkpoint struct {
	err   error
	cause error

	file string
	line int
}

func newCheckpoint(err, cause error) *checkpoint {
	// Skip newCheckpoint and its exported caller.
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		file = "unknown"
	}

	return &checkpoint{
		err:   err,
		cause: cause,
		file:  filepath.Base(file),
		line:  line,
	}
}

func (c *checkpoint) Error() string {
	var b strings.Builder
	b.WriteString(c.position())
	if c.err != nil {
		b.WriteString(": ")
		b.WriteString(c.err.Error())
	}

	if next, ok := c.cause.(*checkpoint); ok {
		b.WriteString("\n")
		b.WriteString(next.Error())
		return b.String()
	}

	b.WriteString(": ")
	b.WriteString(c.cause.Error())
	return b.String()
}

func (c *checkpoint) position() string {
	if c.line == 0 {
		return c.file
	}
	return fmt.Sprintf("%s:%d", c.file, c.line)
}

func (c *checkpoint) Unwrap() error {
	return c.cause
}

func (c *checkpoint) Is(target error) bool {
	return c.err != nil && errors.Is(c.err, target)
}

func (c *checkpoint) As(target interface{}) bool {
	return c.err != nil && errors.As(c.err, target)
}

func isBareEOF(err error) bool {
	return err == io.EOF || err == io.ErrUnexpectedEOF
}
