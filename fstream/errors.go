package fstream

import "errors"

// ErrReaderClosed is returned by a reader's Poll/Next after it has been
// deallocated from its StreamCore.
var ErrReaderClosed = errors.New("fstream: reader closed")

// ErrIncorrectType is returned when a stream or reader's static type doesn't
// match an InputSource's declared TypeTag.
var ErrIncorrectType = errors.New("fstream: incorrect type")
