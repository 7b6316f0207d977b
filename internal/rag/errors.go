package rag

import "errors"

var (
	// ErrEmptyCorpus is returned by Build when no usable document was found.
	// No index is written in that case.
	ErrEmptyCorpus = errors.New("empty corpus")
	// ErrEmptySymptoms is returned by Query.Validate when no symptoms were given.
	ErrEmptySymptoms = errors.New("please provide a description of symptoms")
)
