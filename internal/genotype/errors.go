package genotype

import "errors"

var (
	// ErrStructureMismatch is returned when copy, recombine or equality is asked to
	// combine nodes of different kinds or different ordered child ids.
	ErrStructureMismatch = errors.New("genotype structure mismatch")
	// ErrUnknownGeneID is returned by lookups for ids absent from the genome tree.
	ErrUnknownGeneID = errors.New("unknown gene id")
	// ErrInvalidRange is returned by gene constructors given inconsistent bounds.
	ErrInvalidRange = errors.New("invalid gene range")
	// ErrMustOverload is the panic value of GeneBase operations a custom gene did not implement.
	ErrMustOverload = errors.New("operation must be overloaded")
)
