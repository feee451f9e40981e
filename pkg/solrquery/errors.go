package solrquery

import "errors"

var (
	// ErrInvalidArgument is returned synchronously by the call that violates a contract.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrMalformedTree is returned by rendering when a node was not built through the
	// constructors and combinators of this package.
	ErrMalformedTree = errors.New("malformed query tree")
)
