package scheduler

import "errors"

// ErrInvalidInstance is returned at Run entry when the problem instance is
// empty or under-specified: no semesters, no faculty, no classes to
// schedule, or a gene template exceeds a type bound. No state is mutated
// before this error is returned.
var ErrInvalidInstance = errors.New("scheduler: invalid problem instance")

// ErrDegenerateSearch is returned when Run exhausts its generation budget
// without the best-seen score reaching the caller-supplied acceptance
// threshold. Callers that pass no threshold never see this error; Run then
// always returns the best-seen chromosome without error.
var ErrDegenerateSearch = errors.New("scheduler: search did not reach acceptance threshold")
